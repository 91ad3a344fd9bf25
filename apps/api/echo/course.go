package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
)

type courseApi struct {
	svc        *course.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerCourseAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *course.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := courseApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.queryCourses)
	cg.GET("/:id", api.retrieveCourse)
	cg.GET("/:id/media", api.queryMedia)
	cg.GET("/:id/quizzes", api.queryQuizzes)

	mg := g.Group("/media", jwt)
	mg.POST("", api.createMedia, adminMiddleware())
	mg.DELETE("/:id", api.destroyMedia, adminMiddleware())

	qg := g.Group("/quizzes", jwt)
	qg.GET("", api.queryAllQuizzes, adminMiddleware())
	qg.POST("", api.createQuiz, adminMiddleware())
	qg.GET("/:id", api.retrieveQuiz)
	qg.DELETE("/:id", api.destroyQuiz, adminMiddleware())
}

// Handlers

func (api *courseApi) queryCourses(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Courses())
}

func (api *courseApi) retrieveCourse(ctx echo.Context) error {
	c, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) queryMedia(ctx echo.Context) error {
	media, err := api.svc.MediaByCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying course media")
	}
	if media == nil {
		media = []course.Media{}
	}
	return ctx.JSON(http.StatusOK, media)
}

func (api *courseApi) queryQuizzes(ctx echo.Context) error {
	quizzes, err := api.svc.QuizzesByCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying course quizzes")
	}
	if quizzes == nil {
		quizzes = []course.Quiz{}
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *courseApi) createMedia(ctx echo.Context) error {
	var data course.NewMedia
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMedia")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	m, err := api.svc.CreateMedia(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating media")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *courseApi) destroyMedia(ctx echo.Context) error {
	if _, err := api.svc.GetMedia(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	if err := api.svc.DeleteMedia(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting media")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) queryAllQuizzes(ctx echo.Context) error {
	quizzes, err := api.svc.AllQuizzes(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying quizzes")
	}
	if quizzes == nil {
		quizzes = []course.Quiz{}
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *courseApi) createQuiz(ctx echo.Context) error {
	var data course.NewQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	q, err := api.svc.CreateQuiz(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *courseApi) retrieveQuiz(ctx echo.Context) error {
	q, err := api.svc.GetQuiz(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *courseApi) destroyQuiz(ctx echo.Context) error {
	if _, err := api.svc.GetQuiz(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	if err := api.svc.DeleteQuizzes(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting quiz")
	}
	return ctx.NoContent(http.StatusNoContent)
}
