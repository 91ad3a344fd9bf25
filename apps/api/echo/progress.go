package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
)

type progressApi struct {
	svc       *progress.Service
	courseSvc *course.Service
	sessions  *progress.SessionStore
	userSvc   *user.Service
}

func registerProgressAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *progress.Service,
	courseSvc *course.Service,
	sessions *progress.SessionStore,
	userSvc *user.Service,
) {
	api := progressApi{
		svc:       svc,
		courseSvc: courseSvc,
		sessions:  sessions,
		userSvc:   userSvc,
	}

	pg := g.Group("/courses/:id/progress", jwt)
	pg.GET("", api.retrieveProgress)
	pg.POST("", api.markComplete)

	g.GET("/me/attempts", api.queryAttempts, jwt)

	g.POST("/quizzes/:id/sessions", api.startSession, jwt)
	sg := g.Group("/quizzes/:id/sessions/:sid", jwt)
	sg.GET("", api.retrieveSession)
	sg.PUT("/selections", api.selectOption)
	sg.POST("/submit", api.submitSession)
	sg.POST("/save-retry", api.retrySave)
	sg.POST("/retake", api.retakeSession)
}

type (
	MarkCompleteRequest struct {
		ActivityID   string `json:"activity_id"`
		ActivityType string `json:"activity_type"`
	}

	ProgressResponse struct {
		Progress        progress.CompletionMap `json:"progress"`
		CourseCompleted bool                   `json:"course_completed"`
	}

	StartSessionRequest struct {
		CourseID string `json:"course_id"`
	}

	SelectOptionRequest struct {
		Question int `json:"question"`
		Option   int `json:"option"`
	}

	SessionResponse struct {
		ID              string           `json:"id"`
		QuizID          string           `json:"quiz_id"`
		CourseID        string           `json:"course_id,omitempty"`
		Questions       course.Questions `json:"questions"`
		Selections      []int            `json:"selections"`
		Submitted       bool             `json:"submitted"`
		SaveState       string           `json:"save_state"`
		Score           *int             `json:"score,omitempty"`
		Total           *int             `json:"total,omitempty"`
		Feedback        []bool           `json:"feedback,omitempty"`
		CourseCompleted bool             `json:"course_completed"`
	}
)

func newSessionResponse(sess *progress.Session, courseCompleted bool) SessionResponse {
	resp := SessionResponse{
		ID:              sess.ID,
		QuizID:          sess.Quiz.ID,
		CourseID:        sess.CourseID,
		Questions:       sess.Quiz.Questions,
		Selections:      sess.Selections(),
		Submitted:       sess.Submitted(),
		SaveState:       sess.SaveState().String(),
		CourseCompleted: courseCompleted,
	}
	if sess.Submitted() {
		score, total := sess.Score()
		resp.Score = &score
		resp.Total = &total
		if fb, err := sess.Feedback(); err == nil {
			resp.Feedback = fb
		}
	}
	return resp
}

// Handlers

func (api *progressApi) retrieveProgress(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	courseID := ctx.Param("id")
	if _, err = api.courseSvc.Get(courseID); err != nil {
		return err
	}

	cmap, err := api.svc.CompletionMap(ctx.Request().Context(), claims.Subject, courseID)
	if err != nil {
		return errors.Wrap(err, "loading completion map")
	}
	completed, err := api.svc.CourseCompleted(ctx.Request().Context(), claims.Subject, courseID)
	if err != nil {
		return errors.Wrap(err, "checking course completion")
	}
	return ctx.JSON(http.StatusOK, ProgressResponse{Progress: cmap, CourseCompleted: completed})
}

func (api *progressApi) markComplete(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	courseID := ctx.Param("id")
	if _, err = api.courseSvc.Get(courseID); err != nil {
		return err
	}

	var data MarkCompleteRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkCompleteRequest")
	}

	cmap, err := api.svc.MarkComplete(
		ctx.Request().Context(), usr.ID, courseID, data.ActivityID, progress.ActivityType(data.ActivityType))
	if err != nil {
		return errors.Wrap(err, "marking activity complete")
	}

	completed, err := api.svc.SyncCourseCompletion(ctx.Request().Context(), usr, courseID)
	if err != nil {
		// activity completion is already stored; the next qualifying call retries
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "syncing course completion"))
		completed = false
	}
	return ctx.JSON(http.StatusOK, ProgressResponse{Progress: cmap, CourseCompleted: completed})
}

func (api *progressApi) queryAttempts(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	attempts, err := api.svc.Attempts(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying attempts")
	}
	if attempts == nil {
		attempts = []progress.Attempt{}
	}
	return ctx.JSON(http.StatusOK, attempts)
}

func (api *progressApi) startSession(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	quiz, err := api.courseSvc.GetQuiz(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data StartSessionRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StartSessionRequest")
	}
	if data.CourseID != "" {
		if _, err = api.courseSvc.Get(data.CourseID); err != nil {
			return err
		}
	}

	sess := api.sessions.Start(quiz, data.CourseID, claims.Subject)
	return ctx.JSON(http.StatusCreated, newSessionResponse(sess, false))
}

func (api *progressApi) getSession(ctx echo.Context) (*progress.Session, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil, err
	}
	return api.sessions.Get(ctx.Param("sid"), claims.Subject)
}

func (api *progressApi) retrieveSession(ctx echo.Context) error {
	sess, err := api.getSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(sess, false))
}

func (api *progressApi) selectOption(ctx echo.Context) error {
	sess, err := api.getSession(ctx)
	if err != nil {
		return err
	}

	var data SelectOptionRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SelectOptionRequest")
	}
	if err = sess.Select(data.Question, data.Option); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(sess, false))
}

func (api *progressApi) submitSession(ctx echo.Context) error {
	sess, err := api.getSession(ctx)
	if err != nil {
		return err
	}

	if err = sess.Submit(ctx.Request().Context(), api.svc); err != nil {
		if !sess.Submitted() {
			// no state transition happened (e.g. empty quiz)
			return err
		}
		// scored locally but the attempt save failed; the client may retry
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "saving attempt"))
	}

	return ctx.JSON(http.StatusOK, newSessionResponse(sess, api.syncAfterSubmit(ctx, sess)))
}

// syncAfterSubmit marks the quiz activity complete and re-derives course
// completion when the session was taken within a course. Failures are logged
// and not surfaced: quiz results are already final at this point.
func (api *progressApi) syncAfterSubmit(ctx echo.Context, sess *progress.Session) bool {
	if sess.CourseID == "" || sess.UserID == "" {
		return false
	}
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "getting context user"))
		return false
	}

	reqCtx := ctx.Request().Context()
	if _, err = api.svc.MarkComplete(reqCtx, usr.ID, sess.CourseID, sess.Quiz.ID, progress.ActivityQuiz); err != nil {
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "marking quiz complete"))
		return false
	}
	completed, err := api.svc.SyncCourseCompletion(reqCtx, usr, sess.CourseID)
	if err != nil {
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "syncing course completion"))
		return false
	}
	return completed
}

func (api *progressApi) retrySave(ctx echo.Context) error {
	sess, err := api.getSession(ctx)
	if err != nil {
		return err
	}

	if err = sess.RetrySave(ctx.Request().Context(), api.svc); err != nil {
		if errors.Cause(err) == progress.ErrNothingToRetry {
			return err
		}
		return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("saving attempt: %v", err))
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(sess, false))
}

func (api *progressApi) retakeSession(ctx echo.Context) error {
	sess, err := api.getSession(ctx)
	if err != nil {
		return err
	}

	sess.Retake()
	return ctx.JSON(http.StatusOK, newSessionResponse(sess, false))
}
