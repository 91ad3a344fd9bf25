package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	youtubesvc "github.com/trezcool/darasa/services/youtube"
)

type searchApi struct {
	svc *youtubesvc.Service
}

func registerSearchAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *youtubesvc.Service) {
	api := searchApi{svc: svc}

	sg := g.Group("/search", jwt)
	sg.POST("/youtube", api.searchYoutube)
}

type (
	YoutubeSearchRequest struct {
		Query string `json:"query"`
	}

	YoutubeSearchResponse struct {
		Results []youtubesvc.SearchResult `json:"results"`
	}
)

func (api *searchApi) searchYoutube(ctx echo.Context) error {
	var data YoutubeSearchRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to YoutubeSearchRequest")
	}
	if data.Query == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "query", Error: "query is required"})
	}

	results, err := api.svc.Search(ctx.Request().Context(), data.Query)
	if err != nil {
		if errors.Cause(err) == youtubesvc.ErrMissingAPIKey {
			return echo.NewHTTPError(http.StatusInternalServerError, "search is not configured")
		}
		return err // UpstreamError status is passed through by the error handler
	}
	return ctx.JSON(http.StatusOK, YoutubeSearchResponse{Results: results})
}
