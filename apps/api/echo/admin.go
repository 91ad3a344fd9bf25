package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type adminApi struct {
	userSvc *user.Service
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, conf *core.Config, userSvc *user.Service) {
	api := adminApi{userSvc: userSvc}

	ag := g.Group("/admin", jwt, adminEmailMiddleware(conf))
	ag.GET("/users", api.queryUsers)
}

type (
	AdminUser struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}

	AdminUsersResponse struct {
		Users []AdminUser `json:"users"`
	}
)

// queryUsers lists all user ids and emails. The route is gated by
// adminEmailMiddleware; everyone but the configured admin gets a 401.
func (api *adminApi) queryUsers(ctx echo.Context) error {
	users, err := api.userSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying users")
	}

	resp := AdminUsersResponse{Users: make([]AdminUser, 0, len(users))}
	for _, usr := range users {
		resp.Users = append(resp.Users, AdminUser{ID: usr.ID, Email: usr.Email})
	}
	return ctx.JSON(http.StatusOK, resp)
}
