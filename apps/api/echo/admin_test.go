package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_adminApi_queryUsers(t *testing.T) {
	env := setup(t)

	usr := createUser(t, env.usrRepo, "Student", "stu", "stu@test.cd", "", nil, true)
	admin := createUser(t, env.usrRepo, "Boss", "boss", env.conf.AdminEmail, "", nil, true)

	// authentication is required
	req, rec := newRequest(http.MethodGet, "/v1/admin/users")
	env.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusUnauthorized,
		wantData: marshallObj(t, errMissingToken),
	}, rec)

	// only the configured admin email may list users
	req, rec = newAuthRequest(http.MethodGet, "/v1/admin/users", getToken(t, usr))
	env.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusUnauthorized,
		wantData: marshallObj(t, httpErr{Error: "user not authenticated"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodGet, "/v1/admin/users", getToken(t, admin))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AdminUsersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Users, 2)

	emails := []string{resp.Users[0].Email, resp.Users[1].Email}
	assert.ElementsMatch(t, []string{usr.Email, admin.Email}, emails)
}

func Test_adminApi_queryUsers_noAdminConfigured(t *testing.T) {
	env := setup(t)
	env.conf.AdminEmail = ""

	usr := createUser(t, env.usrRepo, "Student", "stu", "stu@test.cd", "", nil, true)

	req, rec := newAuthRequest(http.MethodGet, "/v1/admin/users", getToken(t, usr))
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_home(t *testing.T) {
	env := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Darasa API!", rec.Body.String())
}
