package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/user"
)

func Test_userApi_login(t *testing.T) {
	env := setup(t)

	usr := createUser(t, env.usrRepo, "Awe", "awe", "awe@test.cd", "s3cret!pwd", nil, true)
	frozen := createUser(t, env.usrRepo, "Frozen", "frozen", "frozen@test.cd", "s3cret!pwd", nil, false)

	tests := []httpTest{
		{
			name: "empty credentials", method: http.MethodPost, path: "/v1/users/login",
			body:     marshallObj(t, LoginRequest{}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/v1/users/login",
			body:     marshallObj(t, LoginRequest{Username: "ghost", Password: "s3cret!pwd"}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body:     marshallObj(t, LoginRequest{Username: usr.Username, Password: "nope"}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", method: http.MethodPost, path: "/v1/users/login",
			body:     marshallObj(t, LoginRequest{Username: frozen.Username, Password: "s3cret!pwd"}),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// login by username and by email both work
	for _, uname := range []string{usr.Username, usr.Email} {
		req, rec := newRequest(http.MethodPost, "/v1/users/login", marshallObj(t, LoginRequest{Username: uname, Password: "s3cret!pwd"}))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)

		// the token is accepted on authed endpoints
		req, rec = newAuthRequest(http.MethodGet, "/v1/me/attempts", resp.Token)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func Test_userApi_tokenRefresh(t *testing.T) {
	env := setup(t)

	usr := createUser(t, env.usrRepo, "Awe", "awe", "awe@test.cd", "", nil, true)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
}

func Test_userApi_query_adminOnly(t *testing.T) {
	env := setup(t)

	student := createUser(t, env.usrRepo, "Student", "stu", "stu@test.cd", "", nil, true)
	admin := createUser(t, env.usrRepo, "Boss", "boss", "boss@test.cd", "", user.AllRoles, true)

	req, rec := newAuthRequest(http.MethodGet, "/v1/users", getToken(t, student))
	env.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marshallObj(t, httpErr{Error: "permission denied"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodGet, "/v1/users", getToken(t, admin))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var users []user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 2)
}
