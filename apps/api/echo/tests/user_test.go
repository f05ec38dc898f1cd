package tests

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/testutil"
)

func Test_userApi_query(t *testing.T) {
	env := setup(t)
	repo := env.repos.Users

	path := func(search, ordering string, isInstructor, isActive *bool) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isInstructor != nil {
			v.Add("is_instructor", boolStr(*isInstructor))
		}
		if isActive != nil {
			v.Add("is_active", boolStr(*isActive))
		}
		return "/api/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	usr1 := testutil.CreateUser(t, repo, "awe", "awe@test.cd", "", false, false, true)
	usr2 := testutil.CreateUser(t, repo, "user02", "king@test.cd", "", false, false, true)
	student := testutil.CreateUser(t, repo, "hero", "user3@test.cd", "", false, false, true)
	admin := testutil.CreateUser(t, repo, "admin", "admin@test.cd", "", false, true, true)
	teacher := testutil.CreateUser(t, repo, "teacher", "teacher@test.cd", "", true, false, true)
	naughty := testutil.CreateUser(t, repo, "ndog", "ndog@test.cd", "", false, false, false) // 😂

	adminToken := getToken(t, env.conf, admin)

	env.run(t, []httpTest{
		{name: "Auth required", path: "/api/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/api/users", token: getToken(t, env.conf, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Admin required (instructor)", path: "/api/users", token: getToken(t, env.conf, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Get all", path: "/api/users", token: adminToken,
			wantData: marchallList(t, usr1, usr2, student, admin, teacher, naughty),
		},
		// filtering
		{name: "search (unknown)", path: path("lol", "", nil, nil), token: adminToken, wantData: marchallList(t)},
		{name: "search=USE", path: path("USE", "", nil, nil), token: adminToken, wantData: marchallList(t, usr2, student)},
		{name: "search=king@", path: path("king@", "", nil, nil), token: adminToken, wantData: marchallList(t, usr2)},
		{name: "is_instructor=true", path: path("", "", bPtr(true), nil), token: adminToken, wantData: marchallList(t, teacher)},
		{name: "is_active=false", path: path("", "", nil, bPtr(false)), token: adminToken, wantData: marchallList(t, naughty)},
		{name: "all combo (empty)", path: path("tea", "", bPtr(true), bPtr(false)), token: adminToken, wantData: marchallList(t)},
		// ordering
		{
			name: "order by username", path: path("", "username", nil, nil), token: adminToken,
			wantData: marchallList(t, admin, usr1, student, naughty, teacher, usr2),
		},
		{
			name: "order by -date_joined,-id", path: path("", "-date_joined,-id", nil, nil), token: adminToken,
			wantData: marchallList(t, naughty, teacher, admin, student, usr2, usr1),
		},
		{
			name: "unknown ordering fields are ignored", path: path("", "password_hash", nil, nil), token: adminToken,
			wantData: marchallList(t, usr1, usr2, student, admin, teacher, naughty),
		},
	})
}

func Test_userApi_crud(t *testing.T) {
	env := setup(t)
	repo := env.repos.Users

	admin := testutil.CreateUser(t, repo, "admin", "admin@test.cd", "", false, true, true)
	usr := testutil.CreateUser(t, repo, "awe", "awe@test.cd", "", false, false, true)
	other := testutil.CreateUser(t, repo, "other", "", "", false, false, true)
	adminToken := getToken(t, env.conf, admin)

	t.Run("create", func(t *testing.T) {
		body := `{"username": " NewUser ", "email": "new@test.cd", "password": "pwd", "is_instructor": true}`
		req, rec := newAuthRequest(http.MethodPost, "/api/users", adminToken, []byte(body))
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got user.User
		decode(t, rec, &got)
		assert.Equal(t, "newuser", got.Username)
		assert.True(t, got.IsInstructor)
		assert.True(t, got.IsActive)
		assert.NotContains(t, rec.Body.String(), "password")
	})

	env.run(t, []httpTest{
		{
			name: "create: duplicate username", method: http.MethodPost, path: "/api/users", token: adminToken,
			body: []byte(`{"username": "AWE", "password": "pwd"}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"username": "a user with that username already exists"}`),
		},
		{
			name: "create: invalid", method: http.MethodPost, path: "/api/users", token: adminToken,
			body: []byte(`{"username": "no spaces!", "email": "lol"}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{
				"username": "enter a valid username; it may contain only letters, numbers, and @/./+/-/_ characters",
				"email": "email must be a valid email address",
				"password": "this field is required"
			}`),
		},
		{name: "retrieve", path: "/api/users/" + itoa(usr.ID), token: adminToken, wantData: marchallObj(t, usr)},
		{
			name: "retrieve: not found", path: "/api/users/999", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
		{
			name: "retrieve: admin required", path: "/api/users/" + itoa(usr.ID), token: getToken(t, env.conf, usr),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "PUT requires username", method: http.MethodPut, path: "/api/users/" + itoa(usr.ID), token: adminToken,
			body: []byte(`{"is_active": false}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"username": "this field is required"}`),
		},
		{
			name: "PATCH: username taken", method: http.MethodPatch, path: "/api/users/" + itoa(usr.ID), token: adminToken,
			body: []byte(`{"username": "other"}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"username": "a user with that username already exists"}`),
		},
		{
			name: "cannot delete self", method: http.MethodDelete, path: "/api/users/" + itoa(admin.ID), token: adminToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "delete", method: http.MethodDelete, path: "/api/users/" + itoa(other.ID), token: adminToken, wantCode: http.StatusNoContent},
		{name: "delete: missing", method: http.MethodDelete, path: "/api/users/" + itoa(other.ID), token: adminToken, wantCode: http.StatusNoContent},
	})

	t.Run("PATCH keeps the other fields", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, "/api/users/"+itoa(usr.ID), adminToken, []byte(`{"is_instructor": true}`))
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got, err := repo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
		require.NoError(t, err)
		assert.True(t, got.IsInstructor)
		assert.Equal(t, usr.Username, got.Username)
		assert.Equal(t, usr.Email, got.Email)
		assert.True(t, got.IsActive)
	})
}

func Test_userApi_register(t *testing.T) {
	env := setup(t)
	testutil.CreateUser(t, env.repos.Users, "taken", "", "", false, false, true)

	env.run(t, []httpTest{
		{
			name: "missing fields", method: http.MethodPost, path: "/api/auth/register", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"username": "this field is required", "password": "this field is required"}`),
		},
		{
			name: "username taken", method: http.MethodPost, path: "/api/auth/register",
			body:     []byte(`{"username": "Taken", "password": "p@ss"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"username": "a user with that username already exists"}`),
		},
	})

	t.Run("register then login", func(t *testing.T) {
		env.mailSvc.Reset()
		body := `{"username": "alice", "email": "alice@test.cd", "password": "p@ss", "is_instructor": true, "is_admin": true}`
		req, rec := newRequest(http.MethodPost, "/api/auth/register", []byte(body))
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp echoapi.LoginResponse
		decode(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)

		usr, err := env.repos.Users.GetUser(context.Background(), user.GetFilter{Username: "alice"})
		require.NoError(t, err)
		assert.True(t, usr.IsInstructor)
		assert.False(t, usr.IsAdmin, "admins cannot be registered")
		assert.NotEqual(t, []byte("p@ss"), usr.PasswordHash)

		sent := env.mailSvc.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "alice@test.cd", sent[0].To[0].Address)
		assert.Contains(t, sent[0].TextContent, "alice")

		// the registration token is usable
		req, rec = newAuthRequest(http.MethodGet, "/api/courses", resp.Token)
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		req, rec = newRequest(http.MethodPost, "/api/auth/login", []byte(`{"username": "alice", "password": "p@ss"}`))
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &resp)

		// so is the login one
		req, rec = newAuthRequest(http.MethodPost, "/api/courses", resp.Token, []byte(`{"title": "Go", "description": "Learn Go"}`))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("no email, no welcome message", func(t *testing.T) {
		env.mailSvc.Reset()
		req, rec := newRequest(http.MethodPost, "/api/auth/register", []byte(`{"username": "bob", "password": "pwd"}`))
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Empty(t, env.mailSvc.Sent())
	})
}

func Test_userApi_login(t *testing.T) {
	env := setup(t)
	repo := env.repos.Users

	usr := testutil.CreateUser(t, repo, "awe", "awe@test.cd", "Pwd.1234", false, false, true)
	testutil.CreateUser(t, repo, "ndog", "ndog@test.cd", "Pwd.1234", false, false, false)

	failed := marchallObj(t, httpErr{Error: "unable to log in with provided credentials"})
	login := func(uname, pwd string) []byte {
		return []byte(`{"username": "` + uname + `", "password": "` + pwd + `"}`)
	}

	env.run(t, []httpTest{
		{
			name: "missing fields", method: http.MethodPost, path: "/api/auth/login", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"username": "this field is required", "password": "this field is required"}`),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/api/auth/login", body: login("lol", "Pwd.1234"),
			wantCode: http.StatusUnauthorized, wantData: failed,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/api/auth/login", body: login("awe", "lol"),
			wantCode: http.StatusUnauthorized, wantData: failed,
		},
		{
			name: "inactive user", method: http.MethodPost, path: "/api/auth/login", body: login("ndog", "Pwd.1234"),
			wantCode: http.StatusUnauthorized, wantData: failed,
		},
	})

	t.Run("success", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/login", login(" AWE ", "Pwd.1234"))
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp echoapi.LoginResponse
		decode(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)

		got, err := repo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
		require.NoError(t, err)
		assert.True(t, got.LastLogin.Valid)
		assert.WithinDuration(t, time.Now(), got.LastLogin.Time, time.Minute)
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	env := setup(t)
	repo := env.repos.Users

	usr := testutil.CreateUser(t, repo, "awe", "awe@test.cd", "", false, false, true)
	naughty := testutil.CreateUser(t, repo, "ndog", "ndog@test.cd", "", false, false, false)

	// build a token whose refresh delay has expired
	claims := echoapi.GetUserClaims(usr, env.conf, time.Now().Add(-2*env.conf.Server.JWTRefreshExpirationDelta).Unix())
	unrefreshable, err := echoapi.GenerateToken(claims, env.conf)
	require.NoError(t, err)

	env.run(t, []httpTest{
		{name: "Auth required", method: http.MethodPost, path: "/api/auth/token-refresh", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "invalid token", method: http.MethodPost, path: "/api/auth/token-refresh", token: "lol",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name: "account deactivated", method: http.MethodPost, path: "/api/auth/token-refresh", token: getToken(t, env.conf, naughty),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "refresh expired", method: http.MethodPost, path: "/api/auth/token-refresh", token: unrefreshable,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
	})

	t.Run("success", func(t *testing.T) {
		origIat := time.Now().Add(-time.Hour).Unix()
		token, err := echoapi.GenerateToken(echoapi.GetUserClaims(usr, env.conf, origIat), env.conf)
		require.NoError(t, err)

		req, rec := newAuthRequest(http.MethodPost, "/api/auth/token-refresh", token)
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp echoapi.LoginResponse
		decode(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.NotEqual(t, token, resp.Token)
	})
}

func Test_authUserMiddleware(t *testing.T) {
	env := setup(t)
	repo := env.repos.Users

	usr := testutil.CreateUser(t, repo, "awe", "", "", false, false, true)
	gone := testutil.CreateUser(t, repo, "gone", "", "", false, false, true)
	naughty := testutil.CreateUser(t, repo, "ndog", "", "", false, false, false)
	goneToken := getToken(t, env.conf, gone)
	_, err := repo.DeleteUsersByID(context.Background(), gone.ID)
	require.NoError(t, err)

	unauthenticated := marchallObj(t, httpErr{Error: "user not authenticated"})
	env.run(t, []httpTest{
		{name: "no token", path: "/api/courses", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "active user", path: "/api/courses", token: getToken(t, env.conf, usr), wantData: marchallList(t)},
		{name: "deleted user", path: "/api/courses", token: goneToken, wantCode: http.StatusUnauthorized, wantData: unauthenticated},
		{
			name: "deactivated user", path: "/api/lessons", token: getToken(t, env.conf, naughty),
			wantCode: http.StatusUnauthorized, wantData: unauthenticated,
		},
	})
}

func Test_throttleMiddleware(t *testing.T) {
	env := setup(t, newThrottlerMock(2))
	testutil.CreateUser(t, env.repos.Users, "awe", "", "Pwd.1234", false, false, true)

	body := []byte(`{"username": "awe", "password": "lol"}`)
	for i := 0; i < 2; i++ {
		req, rec := newRequest(http.MethodPost, "/api/auth/login", body)
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	req, rec := newRequest(http.MethodPost, "/api/auth/login", body)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.True(t, strings.Contains(rec.Body.String(), "too many attempts"))

	// other endpoints are not throttled
	req, rec = newRequest(http.MethodPost, "/api/auth/register", []byte(`{"username": "bob", "password": "pwd"}`))
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
