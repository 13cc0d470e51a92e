package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"journal/internal/authz"
	"journal/internal/config"
	"journal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlogScenario(t *testing.T) {
	for _, withRedis := range []bool{false, true} {
		t.Run(fmt.Sprintf("redis=%t", withRedis), func(t *testing.T) {
			env := newTestEnv(t, withRedis)

			res := env.register(t, "Alice", "alice@example.com", "pw1")
			require.Equal(t, http.StatusCreated, res.status, string(res.raw))
			user := res.body["user"].(map[string]any)
			assert.Equal(t, "admin", user["role"])
			assert.NotContains(t, string(res.raw), "pbkdf2", "credential never leaves the server")
			assert.Empty(t, res.header.Get("Set-Cookie"), "registration does not log in")

			token := env.login(t, "alice@example.com", "pw1")
			postID := env.createPost(t, token, "First post")
			require.Equal(t, uint(1), postID)

			// anonymous comment is rejected and nothing is stored
			res = env.do(t, http.MethodPost, "/api/posts/1/comments", map[string]string{"body": "sneaky"}, "")
			assert.Equal(t, http.StatusUnauthorized, res.status)
			assert.Equal(t, models.CodeUnauthorized, res.body["code"])

			res = env.do(t, http.MethodPost, "/api/posts/1/comments", map[string]string{"body": "hello"}, token)
			require.Equal(t, http.StatusCreated, res.status, string(res.raw))
			assert.Equal(t, "Alice", res.body["author_name"])

			res = env.do(t, http.MethodGet, "/api/posts/1", nil, "")
			require.Equal(t, http.StatusOK, res.status)
			assert.Equal(t, false, res.body["is_admin"])
			comments := res.body["comments"].([]any)
			require.Len(t, comments, 1)
			first := comments[0].(map[string]any)
			assert.Equal(t, "Alice", first["author_name"])
			assert.Equal(t, "hello", first["body"])
			post := res.body["post"].(map[string]any)
			assert.Equal(t, "Alice", post["author"].(map[string]any)["name"])
			assert.Equal(t, float64(1), post["comments_count"])

			res = env.do(t, http.MethodGet, "/api/posts/1", nil, token)
			assert.Equal(t, true, res.body["is_admin"])
		})
	}
}

func TestAuthEndpoints(t *testing.T) {
	env := newTestEnv(t, true)

	require.Equal(t, http.StatusCreated, env.register(t, "Alice", "alice@example.com", "pw1").status)

	t.Run("duplicate email points at login", func(t *testing.T) {
		res := env.register(t, "Alice again", "ALICE@example.com", "pw2")
		assert.Equal(t, http.StatusConflict, res.status)
		assert.Equal(t, models.CodeDuplicate, res.body["code"])
		assert.Equal(t, "/api/auth/login", res.body["redirect"])
	})

	t.Run("missing fields", func(t *testing.T) {
		res := env.register(t, "", "x@example.com", "pw")
		assert.Equal(t, http.StatusBadRequest, res.status)
		assert.Equal(t, "Name is required", res.body["error"])
	})

	t.Run("form encoded registration", func(t *testing.T) {
		res := env.doForm(t, http.MethodPost, "/api/auth/register", url.Values{
			"name": {"Bob"}, "email": {"bob@example.com"}, "password": {"pw2"},
		}, "")
		require.Equal(t, http.StatusCreated, res.status, string(res.raw))
		assert.Equal(t, "member", res.body["user"].(map[string]any)["role"])
	})

	t.Run("login failures", func(t *testing.T) {
		res := env.do(t, http.MethodPost, "/api/auth/login",
			map[string]string{"email": "nobody@example.com", "password": "pw1"}, "")
		assert.Equal(t, http.StatusUnauthorized, res.status)
		assert.Equal(t, "The email is invalid", res.body["error"])

		res = env.do(t, http.MethodPost, "/api/auth/login",
			map[string]string{"email": "alice@example.com", "password": "wrong"}, "")
		assert.Equal(t, http.StatusUnauthorized, res.status)
		assert.Equal(t, "The password is incorrect", res.body["error"])
	})

	t.Run("cookie session and logout", func(t *testing.T) {
		res := env.do(t, http.MethodPost, "/api/auth/login",
			map[string]string{"email": "alice@example.com", "password": "pw1"}, "")
		require.Equal(t, http.StatusOK, res.status)
		setCookie := res.header.Get("Set-Cookie")
		require.Contains(t, setCookie, "journal_session=")
		assert.Contains(t, strings.ToLower(setCookie), "httponly")

		cookie := strings.SplitN(setCookie, ";", 2)[0]
		me := func() map[string]any {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			req.Header.Set("Cookie", cookie)
			return env.send(t, req).body
		}

		body := me()
		assert.Equal(t, true, body["authenticated"])
		assert.Equal(t, true, body["is_admin"])
		assert.Equal(t, "Alice", body["user"].(map[string]any)["name"])

		req := httptest.NewRequest(http.MethodGet, "/api/auth/logout", nil)
		req.Header.Set("Cookie", cookie)
		out := env.send(t, req)
		assert.Equal(t, http.StatusOK, out.status)
		assert.Contains(t, out.header.Get("Set-Cookie"), "journal_session=;")

		assert.Equal(t, false, me()["authenticated"])
	})

	t.Run("logout without a session still succeeds", func(t *testing.T) {
		res := env.do(t, http.MethodPost, "/api/auth/logout", nil, "")
		assert.Equal(t, http.StatusOK, res.status)
		res = env.do(t, http.MethodPost, "/api/auth/logout", nil, "not-a-token")
		assert.Equal(t, http.StatusOK, res.status)
	})

	t.Run("garbage token is anonymous", func(t *testing.T) {
		res := env.do(t, http.MethodGet, "/api/auth/me", nil, "garbage")
		assert.Equal(t, http.StatusOK, res.status)
		assert.Equal(t, false, res.body["authenticated"])
	})
}

func TestLogoutWithSessionStoreDown(t *testing.T) {
	env := newTestEnv(t, true)
	require.Equal(t, http.StatusCreated, env.register(t, "Alice", "alice@example.com", "pw1").status)
	token := env.login(t, "alice@example.com", "pw1")

	env.mr.Close()

	res := env.do(t, http.MethodGet, "/api/auth/me", nil, token)
	assert.Equal(t, http.StatusInternalServerError, res.status)

	res = env.do(t, http.MethodPost, "/api/auth/logout", nil, token)
	assert.Equal(t, http.StatusOK, res.status, string(res.raw))
	assert.Contains(t, res.header.Get("Set-Cookie"), "journal_session=;")
	assert.Equal(t, "Logged out", res.body["message"])
}

func TestPostEndpoints(t *testing.T) {
	env := newTestEnv(t, false)

	require.Equal(t, http.StatusCreated, env.register(t, "Alice", "alice@example.com", "pw1").status)
	require.Equal(t, http.StatusCreated, env.register(t, "Bob", "bob@example.com", "pw2").status)
	admin := env.login(t, "alice@example.com", "pw1")
	member := env.login(t, "bob@example.com", "pw2")

	t.Run("non-admin cannot create", func(t *testing.T) {
		res := env.do(t, http.MethodPost, "/api/posts", map[string]string{
			"title": "Nope", "subtitle": "s", "body": "b", "img_url": "u",
		}, member)
		assert.Equal(t, http.StatusForbidden, res.status)
		assert.Equal(t, authz.ForbiddenMessage, res.body["error"])

		res = env.do(t, http.MethodGet, "/api/posts", nil, "")
		assert.Empty(t, res.body["posts"])
	})

	id := env.createPost(t, admin, "Hello")

	t.Run("duplicate title", func(t *testing.T) {
		res := env.do(t, http.MethodPost, "/api/posts", map[string]string{
			"title": "Hello", "subtitle": "s", "body": "b", "img_url": "u",
		}, admin)
		assert.Equal(t, http.StatusConflict, res.status)
	})

	t.Run("missing field", func(t *testing.T) {
		res := env.do(t, http.MethodPost, "/api/posts", map[string]string{"title": "Only title"}, admin)
		assert.Equal(t, http.StatusBadRequest, res.status)
	})

	t.Run("edit keeps author and date", func(t *testing.T) {
		before := env.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", id), nil, "").body["post"].(map[string]any)

		res := env.do(t, http.MethodPut, fmt.Sprintf("/api/posts/%d", id), map[string]string{
			"title": "Hello, edited", "subtitle": "s2", "body": "b2", "img_url": "u2",
		}, admin)
		require.Equal(t, http.StatusOK, res.status, string(res.raw))
		assert.Equal(t, "Hello, edited", res.body["title"])
		assert.Equal(t, before["date"], res.body["date"])
		assert.Equal(t, before["author_id"], res.body["author_id"])

		res = env.do(t, http.MethodPut, fmt.Sprintf("/api/posts/%d", id), map[string]string{
			"title": "x", "subtitle": "s", "body": "b", "img_url": "u",
		}, member)
		assert.Equal(t, http.StatusForbidden, res.status)

		res = env.do(t, http.MethodPut, "/api/posts/999", map[string]string{
			"title": "x", "subtitle": "s", "body": "b", "img_url": "u",
		}, admin)
		assert.Equal(t, http.StatusNotFound, res.status)
	})

	t.Run("list", func(t *testing.T) {
		res := env.do(t, http.MethodGet, "/api/posts", nil, admin)
		require.Equal(t, http.StatusOK, res.status)
		assert.Equal(t, true, res.body["is_admin"])
		assert.Len(t, res.body["posts"], 1)
	})

	t.Run("invalid id", func(t *testing.T) {
		res := env.do(t, http.MethodGet, "/api/posts/abc", nil, "")
		assert.Equal(t, http.StatusBadRequest, res.status)
		res = env.do(t, http.MethodGet, "/api/posts/999", nil, "")
		assert.Equal(t, http.StatusNotFound, res.status)
		assert.Equal(t, models.CodeNotFound, res.body["code"])
	})

	t.Run("comments", func(t *testing.T) {
		res := env.doForm(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", id),
			url.Values{"comment": {"from a form"}}, member)
		require.Equal(t, http.StatusCreated, res.status, string(res.raw))
		assert.Equal(t, "Bob", res.body["author_name"])

		res = env.do(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", id), map[string]string{"body": ""}, member)
		assert.Equal(t, http.StatusBadRequest, res.status)

		res = env.do(t, http.MethodPost, "/api/posts/999/comments", map[string]string{"body": "x"}, member)
		assert.Equal(t, http.StatusNotFound, res.status)

		res = env.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d/comments", id), nil, "")
		require.Equal(t, http.StatusOK, res.status)
		var list []map[string]any
		require.NoError(t, json.Unmarshal(res.raw, &list))
		require.Len(t, list, 1)
		assert.Equal(t, "from a form", list[0]["body"])
	})

	t.Run("delete", func(t *testing.T) {
		res := env.do(t, http.MethodDelete, fmt.Sprintf("/api/posts/%d", id), nil, member)
		assert.Equal(t, http.StatusForbidden, res.status)

		res = env.do(t, http.MethodDelete, fmt.Sprintf("/api/posts/%d", id), nil, admin)
		assert.Equal(t, http.StatusOK, res.status)

		res = env.do(t, http.MethodDelete, fmt.Sprintf("/api/posts/%d", id), nil, admin)
		assert.Equal(t, http.StatusNotFound, res.status)

		res = env.do(t, http.MethodGet, "/api/posts", nil, "")
		assert.Empty(t, res.body["posts"])
	})
}

func TestLegacyOpenPostEdits(t *testing.T) {
	env := newTestEnv(t, false, func(cfg *config.Config) { cfg.LegacyOpenPostEdits = true })

	require.Equal(t, http.StatusCreated, env.register(t, "Alice", "alice@example.com", "pw1").status)
	admin := env.login(t, "alice@example.com", "pw1")
	id := env.createPost(t, admin, "Open")

	res := env.do(t, http.MethodPut, fmt.Sprintf("/api/posts/%d", id), map[string]string{
		"title": "Edited anonymously", "subtitle": "s", "body": "b", "img_url": "u",
	}, "")
	assert.Equal(t, http.StatusOK, res.status)

	res = env.do(t, http.MethodPost, "/api/posts", map[string]string{
		"title": "x", "subtitle": "s", "body": "b", "img_url": "u",
	}, "")
	assert.Equal(t, http.StatusForbidden, res.status)

	res = env.do(t, http.MethodDelete, fmt.Sprintf("/api/posts/%d", id), nil, "")
	assert.Equal(t, http.StatusOK, res.status)
}
