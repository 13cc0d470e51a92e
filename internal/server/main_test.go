package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"journal/internal/config"
	"journal/internal/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		Env:                "test",
		DBDriver:           "sqlite",
		DBDSN:              ":memory:",
		SessionSecret:      "test-secret-test-secret-test-secret",
		SessionStore:       "auto",
		SessionCookieName:  "journal_session",
		PasswordIterations: 1000,
		PasswordSaltLength: 8,
		AllowedOrigins:     "http://localhost:5000",
	}
}

type testEnv struct {
	server *Server
	app    *fiber.App
	mr     *miniredis.Miniredis
}

// newTestEnv builds a server over in-memory SQLite. withRedis adds a
// miniredis instance for sessions and the post cache. opts adjust the
// config before the server is built.
func newTestEnv(t *testing.T, withRedis bool, opts ...func(*config.Config)) *testEnv {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)

	env := &testEnv{}
	var client *redis.Client
	if withRedis {
		env.mr = miniredis.RunT(t)
		client = redis.NewClient(&redis.Options{Addr: env.mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
	}

	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	s, err := NewServerWithDeps(cfg, db, client)
	require.NoError(t, err)
	env.server = s
	env.app = s.newApp()
	return env
}

type response struct {
	status int
	header http.Header
	body   map[string]any
	raw    []byte
}

// do sends a JSON request (body may be nil) with an optional bearer token.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(t, req)
}

// doForm sends an urlencoded form, the way an HTML form would.
func (e *testEnv) doForm(t *testing.T, method, path string, form url.Values, token string) response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := response{status: resp.StatusCode, header: resp.Header, raw: raw}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) && len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out.body))
	}
	return out
}

// register and login are shorthands for the common auth calls.
func (e *testEnv) register(t *testing.T, name, email, password string) response {
	t.Helper()
	return e.do(t, http.MethodPost, "/api/auth/register",
		map[string]string{"name": name, "email": email, "password": password}, "")
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	res := e.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	token, _ := res.body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (e *testEnv) createPost(t *testing.T, token, title string) uint {
	t.Helper()
	res := e.do(t, http.MethodPost, "/api/posts", map[string]string{
		"title":    title,
		"subtitle": "sub",
		"body":     "body",
		"img_url":  "https://img.example/x.png",
	}, token)
	require.Equal(t, http.StatusCreated, res.status, string(res.raw))
	return uint(res.body["id"].(float64))
}
