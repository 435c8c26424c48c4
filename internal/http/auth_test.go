package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/biblion/internal/auth"
)

// browser replays cookies between requests like a cookie jar would.
type browser struct {
	ts      *testServer
	cookies map[string]*http.Cookie
	csrf    string
}

func newBrowser(ts *testServer) *browser {
	return &browser{ts: ts, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(method, path string, body any) *httptest.ResponseRecorder {
	b.ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(b.ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.csrf != "" {
		req.Header.Set(auth.CSRFTokenHeader, b.csrf)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	b.ts.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return w
}

func (b *browser) fetchCSRF() {
	b.ts.t.Helper()
	w := b.do(http.MethodGet, "/api/auth/csrf", nil)
	require.Equal(b.ts.t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
	}
	decode(b.ts.t, w, &resp)
	require.NotEmpty(b.ts.t, resp.Token)
	b.csrf = resp.Token
}

func TestAuth_RequiresAuthentication(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/books", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authentication required", errorMessage(t, w))

	w = ts.do(http.MethodGet, "/api/books", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_RequiresAdmin(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/admin/users", "/api/admin/audit", "/api/loans"} {
		w := ts.do(http.MethodGet, path, ts.userToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
		assert.Equal(t, "Admin access required", errorMessage(t, w), path)
	}

	w := ts.do(http.MethodGet, "/api/admin/users", ts.adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_Setup(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/setup/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"needs_setup": false}`, w.Body.String())

	w = ts.do(http.MethodPost, "/api/setup", "", map[string]any{
		"name": "Late", "email": "late@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Setup has already been completed.", errorMessage(t, w))
}

func TestAuth_LoginFailure(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "reader@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", errorMessage(t, w))

	w = ts.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "reader@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuth_SessionFlowWithCSRF(t *testing.T) {
	ts := newTestServer(t, withCSRF)
	b := newBrowser(ts)

	t.Run("login without a CSRF token is rejected", func(t *testing.T) {
		w := b.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "reader@example.com", "password": testPassword})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	b.fetchCSRF()

	w := b.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "READER@example.com", "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, b.cookies, auth.SessionCookieName)

	t.Run("session identifies the user", func(t *testing.T) {
		w := b.do(http.MethodGet, "/api/auth/me", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			User struct {
				Email string `json:"email"`
			} `json:"user"`
			AuthType string `json:"auth_type"`
		}
		decode(t, w, &resp)
		assert.Equal(t, "reader@example.com", resp.User.Email)
		assert.Equal(t, "session", resp.AuthType)
	})

	t.Run("session writes need the CSRF token", func(t *testing.T) {
		w := b.do(http.MethodPost, "/api/books", map[string]any{"title": "Dune", "author": "Frank Herbert"})
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		token := b.csrf
		b.csrf = ""
		w = b.do(http.MethodPost, "/api/books", map[string]any{"title": "Emma", "author": "Jane Austen"})
		assert.Equal(t, http.StatusForbidden, w.Code)
		b.csrf = token
	})

	t.Run("bearer requests skip CSRF", func(t *testing.T) {
		w := ts.do(http.MethodPost, "/api/books", ts.adminToken, map[string]any{"title": "Emma", "author": "Jane Austen"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("logout ends the session", func(t *testing.T) {
		w := b.do(http.MethodPost, "/api/auth/logout", nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = b.do(http.MethodGet, "/api/auth/me", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuth_TokenLifecycle(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/auth/token", ts.userToken, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)

	// Generating a token replaces the previous one.
	w = ts.do(http.MethodGet, "/api/auth/me", ts.userToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = ts.do(http.MethodGet, "/api/auth/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"auth_type":"bearer"`)
	assert.Contains(t, w.Body.String(), `"has_token":true`)

	w = ts.do(http.MethodDelete, "/api/auth/token", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(http.MethodGet, "/api/auth/me", resp.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ChangePassword(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/auth/password", ts.userToken, map[string]any{
		"current_password": "nope", "new_password": "another-secret",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Current password is incorrect", errorMessage(t, w))

	w = ts.do(http.MethodPost, "/api/auth/password", ts.userToken, map[string]any{
		"current_password": testPassword, "new_password": "another-secret",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, err := ts.auth.Authenticate("reader@example.com", "another-secret")
	assert.NoError(t, err)
}
