package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/biblion/internal/entities"
)

var csrfSecret = []byte("test-secret-key-32-bytes-long!!!")

func csrfRouter(svc *Service) *gin.Engine {
	router := gin.New()
	router.Use(CSRFMiddleware(csrfSecret, false, svc))
	router.GET("/api/auth/csrf", CSRFTokenHandler)
	router.POST("/api/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestCSRFMiddleware_AllowsGET(t *testing.T) {
	router := csrfRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/csrf", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])
}

func TestCSRFMiddleware_BlocksPOSTWithoutToken(t *testing.T) {
	router := csrfRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/test", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "CSRF token invalid or missing")
}

func TestCSRFMiddleware_AcceptsTokenRoundTrip(t *testing.T) {
	router := csrfRouter(nil)

	get := httptest.NewRequest(http.MethodGet, "/api/auth/csrf", nil)
	getRR := httptest.NewRecorder()
	router.ServeHTTP(getRR, get)
	require.Equal(t, http.StatusOK, getRR.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(getRR.Body.Bytes(), &body))

	post := httptest.NewRequest(http.MethodPost, "/api/test", nil)
	for _, cookie := range getRR.Result().Cookies() {
		post.AddCookie(cookie)
	}
	post.Header.Set(CSRFTokenHeader, body["token"])
	postRR := httptest.NewRecorder()
	router.ServeHTTP(postRR, post)

	assert.Equal(t, http.StatusOK, postRR.Code)
}

func TestCSRFMiddleware_SkipsValidBearer(t *testing.T) {
	svc, _ := setupService(t)
	user := createTestUser(t, svc, "bearer@example.com", entities.UserRoleUser)
	token, err := svc.GenerateToken(user.ID)
	require.NoError(t, err)

	router := csrfRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCSRFMiddleware_InvalidBearerStillChecked(t *testing.T) {
	svc, _ := setupService(t)
	router := csrfRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/test", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestGetCSRFToken_NoToken(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, GetCSRFToken(c))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"BeArEr abc", "abc", true},
		{"Basic dXNlcjpwYXNz", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, ok := bearerToken(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.token, token)
		})
	}
}
