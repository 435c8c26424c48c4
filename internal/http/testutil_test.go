package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/biblion/internal/audit"
	"github.com/mrlokans/biblion/internal/auth"
	"github.com/mrlokans/biblion/internal/backup"
	"github.com/mrlokans/biblion/internal/config"
	"github.com/mrlokans/biblion/internal/database"
	auditrepo "github.com/mrlokans/biblion/internal/database/audit"
	"github.com/mrlokans/biblion/internal/entities"
	"github.com/mrlokans/biblion/internal/scheduler"
	"github.com/mrlokans/biblion/internal/services"
	"github.com/mrlokans/biblion/internal/settingsstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewQuietDatabase(filepath.Join(t.TempDir(), "biblion.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testAuthConfig() config.Auth {
	return config.Auth{
		SessionLifetime:  time.Hour,
		TokenExpiry:      time.Hour,
		BcryptCost:       bcrypt.MinCost,
		MaxLoginAttempts: 5,
		LockoutDuration:  time.Minute,
		LoginRate:        time.Minute,
		LoginBurst:       5,
	}
}

const testPassword = "secret123"

// testServer is the full router backed by a temporary database, with one
// admin and one regular user who both hold API tokens.
type testServer struct {
	t      *testing.T
	router *gin.Engine
	db     *database.Database
	auth   *auth.Service
	store  *settingsstore.SettingsStore

	admin      *entities.User
	adminToken string
	user       *entities.User
	userToken  string
}

type serverOption func(*RouterConfig)

func withCSRF(cfg *RouterConfig) {
	cfg.CSRFSecret = []byte("0123456789abcdef0123456789abcdef")
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	db := newTestDB(t)
	authCfg := testAuthConfig()

	authService := auth.NewService(db, authCfg)
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sessions, err := auth.NewSessionManager(sqlDB, authCfg)
	require.NoError(t, err)
	limiter := auth.NewLoginLimiter(authCfg.LoginRate, authCfg.LoginBurst)
	t.Cleanup(limiter.Stop)

	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	// Runs before the database is closed.
	t.Cleanup(auditService.Wait)

	store := settingsstore.New(db.DB)
	backups := scheduler.NewBackupScheduler(backup.NewService(db.Path, store), store, auditService)
	t.Cleanup(backups.Stop)

	cfg := RouterConfig{
		Database:        db,
		Audit:           auditService,
		Version:         "test",
		AuthService:     authService,
		SessionManager:  sessions,
		LoginLimiter:    limiter,
		Books:           services.NewBookService(db.DB, nil, nil, nil),
		Reading:         services.NewReadingTracker(db.DB, nil),
		Loans:           services.NewLoanManager(db.DB, entities.DefaultLoanPeriod),
		Categories:      services.NewCategoryService(db.DB),
		Locations:       services.NewLocationService(db.DB),
		Authors:         services.NewAuthorService(db.DB, nil, nil),
		Rewards:         services.NewRewards(db.DB),
		Stats:           services.NewStatsService(db.DB),
		SettingsStore:   store,
		BackupScheduler: backups,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ts := &testServer{
		t:      t,
		router: NewRouter(cfg),
		db:     db,
		auth:   authService,
		store:  store,
	}
	ts.admin, ts.adminToken = ts.createUser("Admin", "admin@example.com", entities.UserRoleAdmin)
	ts.user, ts.userToken = ts.createUser("Reader", "reader@example.com", entities.UserRoleUser)
	return ts
}

func (ts *testServer) createUser(name, email string, role entities.UserRole) (*entities.User, string) {
	ts.t.Helper()
	user, err := ts.auth.CreateUser(name, email, testPassword, role)
	require.NoError(ts.t, err)
	token, err := ts.auth.GenerateToken(user.ID)
	require.NoError(ts.t, err)
	return user, token
}

// do sends a JSON request authenticated with token; an empty token sends an
// anonymous request.
func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) createBook(token string, in map[string]any) entities.Book {
	ts.t.Helper()
	w := ts.do(http.MethodPost, "/api/books", token, in)
	require.Equal(ts.t, http.StatusCreated, w.Code, w.Body.String())
	var book entities.Book
	decode(ts.t, w, &book)
	return book
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decode(t, w, &resp)
	return resp.Error
}
