package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/biblion/internal/config"
	"github.com/mrlokans/biblion/internal/database"
	"github.com/mrlokans/biblion/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testAuthConfig() config.Auth {
	return config.Auth{
		SessionLifetime:  24 * time.Hour,
		TokenExpiry:      time.Hour,
		BcryptCost:       bcrypt.MinCost,
		SecureCookies:    false,
		MaxLoginAttempts: 3,
		LockoutDuration:  time.Minute,
		LoginRate:        time.Minute,
		LoginBurst:       2,
	}
}

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewQuietDatabase(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func setupService(t *testing.T) (*Service, *database.Database) {
	t.Helper()
	db := setupTestDB(t)
	return NewService(db, testAuthConfig()), db
}

func createTestUser(t *testing.T, svc *Service, email string, role entities.UserRole) *entities.User {
	t.Helper()
	user, err := svc.CreateUser("Test "+string(role), email, "secret123", role)
	require.NoError(t, err)
	return user
}
