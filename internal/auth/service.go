package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/biblion/internal/config"
	"github.com/mrlokans/biblion/internal/database"
	"github.com/mrlokans/biblion/internal/database/users"
	"github.com/mrlokans/biblion/internal/entities"
	"github.com/mrlokans/biblion/internal/services"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrUserNotFound       = services.NotFound("User not found")
	ErrUserExists         = services.Conflict("A user with this email already exists")
	ErrInvalidCredentials = services.Unauthorized("Invalid email or password")
	ErrInvalidToken       = services.Unauthorized("Invalid token")
	ErrTokenExpired       = services.Unauthorized("Token expired")
	ErrAccountLocked      = services.Unauthorized("Account is locked due to too many failed login attempts")
	ErrInvalidRole        = services.Validation("Invalid role")
	ErrEmailInvalid       = services.Validation("Invalid email format")
	ErrFieldsRequired     = services.Validation("All fields are required.")
	ErrCredentialsMissing = services.Validation("Email and Password required")
	ErrSetupCompleted     = services.Forbidden("Setup has already been completed.")
)

// Service handles authentication and account management.
type Service struct {
	db     *gorm.DB
	seeder *database.Database
	users  *users.Repository
	config config.Auth

	// setupMu serializes first-run setup so two concurrent requests cannot
	// both create the first admin.
	setupMu sync.Mutex
}

// NewService creates a new authentication service.
func NewService(db *database.Database, cfg config.Auth) *Service {
	return &Service{
		db:     db.DB,
		seeder: db,
		users:  users.NewRepository(db.DB),
		config: cfg,
	}
}

// Setup creates the first administrator and seeds the default categories.
// It fails once any user exists.
func (s *Service) Setup(name, email, password string) (*entities.User, error) {
	s.setupMu.Lock()
	defer s.setupMu.Unlock()

	has, err := s.HasUsers()
	if err != nil {
		return nil, err
	}
	if has {
		return nil, ErrSetupCompleted
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrFieldsRequired
	}

	user, err := s.CreateUser(name, email, password, entities.UserRoleAdmin)
	if err != nil {
		return nil, err
	}
	if _, err := s.seeder.SeedDefaultCategories(); err != nil {
		return nil, fmt.Errorf("failed to seed categories: %w", err)
	}
	return user, nil
}

// CreateUser creates a new user with password authentication.
func (s *Service) CreateUser(name, email, password string, role entities.UserRole) (*entities.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrCredentialsMissing
	}
	// RFC 5321 caps addresses at 254 characters
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}
	if role == "" {
		role = entities.UserRoleUser
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	_, err := s.users.GetUserByEmail(email)
	if err == nil {
		return nil, ErrUserExists
	}
	if !database.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Level:        1,
	}
	if err := s.db.Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate validates credentials and returns the user.
// Implements account lockout after too many failed attempts.
func (s *Service) Authenticate(email, password string) (*entities.User, error) {
	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.LockedUntil != nil && time.Now().Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			s.recordFailedLogin(user)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := time.Now()
	err = s.db.Model(user).Updates(map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	return user, nil
}

// recordFailedLogin increments the failed login counter and locks the account if threshold reached.
func (s *Service) recordFailedLogin(user *entities.User) {
	user.FailedLoginCount++
	updates := map[string]any{
		"failed_login_count": user.FailedLoginCount,
	}

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = config.DefaultMaxLoginAttempts
	}
	if user.FailedLoginCount >= maxAttempts {
		lockout := s.config.LockoutDuration
		if lockout == 0 {
			lockout = config.DefaultLockoutDuration
		}
		lockedUntil := time.Now().Add(lockout)
		updates["locked_until"] = lockedUntil
		user.LockedUntil = &lockedUntil
	}

	s.db.Model(user).Updates(updates)
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	user, err := s.users.GetUserByID(id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ValidateToken checks a plaintext token and returns the associated user.
// Returns ErrTokenExpired if the token is past its expiry time.
func (s *Service) ValidateToken(token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	var user entities.User
	err := s.db.Where("token_hash = ?", HashToken(token)).First(&user).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if s.config.TokenExpiry > 0 && user.TokenCreatedAt != nil {
		if time.Since(*user.TokenCreatedAt) > s.config.TokenExpiry {
			return nil, ErrTokenExpired
		}
	}
	return &user, nil
}

// GenerateToken creates a new API token for a user, replacing any previous one.
// Returns the plaintext token (show to user once) - only the hash is stored in DB.
func (s *Service) GenerateToken(userID uint) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	result := s.db.Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"token_hash":       hash,
		"token_created_at": time.Now(),
	})
	if result.Error != nil {
		return "", fmt.Errorf("failed to save token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", ErrUserNotFound
	}
	return plaintext, nil
}

// RevokeToken removes a user's API token.
func (s *Service) RevokeToken(userID uint) error {
	result := s.db.Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"token_hash":       "",
		"token_created_at": nil,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to revoke token: %w", result.Error)
	}
	return nil
}

// ChangePassword updates a user's password after verifying the current one.
func (s *Service) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(oldPassword, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return services.Validation("Current password is incorrect")
		}
		return err
	}
	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePasswordHash(user.ID, newHash)
}

// HasUsers returns true if any users exist in the database.
func (s *Service) HasUsers() (bool, error) {
	return s.seeder.HasUsers()
}
