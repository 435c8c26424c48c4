package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/biblion/internal/audit"
	"github.com/mrlokans/biblion/internal/auth"
)

// AuthController serves first-run setup, login and the caller's own account.
type AuthController struct {
	service  *auth.Service
	sessions *auth.SessionManager
	limiter  *auth.LoginLimiter
	audit    *audit.Service
}

func NewAuthController(service *auth.Service, sessions *auth.SessionManager, limiter *auth.LoginLimiter, auditService *audit.Service) *AuthController {
	return &AuthController{
		service:  service,
		sessions: sessions,
		limiter:  limiter,
		audit:    auditService,
	}
}

type SetupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// SetupStatus handles GET /api/setup/status
func (ac *AuthController) SetupStatus(c *gin.Context) {
	has, err := ac.service.HasUsers()
	if err != nil {
		respondInternalError(c, err, "setup status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"needs_setup": !has})
}

// Setup handles POST /api/setup
func (ac *AuthController) Setup(c *gin.Context) {
	var req SetupRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := ac.service.Setup(req.Name, req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err, "setup")
		return
	}
	if err := ac.sessions.CreateSession(c.Request, user); err != nil {
		respondInternalError(c, err, "setup session")
		return
	}
	ac.logAuth(c, user.ID, "setup", true)
	respondCreated(c, gin.H{"user": user})
}

// Login handles POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := ac.service.Authenticate(req.Email, req.Password)
	if err != nil {
		ac.logAuth(c, 0, "login_failed", false)
		respondServiceError(c, err, "login")
		return
	}
	if ac.limiter != nil {
		ac.limiter.Reset(c.ClientIP())
	}
	if err := ac.sessions.CreateSession(c.Request, user); err != nil {
		respondInternalError(c, err, "login session")
		return
	}
	ac.logAuth(c, user.ID, "login", true)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout handles POST /api/auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	userID := auth.GetUserID(c)
	if err := ac.sessions.DestroySession(c.Request); err != nil {
		respondInternalError(c, err, "logout")
		return
	}
	if userID != 0 {
		ac.logAuth(c, userID, "logout", true)
	}
	respondSuccess(c, "Logged out")
}

// Me handles GET /api/auth/me
func (ac *AuthController) Me(c *gin.Context) {
	user := auth.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":      user,
		"auth_type": auth.GetAuthType(c),
		"has_token": user.TokenHash != "",
	})
}

// ChangePassword handles POST /api/auth/password
func (ac *AuthController) ChangePassword(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := ac.service.ChangePassword(actor.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(c, err, "change password")
		return
	}
	ac.logAuth(c, actor.UserID, "password_change", true)
	respondSuccess(c, "Password changed")
}

// GenerateToken handles POST /api/auth/token
// The plaintext token is only ever returned here.
func (ac *AuthController) GenerateToken(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	token, err := ac.service.GenerateToken(actor.UserID)
	if err != nil {
		respondServiceError(c, err, "generate token")
		return
	}
	ac.logAuth(c, actor.UserID, "token_generate", true)
	respondCreated(c, gin.H{"token": token})
}

// RevokeToken handles DELETE /api/auth/token
func (ac *AuthController) RevokeToken(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if err := ac.service.RevokeToken(actor.UserID); err != nil {
		respondServiceError(c, err, "revoke token")
		return
	}
	ac.logAuth(c, actor.UserID, "token_revoke", true)
	respondSuccess(c, "Token revoked")
}

func (ac *AuthController) logAuth(c *gin.Context, userID uint, action string, success bool) {
	if ac.audit == nil {
		return
	}
	ac.audit.LogAuth(userID, action, c.ClientIP(), c.Request.UserAgent(), success)
}
