package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/biblion/internal/audit"
	"github.com/mrlokans/biblion/internal/auth"
	"github.com/mrlokans/biblion/internal/entities"
)

// UsersController handles account administration. All routes are admin only.
type UsersController struct {
	service *auth.Service
	audit   *audit.Service
}

func NewUsersController(service *auth.Service, auditService *audit.Service) *UsersController {
	return &UsersController{service: service, audit: auditService}
}

type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type RoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type PasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// List handles GET /api/admin/users
func (uc *UsersController) List(c *gin.Context) {
	list, err := uc.service.ListUsers()
	if err != nil {
		respondServiceError(c, err, "list users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list, "count": len(list)})
}

// Create handles POST /api/admin/users
func (uc *UsersController) Create(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := uc.service.CreateUser(req.Name, req.Email, req.Password, entities.UserRole(req.Role))
	if err != nil {
		respondServiceError(c, err, "create user")
		return
	}
	uc.logAdmin(actor.UserID, "user_create", user.ID, fmt.Sprintf("Created user %s (%s)", user.Email, user.Role))
	respondCreated(c, user)
}

// UpdateRole handles PUT /api/admin/users/:id/role
func (uc *UsersController) UpdateRole(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req RoleRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := uc.service.UpdateRole(id, entities.UserRole(req.Role))
	if err != nil {
		respondServiceError(c, err, "update role")
		return
	}
	uc.logAdmin(actor.UserID, "user_role", user.ID, fmt.Sprintf("Changed role of %s to %s", user.Email, user.Role))
	c.JSON(http.StatusOK, user)
}

// ResetPassword handles PUT /api/admin/users/:id/password
func (uc *UsersController) ResetPassword(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req PasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := uc.service.ResetPassword(id, req.Password); err != nil {
		respondServiceError(c, err, "reset password")
		return
	}
	uc.logAdmin(actor.UserID, "user_password", id, fmt.Sprintf("Reset password of user %d", id))
	respondSuccess(c, "Password updated")
}

// Delete handles DELETE /api/admin/users/:id
func (uc *UsersController) Delete(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := uc.service.DeleteUser(actor, id)
	if err != nil {
		respondServiceError(c, err, "delete user")
		return
	}
	if uc.audit != nil {
		uc.audit.LogDelete(actor.UserID, "user", user.ID, user.Email)
	}
	respondSuccess(c, "User deleted")
}

func (uc *UsersController) logAdmin(adminID uint, action string, targetID uint, description string) {
	if uc.audit != nil {
		uc.audit.LogAdmin(adminID, action, targetID, description)
	}
}
