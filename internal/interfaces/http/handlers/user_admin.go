// internal/interfaces/http/handlers/user_admin.go
package handlers

import (
	"net/http"

	"github.com/Kyac99/finance-gestion-app/internal/domain/user"
	"github.com/Kyac99/finance-gestion-app/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UserAdminHandler handles staff account management for admins
type UserAdminHandler struct {
	users *user.Service
	log   logrus.FieldLogger
}

// NewUserAdminHandler creates a new admin user handler
func NewUserAdminHandler(users *user.Service, log logrus.FieldLogger) *UserAdminHandler {
	return &UserAdminHandler{users: users, log: log}
}

// ListUsers handles GET /auth/users
func (h *UserAdminHandler) ListUsers(c *gin.Context) {
	var req user.ListRequest
	if !bindQuery(c, &req) {
		return
	}

	resp, err := h.users.ListUsers(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Users retrieved successfully", resp)
}

// CreateUser handles POST /auth/users
func (h *UserAdminHandler) CreateUser(c *gin.Context) {
	var req user.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.users.CreateUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "User created successfully", created)
}

// UpdateUserStatus handles PATCH /auth/users/:id/status
func (h *UserAdminHandler) UpdateUserStatus(c *gin.Context) {
	adminID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	id, ok := parseID(c, "id", "user")
	if !ok {
		return
	}
	var req user.StatusRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.users.SetActive(c.Request.Context(), adminID, id, *req.IsActive)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "User status updated successfully", updated)
}
