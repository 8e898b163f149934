package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/response"
	"github.com/gravadigital/posterjudge-api/internal/services"
)

type UserHandler struct {
	users *services.UserService
	log   *log.Logger
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{
		users: users,
		log:   logger.Handler("users"),
	}
}

// Me handles GET /api/me
func (h *UserHandler) Me(c *gin.Context) {
	me, err := h.users.Me(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.OK(c, me)
}

// UpdateProfile handles PUT /api/me/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req services.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	me, err := h.users.UpdateMyProfile(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Profile saved", me)
}

// ListUsers handles GET /api/admin/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.OK(c, users)
}

// AddRole handles POST /api/admin/users/:user_id/roles
func (h *UserHandler) AddRole(c *gin.Context) {
	userID, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}
	var req services.RoleRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.users.AddRole(c.Request.Context(), userID, req.Role)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	data := gin.H{"user_id": userID, "role": req.Role, "created": created}
	if created {
		response.Created(c, "Role granted", data)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Role already granted", data)
}

// RemoveRole handles DELETE /api/admin/users/:user_id/roles/:role
func (h *UserHandler) RemoveRole(c *gin.Context) {
	userID, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}

	if err := h.users.RemoveRole(c.Request.Context(), actor(c), userID, c.Param("role")); err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Role revoked", nil)
}
