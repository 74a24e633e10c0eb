package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library-backend/internal/domains/user/model"
	"library-backend/internal/domains/user/service"
	"library-backend/internal/shared/response"
)

// RoleHandler serves role and permission administration.
type RoleHandler struct {
	service service.ServiceInterface
}

func NewRoleHandler(service service.ServiceInterface) *RoleHandler {
	return &RoleHandler{service: service}
}

// ListRoles - GET /v1/roles (admin)
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.service.ListRoles(c.Request.Context())
	if model.HandleUserError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, roles)
}

// GetRole - GET /v1/roles/:id (admin)
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}

	role, err := h.service.GetRole(c.Request.Context(), id)
	if model.HandleUserError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, role)
}

// CreateRole - POST /v1/roles (admin)
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req model.UpsertRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	role, err := h.service.CreateRole(c.Request.Context(), req)
	if model.HandleUserError(c, err) {
		return
	}

	response.Success(c, http.StatusCreated, role)
}

// UpdateRole - PUT /v1/roles/:id (admin)
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}

	var req model.UpsertRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	role, err := h.service.UpdateRole(c.Request.Context(), id, req)
	if model.HandleUserError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, role)
}

// DeleteRole - DELETE /v1/roles/:id (admin)
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}

	if model.HandleUserError(c, h.service.DeleteRole(c.Request.Context(), id)) {
		return
	}

	response.Success(c, http.StatusOK, gin.H{"id": id})
}

// ListPermissions - GET /v1/permissions (admin)
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, err := h.service.ListPermissions(c.Request.Context())
	if model.HandleUserError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, perms)
}
