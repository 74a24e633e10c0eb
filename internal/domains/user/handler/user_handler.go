package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library-backend/internal/domains/user/model"
	"library-backend/internal/domains/user/service"
	"library-backend/internal/shared/response"
)

// UserHandler serves user administration and profile endpoints.
type UserHandler struct {
	service service.ServiceInterface
}

func NewUserHandler(service service.ServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// ListUsers - GET /v1/users (admin)
func (h *UserHandler) ListUsers(c *gin.Context) {
	req := model.ListUsersRequest{
		Search:  c.Query("search"),
		Page:    1,
		PerPage: 20,
	}

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			req.Page = p
		}
	}
	if perPageStr := c.Query("per_page"); perPageStr != "" {
		if pp, err := strconv.Atoi(perPageStr); err == nil && pp > 0 && pp <= 100 {
			req.PerPage = pp
		}
	}

	users, total, err := h.service.ListUsers(c.Request.Context(), req)
	if model.HandleUserError(c, err) {
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, users,
		response.NewMeta(req.Page, req.PerPage, total, req.Search))
}

// GetUser - GET /v1/users/:id (admin, or the user themselves)
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	callerID, _ := c.MustGet("userID").(uuid.UUID)
	if c.GetString("role") != "admin" && callerID != id {
		response.Forbidden(c, "you can only view your own profile")
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), id)
	if model.HandleUserError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, user)
}

// AssignRole - PUT /v1/users/:id/role (admin)
func (h *UserHandler) AssignRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req model.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	user, err := h.service.AssignRole(c.Request.Context(), id, req)
	if model.HandleUserError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, user)
}

// UploadAvatar - POST /v1/users/:id/avatar
// Users upload their own avatar; admins can upload for anyone.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	callerID, _ := c.MustGet("userID").(uuid.UUID)
	if c.GetString("role") != "admin" && callerID != id {
		response.Forbidden(c, "you can only change your own avatar")
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		response.BadRequest(c, "avatar file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "cannot read avatar file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.BadRequest(c, "cannot read avatar file")
		return
	}

	url, err := h.service.UploadAvatar(c.Request.Context(), id, data)
	if model.HandleUserError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, gin.H{"avatar_url": url})
}
