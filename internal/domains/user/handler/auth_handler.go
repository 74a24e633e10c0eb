package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/domains/user/model"
	"library-backend/internal/domains/user/service"
	"library-backend/internal/shared/response"
)

// AuthHandler serves registration, login and token refresh.
type AuthHandler struct {
	service service.ServiceInterface
}

func NewAuthHandler(service service.ServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// Register - POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.service.Register(c.Request.Context(), req)
	if model.HandleUserError(c, err) {
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// Login - POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if model.HandleUserError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Refresh - POST /v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	tokens, err := h.service.Refresh(c.Request.Context(), req)
	if model.HandleUserError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, tokens)
}
