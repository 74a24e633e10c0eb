package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library-backend/internal/domains/cart/model"
	"library-backend/internal/domains/cart/service"
	"library-backend/internal/shared/response"
)

type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// Checkout - POST /v1/checkout
// Creates loans for a batch of lines in one transaction and reports
// the outcome per line. Non-admin callers can only check out for
// themselves.
func (h *Handler) Checkout(c *gin.Context) {
	var req model.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	callerID, _ := c.MustGet("userID").(uuid.UUID)
	isAdmin := c.GetString("role") == "admin"

	if req.UserID == uuid.Nil {
		req.UserID = callerID
	}
	if !isAdmin && req.UserID != callerID {
		response.Forbidden(c, "you can only check out for yourself")
		return
	}

	result, err := h.service.Checkout(c.Request.Context(), req)
	if model.HandleCheckoutError(c, err) {
		return
	}

	status := http.StatusCreated
	if result.Created == 0 {
		status = http.StatusOK
	}
	response.Success(c, status, result)
}
