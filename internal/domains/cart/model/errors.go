package model

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"library-backend/internal/shared/response"
	"library-backend/pkg/logger"
)

var ErrUserNotFound = errors.New("user not found")

// HandleCheckoutError maps batch-level failures. Line-level failures
// are not errors; they come back as outcomes.
func HandleCheckoutError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var vErrs validation.Errors
	if errors.As(err, &vErrs) {
		response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_INPUT", "validation failed", vErrs)
		return true
	}

	if errors.Is(err, ErrUserNotFound) {
		response.NotFound(c, "The specified user does not exist")
		return true
	}

	logger.Error("unhandled checkout error", err)
	response.InternalServerError(c, "Internal server error")
	return true
}
