package model

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"library-backend/internal/domains/ledger"
	"library-backend/internal/shared/response"
	"library-backend/pkg/logger"
)

var (
	ErrLoanNotFound      = errors.New("loan not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidSort       = errors.New("invalid sort parameter")
	ErrAlreadyReturned   = errors.New("loan already returned")
	ErrInvalidTransition = errors.New("invalid status transition")
)

var loanErrorMap = map[error]struct {
	Status  int
	Code    string
	Message string
}{
	ErrLoanNotFound: {
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: "The specified loan does not exist",
	},
	ErrUserNotFound: {
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: "The specified user does not exist",
	},
	ledger.ErrBookNotFound: {
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: "The specified book does not exist",
	},
	ErrInvalidSort: {
		Status:  http.StatusBadRequest,
		Code:    "INVALID_INPUT",
		Message: "Unknown sort parameter",
	},
	ErrAlreadyReturned: {
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: "The loan has already been returned",
	},
	ErrInvalidTransition: {
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: "The requested status change is not allowed",
	},
}

// HandleLoanError writes the mapped HTTP response for a domain error.
// Returns true if err was handled (including unknown errors, which map
// to 500).
func HandleLoanError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var vErrs validation.Errors
	if errors.As(err, &vErrs) {
		response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_INPUT", "validation failed", vErrs)
		return true
	}

	var insufficientErr *ledger.InsufficientStockError
	if errors.As(err, &insufficientErr) {
		response.InsufficientStock(c, fmt.Sprintf(
			"Requested %d copies but only %d available",
			insufficientErr.Requested, insufficientErr.Available,
		))
		return true
	}
	if errors.Is(err, ledger.ErrInsufficientStock) {
		response.InsufficientStock(c, "Not enough copies available")
		return true
	}

	for sentinel, config := range loanErrorMap {
		if errors.Is(err, sentinel) {
			response.ErrorResponse(c, config.Status, config.Code, config.Message)
			return true
		}
	}

	logger.Error("unhandled loan error", err)
	response.InternalServerError(c, "Internal server error")
	return true
}
