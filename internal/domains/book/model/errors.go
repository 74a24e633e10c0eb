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
	ErrBookNotFound       = errors.New("book not found")
	ErrInvalidSort        = errors.New("invalid sort parameter")
	ErrBookHasActiveLoans = errors.New("book has active loans and cannot be deleted")
	ErrInvalidImage       = errors.New("invalid image")

	// ErrStockBelowBorrowed is the target for errors.Is on
	// StockBelowBorrowedError values.
	ErrStockBelowBorrowed = errors.New("stock below borrowed quantity")
)

// StockBelowBorrowedError rejects a stock update that would take
// derived availability negative. Borrowed copies are out of the
// building; stock can only drop to what is still on the shelf.
type StockBelowBorrowedError struct {
	Requested int
	Borrowed  int
}

func NewStockBelowBorrowedError(requested, borrowed int) *StockBelowBorrowedError {
	return &StockBelowBorrowedError{Requested: requested, Borrowed: borrowed}
}

func (e *StockBelowBorrowedError) Error() string {
	return fmt.Sprintf("cannot set stock to %d: %d copies are out on active loans", e.Requested, e.Borrowed)
}

func (e *StockBelowBorrowedError) Is(target error) bool {
	return target == ErrStockBelowBorrowed
}

var bookErrorMap = map[error]struct {
	Status  int
	Code    string
	Message string
}{
	ErrBookNotFound: {
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: "The specified book does not exist",
	},
	ErrInvalidSort: {
		Status:  http.StatusBadRequest,
		Code:    "INVALID_INPUT",
		Message: "Unknown sort parameter",
	},
	ErrBookHasActiveLoans: {
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: "The book still has active loans; return or delete them first",
	},
	ErrInvalidImage: {
		Status:  http.StatusBadRequest,
		Code:    "INVALID_INPUT",
		Message: "Cover must be a JPEG or PNG under the size limit",
	},
	ledger.ErrBookNotFound: {
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: "The specified book does not exist",
	},
}

// HandleBookError writes the mapped HTTP response for a domain error.
// Returns true if err was handled (including unknown errors, which map
// to 500).
func HandleBookError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var vErrs validation.Errors
	if errors.As(err, &vErrs) {
		response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_INPUT", "validation failed", vErrs)
		return true
	}

	var stockErr *StockBelowBorrowedError
	if errors.As(err, &stockErr) {
		response.Conflict(c, fmt.Sprintf(
			"Cannot set stock to %d while %d copies are out on active loans",
			stockErr.Requested, stockErr.Borrowed))
		return true
	}

	for sentinel, config := range bookErrorMap {
		if errors.Is(err, sentinel) {
			response.ErrorResponse(c, config.Status, config.Code, config.Message)
			return true
		}
	}

	logger.Error("unhandled book error", err)
	response.InternalServerError(c, "Internal server error")
	return true
}
