package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Response is the API envelope shared by every endpoint.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Error carries a machine-readable kind plus a human-readable message.
// Kinds the client distinguishes: INVALID_INPUT, NOT_FOUND,
// INSUFFICIENT_STOCK, CONFLICT, UNAUTHORIZED, FORBIDDEN, INTERNAL.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Meta is the pagination metadata for list endpoints. The per-page and
// search parameters are echoed back so the client can rebuild its URL
// state. GrandTotal is only present on user-scoped loan listings.
type Meta struct {
	CurrentPage int              `json:"current_page"`
	LastPage    int              `json:"last_page"`
	Total       int              `json:"total"`
	PerPage     int              `json:"per_page"`
	Search      string           `json:"search,omitempty"`
	GrandTotal  *decimal.Decimal `json:"grand_total,omitempty"`
}

// NewMeta computes last_page from total and per-page.
func NewMeta(page, perPage, total int, search string) *Meta {
	lastPage := 1
	if perPage > 0 && total > 0 {
		lastPage = (total + perPage - 1) / perPage
	}
	return &Meta{
		CurrentPage: page,
		LastPage:    lastPage,
		Total:       total,
		PerPage:     perPage,
		Search:      search,
	}
}

// WithGrandTotal attaches the monetary aggregate to the meta block.
func (m *Meta) WithGrandTotal(v decimal.Decimal) *Meta {
	m.GrandTotal = &v
	return m
}

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
	})
}

func SuccessWithMeta(c *gin.Context, statusCode int, data interface{}, meta *Meta) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Common error responses.

func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, "INVALID_INPUT", message)
}

func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", message)
}

func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message)
}

func Conflict(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusConflict, "CONFLICT", message)
}

func InsufficientStock(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusConflict, "INSUFFICIENT_STOCK", message)
}

func InternalServerError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL", message)
}
