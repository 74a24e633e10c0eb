package model

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"library-backend/internal/shared/response"
	"library-backend/pkg/logger"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrRoleNotFound       = errors.New("role not found")
	ErrRoleInUse          = errors.New("role is assigned to users")
	ErrInvalidImage       = errors.New("invalid image")
)

var userErrorMap = map[error]struct {
	Status  int
	Code    string
	Message string
}{
	ErrUserNotFound: {
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: "The specified user does not exist",
	},
	ErrEmailTaken: {
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: "The email address is already registered",
	},
	ErrInvalidCredentials: {
		Status:  http.StatusUnauthorized,
		Code:    "UNAUTHORIZED",
		Message: "Invalid email or password",
	},
	ErrInvalidToken: {
		Status:  http.StatusUnauthorized,
		Code:    "UNAUTHORIZED",
		Message: "Invalid or expired token",
	},
	ErrRoleNotFound: {
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: "The specified role does not exist",
	},
	ErrRoleInUse: {
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: "The role is still assigned to users",
	},
	ErrInvalidImage: {
		Status:  http.StatusBadRequest,
		Code:    "INVALID_INPUT",
		Message: "Avatar must be a JPEG or PNG under the size limit",
	},
}

// HandleUserError writes the mapped HTTP response for a domain error.
func HandleUserError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var vErrs validation.Errors
	if errors.As(err, &vErrs) {
		response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_INPUT", "validation failed", vErrs)
		return true
	}

	for sentinel, config := range userErrorMap {
		if errors.Is(err, sentinel) {
			response.ErrorResponse(c, config.Status, config.Code, config.Message)
			return true
		}
	}

	logger.Error("unhandled user error", err)
	response.InternalServerError(c, "Internal server error")
	return true
}
