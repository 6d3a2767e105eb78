package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billbuzz/billbuzz/shared/validation"
)

type BadRequestErrorResponse struct {
	Message string                  `json:"message"`
	Details []validation.FieldError `json:"details"`
}

// ValidateRequest checks obj's `validate` tags and returns the failing fields.
func ValidateRequest(obj any) []validation.FieldError {
	return validation.Fields(obj)
}

func RespondWithValidationError(c *gin.Context, fields []validation.FieldError) {
	c.JSON(http.StatusBadRequest, BadRequestErrorResponse{
		Message: "Invalid request data",
		Details: fields,
	})
}

// RespondWithCommandError maps a validation error raised below the handler
// to a 400 and reports whether it did so.
func RespondWithCommandError(c *gin.Context, err error) bool {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		return false
	}
	RespondWithValidationError(c, verr.Fields)
	return true
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"message": message,
	})
}
