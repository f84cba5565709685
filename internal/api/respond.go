package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/fittracker/fittracker-bot/internal/errors"
)

// abortWithError writes a JSON error body and stops the handler chain.
func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// abortWithAppError maps a service error onto an HTTP status. Unrecognized
// errors become a generic 500 so internals never leak to the caller.
func abortWithAppError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		abortWithError(c, http.StatusBadRequest, appErr.Message)
	case apperrors.ErrorTypeNotFound:
		abortWithError(c, http.StatusNotFound, appErr.Message)
	case apperrors.ErrorTypeConflict:
		abortWithError(c, http.StatusConflict, appErr.Message)
	case apperrors.ErrorTypeExternal:
		abortWithError(c, http.StatusBadGateway, appErr.Message)
	case apperrors.ErrorTypeTimeout:
		abortWithError(c, http.StatusGatewayTimeout, appErr.Message)
	default:
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}
