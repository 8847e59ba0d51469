package errors

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HTTPStatus converts core and infra errors into an HTTP status code.
// Centralized here so handlers never inspect gorm errors themselves.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNoSuchMatch),
		errors.Is(err, ErrNoSuchConversation),
		errors.Is(err, ErrNoSuchReport),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSelfInteraction),
		errors.Is(err, ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		// store failure or anything unclassified
		return http.StatusInternalServerError
	}
}

// Abort writes the mapped status and a JSON error body, ending the request.
func Abort(c *gin.Context, err error) {
	status := HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		// don't leak driver internals to clients
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
