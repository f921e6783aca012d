// Package respond maps service errors onto HTTP responses.
package respond

import (
	"errors"
	"net/http"

	"legal-portal/internal/observability/logger"
	"legal-portal/internal/payments"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Status returns the HTTP status and client-facing message for err.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, payments.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, payments.ErrForbidden):
		return http.StatusForbidden, "Access denied"
	case errors.Is(err, payments.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, payments.ErrAmountMismatch):
		return http.StatusBadRequest, "Amount does not match the quote"
	case errors.Is(err, payments.ErrInvalidState):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, payments.ErrInvalidSignature):
		return http.StatusBadRequest, "Signature verification failed"
	case errors.Is(err, payments.ErrPaymentNotCompleted):
		return http.StatusBadRequest, "Payment not completed"
	case errors.Is(err, payments.ErrProvider):
		return http.StatusInternalServerError, "Payment provider unavailable, please retry"
	case payments.IsRetryable(err):
		return http.StatusInternalServerError, "Temporary failure, please retry"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

// Error writes {"error": ...} for err. Server errors are logged with the
// request logger.
func Error(c *gin.Context, err error) {
	status, msg := Status(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg})
}

// BadRequest answers a body or parameter that could not be bound.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
