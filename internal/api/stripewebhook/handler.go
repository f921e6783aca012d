package stripewebhooks

import (
	"context"
	"errors"
	"io"
	"net/http"

	"legal-portal/internal/observability/logger"
	"legal-portal/internal/payments"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Stripe caps event payloads well below this.
const maxBodyBytes = 65536

type WebhookProcessor interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type Handler struct {
	engine WebhookProcessor
}

func NewHandler(engine WebhookProcessor) *Handler {
	return &Handler{engine: engine}
}

// StripeWebhook acknowledges with 200 once the event is applied or safely
// ignored. 400 tells Stripe not to retry; 500 asks for a redelivery.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := readStripeBody(c, maxBodyBytes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reading request body"})
		return
	}

	err = h.engine.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true})
	case errors.Is(err, payments.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
	case errors.Is(err, payments.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse event"})
	default:
		logger.FromContext(c.Request.Context()).Error("stripe webhook failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook processing failed"})
	}
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
