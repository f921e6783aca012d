package billing

import (
	"net/http"

	"legal-portal/internal/api/respond"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type checkoutRequest struct {
	QuoteID string           `json:"quoteId" binding:"required"`
	Amount  *decimal.Decimal `json:"amount"`
}

// CreateCheckoutSession starts a hosted checkout for an accepted quote.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var body checkoutRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.BadRequest(c, "Missing or invalid quoteId")
		return
	}

	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	res, err := h.checkouts.CreateCheckout(c.Request.Context(), body.QuoteID, userID, body.Amount)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"checkoutUrl": res.CheckoutURL,
		"sessionId":   res.SessionID,
	})
}
