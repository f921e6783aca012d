package billing

import (
	"net/http"
	"time"

	"legal-portal/internal/api/respond"

	"github.com/gin-gonic/gin"
)

type verifyRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	QuoteID   string `json:"quoteId" binding:"required"`
}

type verifyResponse struct {
	CaseTitle     string `json:"caseTitle"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	PaidAt        string `json:"paidAt"`
	TransactionID string `json:"transactionId"`
}

// VerifyPayment is called by the client after the checkout redirect.
func (h *Handler) VerifyPayment(c *gin.Context) {
	var body verifyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.BadRequest(c, "sessionId and quoteId are required")
		return
	}

	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	conf, err := h.engine.Verify(c.Request.Context(), body.SessionID, body.QuoteID, userID)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, verifyResponse{
		CaseTitle:     conf.CaseTitle,
		Amount:        conf.Amount.StringFixed(2),
		Currency:      conf.Currency,
		PaidAt:        conf.PaidAt.UTC().Format(time.RFC3339),
		TransactionID: conf.TransactionID,
	})
}
