package billing

import (
	"net/http"

	"legal-portal/internal/api/respond"

	"github.com/gin-gonic/gin"
)

// GetPaymentHistory lists the caller's checkouts, newest first.
func (h *Handler) GetPaymentHistory(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	payments, err := h.engine.ListPayments(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}
