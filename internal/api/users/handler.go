package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"legal-portal/internal/api/respond"
	"legal-portal/internal/domain/billing"
	"legal-portal/internal/domain/quotes"
	userdomain "legal-portal/internal/domain/users"
	"legal-portal/internal/payments"
	"legal-portal/internal/repository"

	"github.com/gin-gonic/gin"
)

type Directory interface {
	GetUser(ctx context.Context, id uint) (*userdomain.User, error)
}

type QuoteLister interface {
	ListForUser(ctx context.Context, userID uint) ([]quotes.PricingQuote, error)
}

type PaymentLister interface {
	ListPayments(ctx context.Context, clientID uint) ([]billing.PaymentIntentRecord, error)
}

type Handler struct {
	directory Directory
	quotes    QuoteLister
	payments  PaymentLister
}

func NewHandler(directory Directory, quotes QuoteLister, payments PaymentLister) *Handler {
	return &Handler{directory: directory, quotes: quotes, payments: payments}
}

// GetCurrentUser returns the caller's profile with a summary of their quotes
// and most recent payment.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	ctx := c.Request.Context()

	user, err := h.directory.GetUser(ctx, userID)
	if err != nil {
		respond.Error(c, lookupErr(err))
		return
	}
	qs, err := h.quotes.ListForUser(ctx, userID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	rows, err := h.payments.ListPayments(ctx, userID)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		User: BuildUserDTO(user),
		Billing: BillingDTO{
			Quotes:          BuildQuoteSummaryDTO(qs),
			LastPayment:     BuildLastPaymentDTO(rows),
			AwaitingPayment: CountAwaitingPayment(userID, qs),
		},
	})
}

func lookupErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: user", payments.ErrNotFound)
	}
	return err
}
