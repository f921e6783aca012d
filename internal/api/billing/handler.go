package billing

import (
	"context"

	billingdomain "legal-portal/internal/domain/billing"
	"legal-portal/internal/payments"

	"github.com/shopspring/decimal"
)

type CheckoutCreator interface {
	CreateCheckout(ctx context.Context, quoteID string, requesterID uint, amount *decimal.Decimal) (*payments.CheckoutResult, error)
}

type Reconciler interface {
	Verify(ctx context.Context, sessionID, quoteID string, requesterID uint) (*payments.Confirmation, error)
	ListPayments(ctx context.Context, clientID uint) ([]billingdomain.PaymentIntentRecord, error)
}

type Handler struct {
	checkouts CheckoutCreator
	engine    Reconciler
}

func NewHandler(checkouts CheckoutCreator, engine Reconciler) *Handler {
	return &Handler{checkouts: checkouts, engine: engine}
}
