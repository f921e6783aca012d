package payments

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=provider.go -destination=mocks/mock_provider.go -package=mocks

// Provider is the hosted-checkout payment processor.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	ExpireCheckoutSession(ctx context.Context, sessionID string) error
	// ParseWebhook verifies the signature header and decodes the event.
	// A bad signature yields an error wrapping ErrInvalidSignature.
	ParseWebhook(payload []byte, signature string) (Event, error)
}

type CheckoutRequest struct {
	QuoteID       string
	ClientID      uint
	LawyerID      uint
	CaseTitle     string
	Description   string
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	ExpiresAt     time.Time
}

type PaymentStatus string

const (
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusUnpaid            PaymentStatus = "unpaid"
	PaymentStatusNoPaymentRequired PaymentStatus = "no_payment_required"
)

// CheckoutSession is the provider's view of one hosted checkout.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentStatus   PaymentStatus
	PaymentIntentID string
	AmountTotal     int64
	Currency        string
	Metadata        map[string]string
}

func (s CheckoutSession) Paid() bool {
	return s.PaymentStatus == PaymentStatusPaid
}

// Event is a verified webhook delivery. The set of implementations is closed:
// SessionCompleted, SessionExpired and Ignored.
type Event interface {
	Meta() EventMeta
	isEvent()
}

type EventMeta struct {
	ID        string
	Type      string
	SessionID string
	Payload   []byte
}

// SessionCompleted reports a finished checkout. Session.Paid() is false for
// asynchronous payment methods that have not settled yet.
type SessionCompleted struct {
	EventMeta
	Session CheckoutSession
}

// SessionExpired reports a checkout that can no longer be paid.
type SessionExpired struct {
	EventMeta
	Reason string
}

// Ignored is any event type the service does not act on.
type Ignored struct {
	EventMeta
}

func (e SessionCompleted) Meta() EventMeta { return e.EventMeta }
func (e SessionExpired) Meta() EventMeta   { return e.EventMeta }
func (e Ignored) Meta() EventMeta          { return e.EventMeta }

func (SessionCompleted) isEvent() {}
func (SessionExpired) isEvent()   {}
func (Ignored) isEvent()          {}
