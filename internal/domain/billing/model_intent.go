package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

type IntentStatus string

const (
	IntentPending   IntentStatus = "PENDING"
	IntentCompleted IntentStatus = "COMPLETED"
	IntentCanceled  IntentStatus = "CANCELED"
)

// PaymentIntentRecord links one provider checkout session to a quote.
// SessionID is the idempotency key for provider-originated writes.
type PaymentIntentRecord struct {
	ID                string          `gorm:"primaryKey;size:36" json:"id"`
	SessionID         string          `gorm:"column:session_id;size:255;not null;uniqueIndex:idx_payment_intents_session_id" json:"session_id"`
	QuoteID           string          `gorm:"size:36;not null;index" json:"quote_id"`
	ClientID          uint            `gorm:"not null;index" json:"client_id"`
	Amount            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency          string          `gorm:"size:3;not null" json:"currency"`
	Status            IntentStatus    `gorm:"size:16;not null;index" json:"status"`
	ProviderPaymentID *string         `gorm:"column:provider_payment_id;size:255" json:"transaction_id,omitempty"`
	CheckoutURL       string          `gorm:"type:text" json:"checkout_url,omitempty"`
	PaidAt            *time.Time      `json:"paid_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (PaymentIntentRecord) TableName() string { return "payment_intents" }

func (p PaymentIntentRecord) IsTerminal() bool {
	return p.Status == IntentCompleted || p.Status == IntentCanceled
}
