package notifications

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const KindPaymentReceived Kind = "PAYMENT_RECEIVED"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusDelivered Status = "DELIVERED"
)

// Notification is one delivery to one user. The unique index makes the
// outbox insert idempotent per (user, quote, kind). ClaimedAt marks a send in
// progress so concurrent dispatchers do not mail the same row twice.
type Notification struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	UserID      uint            `gorm:"not null;uniqueIndex:ux_notifications_target,priority:1" json:"user_id"`
	QuoteID     string          `gorm:"size:36;not null;uniqueIndex:ux_notifications_target,priority:2" json:"quote_id"`
	Kind        Kind            `gorm:"size:32;not null;uniqueIndex:ux_notifications_target,priority:3" json:"kind"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency    string          `gorm:"size:3;not null" json:"currency"`
	Status      Status          `gorm:"size:16;not null;index" json:"status"`
	Attempts    int             `gorm:"not null;default:0" json:"attempts"`
	LastError   string          `gorm:"type:text" json:"-"`
	ClaimedAt   *time.Time      `json:"-"`
	DeliveredAt *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
