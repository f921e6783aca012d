package quotes

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusSent     Status = "SENT"
	StatusAccepted Status = "ACCEPTED"
	StatusPaid     Status = "PAID"
	StatusCanceled Status = "CANCELED"
)

// PricingQuote is a lawyer's price proposal for a case.
// PaidAt is set if and only if Status is PAID.
type PricingQuote struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	CaseID         uint            `gorm:"not null;index" json:"case_id"`
	LawyerID       uint            `gorm:"not null;index" json:"lawyer_id"`
	ClientID       uint            `gorm:"not null;index" json:"client_id"`
	BasePrice      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"base_price"`
	HourlyRate     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"hourly_rate"`
	EstimatedHours decimal.Decimal `gorm:"type:numeric(8,2);not null" json:"estimated_hours"`
	Total          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Currency       string          `gorm:"size:3;not null;default:'eur'" json:"currency"`
	Description    string          `gorm:"type:text" json:"description"`
	Status         Status          `gorm:"size:16;not null;index" json:"status"`
	PaidAt         *time.Time      `json:"paid_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (PricingQuote) TableName() string { return "quotes" }

// ComputeTotal returns base + rate*hours rounded to cents.
func ComputeTotal(base, rate, hours decimal.Decimal) decimal.Decimal {
	return base.Add(rate.Mul(hours)).Round(2)
}

// MinorUnits converts an amount to the provider's integer representation (cents).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits is the inverse of MinorUnits.
func FromMinorUnits(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}

func (q PricingQuote) IsPaid() bool {
	return q.Status == StatusPaid
}

// Withdrawable lists the statuses a lawyer may still cancel from.
var Withdrawable = []Status{StatusDraft, StatusSent, StatusAccepted}
