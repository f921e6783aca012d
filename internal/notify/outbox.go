package notify

import (
	"context"
	"time"

	"legal-portal/internal/domain/notifications"
	"legal-portal/internal/domain/quotes"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EnqueueTx records a PAYMENT_RECEIVED notification for the quote's lawyer
// and client inside tx. Rows already present for a target are left alone.
func (s *Service) EnqueueTx(ctx context.Context, tx *gorm.DB, q *quotes.PricingQuote) error {
	now := time.Now().UTC()
	targets := []uint{q.LawyerID, q.ClientID}

	rows := make([]notifications.Notification, 0, len(targets))
	for _, userID := range targets {
		rows = append(rows, notifications.Notification{
			ID:        uuid.NewString(),
			UserID:    userID,
			QuoteID:   q.ID,
			Kind:      notifications.KindPaymentReceived,
			Amount:    q.Total,
			Currency:  q.Currency,
			Status:    notifications.StatusPending,
			CreatedAt: now,
		})
	}
	return s.repo.WithTx(tx).InsertIgnore(ctx, rows)
}
