package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"legal-portal/internal/domain/notifications"
	"legal-portal/internal/repository"

	"go.uber.org/zap"
)

// claimLease is how long a send may stay unconfirmed before another
// dispatcher takes the row over.
const claimLease = 5 * time.Minute

// DispatchQuote sends every pending notification for the quote. Delivery is
// at-least-once; a row is only marked DELIVERED after the mailer accepted it.
func (s *Service) DispatchQuote(ctx context.Context, quoteID string) error {
	pending, err := s.repo.ListPendingForQuote(ctx, quoteID)
	if err != nil {
		return fmt.Errorf("list pending notifications: %w", err)
	}
	return s.deliverAll(ctx, pending)
}

func (s *Service) deliverAll(ctx context.Context, rows []notifications.Notification) error {
	var errs []error
	for i := range rows {
		if err := s.deliver(ctx, &rows[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) deliver(ctx context.Context, n *notifications.Notification) error {
	log := s.log.With(
		zap.String("notification_id", n.ID),
		zap.String("quote_id", n.QuoteID),
		zap.Uint("user_id", n.UserID),
	)

	claimed, err := s.repo.Claim(ctx, n.ID, time.Now().UTC().Add(-claimLease))
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	user, err := s.directory.GetUser(ctx, n.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Nobody to tell; keep the row for the in-app feed.
			log.Warn("notification target has no account")
			_, err = s.repo.MarkDelivered(ctx, n.ID)
			return err
		}
		log.Warn("notification target lookup failed", zap.Error(err))
		if recErr := s.repo.RecordFailure(ctx, n.ID, err); recErr != nil {
			log.Error("record notification failure", zap.Error(recErr))
		}
		return err
	}

	msg := render(n, user.DisplayName())
	msg.To = user.Email

	if err := s.mailer.Send(ctx, msg); err != nil {
		log.Warn("notification send failed", zap.Error(err), zap.Int("attempts", n.Attempts+1))
		if recErr := s.repo.RecordFailure(ctx, n.ID, err); recErr != nil {
			log.Error("record notification failure", zap.Error(recErr))
		}
		return err
	}

	delivered, err := s.repo.MarkDelivered(ctx, n.ID)
	if err != nil {
		return err
	}
	if delivered {
		log.Info("notification delivered")
	}
	return nil
}

func render(n *notifications.Notification, name string) Message {
	amount := n.Amount.StringFixed(2) + " " + strings.ToUpper(n.Currency)
	return Message{
		Subject: "Payment received",
		Body: fmt.Sprintf(
			"Hello %s,\n\nA payment of %s was received for quote %s.\n",
			name, amount, n.QuoteID,
		),
	}
}
