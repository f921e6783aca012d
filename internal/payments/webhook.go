package payments

import (
	"context"
	"errors"
	"fmt"

	"legal-portal/internal/domain/billing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// HandleWebhook verifies and applies one provider delivery. A nil return
// means the delivery is acknowledged; redeliveries are harmless.
func (e *Engine) HandleWebhook(ctx context.Context, payload []byte, signature string) (err error) {
	ctx, span := e.tracer.Start(ctx, "payments.HandleWebhook")
	defer func() { endSpan(span, err) }()

	ev, err := e.provider.ParseWebhook(payload, signature)
	if err != nil {
		e.log.Warn("webhook rejected", zap.Error(err))
		return err
	}
	meta := ev.Meta()
	span.SetAttributes(
		attribute.String("event_id", meta.ID),
		attribute.String("event_type", meta.Type),
		attribute.String("session_id", meta.SessionID),
	)
	log := e.log.With(
		zap.String("event_id", meta.ID),
		zap.String("event_type", meta.Type),
		zap.String("session_id", meta.SessionID),
	)

	e.record(ctx, log, meta)

	err = e.apply(ctx, log, ev)
	switch {
	case err == nil:
		e.markProcessed(ctx, log, meta.ID)
		return nil

	case errors.Is(err, ErrNotFound):
		// Sessions created outside this service share the Stripe account.
		log.Warn("webhook for unknown checkout session")
		e.markFailed(ctx, log, meta.ID, err)
		return nil

	case errors.Is(err, ErrDuplicatePayment):
		log.Error("second payment received for an already paid quote; refund required", zap.Error(err))
		e.markFailed(ctx, log, meta.ID, err)
		return nil

	default:
		log.Error("webhook processing failed", zap.Error(err))
		e.markFailed(ctx, log, meta.ID, err)
		return err
	}
}

func (e *Engine) apply(ctx context.Context, log *zap.Logger, ev Event) error {
	switch ev := ev.(type) {
	case SessionCompleted:
		if !ev.Session.Paid() {
			log.Info("checkout completed, payment not settled yet",
				zap.String("payment_status", string(ev.Session.PaymentStatus)))
			return nil
		}
		res, err := e.complete(ctx, ev.SessionID, ev.Session.PaymentIntentID)
		if err != nil {
			return err
		}
		if res.canceled {
			log.Error("paid event for a canceled checkout")
			return nil
		}
		e.dispatch(ctx, res)
		return nil

	case SessionExpired:
		return e.cancel(ctx, ev.SessionID, ev.Reason)

	case Ignored:
		log.Debug("webhook ignored")
		return nil

	default:
		return fmt.Errorf("%w: unhandled event %T", ErrInvalidState, ev)
	}
}

// The audit trail never gates processing; failures are only logged.
func (e *Engine) record(ctx context.Context, log *zap.Logger, meta EventMeta) {
	if e.events == nil || meta.ID == "" {
		return
	}
	first, err := e.events.Record(ctx, &billing.WebhookEvent{
		ProviderEventID: meta.ID,
		EventType:       meta.Type,
		SessionID:       meta.SessionID,
		Payload:         datatypes.JSON(meta.Payload),
		ReceivedAt:      e.now(),
	})
	if err != nil {
		log.Warn("record webhook event", zap.Error(err))
		return
	}
	if !first {
		log.Info("webhook redelivered")
	}
}

func (e *Engine) markProcessed(ctx context.Context, log *zap.Logger, eventID string) {
	if e.events == nil || eventID == "" {
		return
	}
	if err := e.events.MarkProcessed(ctx, eventID); err != nil {
		log.Warn("mark webhook processed", zap.Error(err))
	}
}

func (e *Engine) markFailed(ctx context.Context, log *zap.Logger, eventID string, cause error) {
	if e.events == nil || eventID == "" {
		return
	}
	if err := e.events.MarkFailed(ctx, eventID, cause); err != nil {
		log.Warn("mark webhook failed", zap.Error(err))
	}
}
