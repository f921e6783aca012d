package stripe

import (
	"encoding/json"
	"fmt"

	"legal-portal/internal/payments"

	stripeapi "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
)

const (
	EventSessionCompleted      = "checkout.session.completed"
	EventSessionAsyncSucceeded = "checkout.session.async_payment_succeeded"
	EventSessionAsyncFailed    = "checkout.session.async_payment_failed"
	EventSessionExpired        = "checkout.session.expired"
)

func (p *Provider) ParseWebhook(payload []byte, signature string) (payments.Event, error) {
	return ParseEvent(payload, signature, p.webhookSecret)
}

// ParseEvent verifies payload against the endpoint secret and maps it onto
// the payments event union.
func ParseEvent(payload []byte, signature, secret string) (payments.Event, error) {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payments.ErrInvalidSignature, err)
	}

	meta := payments.EventMeta{
		ID:      event.ID,
		Type:    string(event.Type),
		Payload: payload,
	}

	switch meta.Type {
	case EventSessionCompleted, EventSessionAsyncSucceeded:
		session, err := decodeSession(event)
		if err != nil {
			return nil, err
		}
		meta.SessionID = session.ID
		return payments.SessionCompleted{EventMeta: meta, Session: *toSession(session)}, nil

	case EventSessionExpired, EventSessionAsyncFailed:
		session, err := decodeSession(event)
		if err != nil {
			return nil, err
		}
		meta.SessionID = session.ID
		reason := "expired"
		if meta.Type == EventSessionAsyncFailed {
			reason = "async_payment_failed"
		}
		return payments.SessionExpired{EventMeta: meta, Reason: reason}, nil

	default:
		return payments.Ignored{EventMeta: meta}, nil
	}
}

func decodeSession(event stripeapi.Event) (*stripeapi.CheckoutSession, error) {
	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", payments.ErrInvalidState, event.ID)
	}
	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: failed to parse session: %v", payments.ErrInvalidState, err)
	}
	if session.ID == "" {
		return nil, fmt.Errorf("%w: event %s carries no session id", payments.ErrInvalidState, event.ID)
	}
	return &session, nil
}
