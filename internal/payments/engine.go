package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"legal-portal/internal/domain/billing"
	"legal-portal/internal/domain/quotes"
	"legal-portal/internal/repository"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier is the notification outbox. EnqueueTx runs inside the payment
// transaction; DispatchQuote runs after commit.
type Notifier interface {
	EnqueueTx(ctx context.Context, tx *gorm.DB, q *quotes.PricingQuote) error
	DispatchQuote(ctx context.Context, quoteID string) error
}

type EngineConfig struct {
	// ProviderTimeout bounds the provider lookup made by Verify.
	ProviderTimeout time.Duration
}

// Engine is the only writer of quote PAID/CANCELED and intent
// COMPLETED/CANCELED. Every transition is a conditional update, so
// concurrent Verify and webhook calls for one session apply it once.
type Engine struct {
	db        *gorm.DB
	quotes    repository.QuoteRepository
	intents   repository.IntentRepository
	events    repository.WebhookEventRepository
	directory repository.DirectoryRepository
	provider  Provider
	notifier  Notifier
	cfg       EngineConfig
	log       *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

func NewEngine(
	db *gorm.DB,
	quoteRepo repository.QuoteRepository,
	intentRepo repository.IntentRepository,
	eventRepo repository.WebhookEventRepository,
	directory repository.DirectoryRepository,
	provider Provider,
	notifier Notifier,
	cfg EngineConfig,
	log *zap.Logger,
) *Engine {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 10 * time.Second
	}
	return &Engine{
		db:        db,
		quotes:    quoteRepo,
		intents:   intentRepo,
		events:    eventRepo,
		directory: directory,
		provider:  provider,
		notifier:  notifier,
		cfg:       cfg,
		log:       log.Named("payments.engine"),
		tracer:    otel.Tracer("legal-portal/payments"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Confirmation is what the client sees after a successful payment.
type Confirmation struct {
	CaseTitle     string
	Amount        decimal.Decimal
	Currency      string
	PaidAt        time.Time
	TransactionID string
}

// Verify confirms a checkout session on behalf of the paying client, applying
// the payment if the webhook has not done so yet.
func (e *Engine) Verify(ctx context.Context, sessionID, quoteID string, requesterID uint) (conf *Confirmation, err error) {
	ctx, span := e.tracer.Start(ctx, "payments.Verify", trace.WithAttributes(
		attribute.String("session_id", sessionID),
		attribute.String("quote_id", quoteID),
	))
	defer func() { endSpan(span, err) }()

	if requesterID == 0 {
		return nil, ErrUnauthorized
	}
	if sessionID == "" || quoteID == "" {
		return nil, fmt.Errorf("%w: session id and quote id are required", ErrInvalidState)
	}

	q, err := e.quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, lookupErr("quote", err)
	}
	if q.ClientID != requesterID {
		return nil, ErrForbidden
	}

	intent, err := e.intents.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, lookupErr("checkout session", err)
	}
	if intent.QuoteID != q.ID || intent.ClientID != requesterID {
		return nil, ErrForbidden
	}

	log := e.log.With(zap.String("session_id", sessionID), zap.String("quote_id", quoteID))

	switch {
	case intent.Status == billing.IntentCanceled:
		return nil, ErrPaymentNotCompleted

	case !intent.IsTerminal():
		pctx, cancel := context.WithTimeout(ctx, e.cfg.ProviderTimeout)
		session, err := e.provider.GetCheckoutSession(pctx, sessionID)
		cancel()
		if err != nil {
			log.Warn("provider lookup failed", zap.Error(err))
			if !errors.Is(err, ErrProvider) {
				err = fmt.Errorf("%w: %v", ErrProvider, err)
			}
			return nil, err
		}
		if !session.Paid() {
			return nil, ErrPaymentNotCompleted
		}
		if ref := session.Metadata["quote_id"]; ref != "" && ref != q.ID {
			log.Error("provider session belongs to another quote", zap.String("session_quote_id", ref))
			return nil, ErrForbidden
		}
		checkAmount(log, intent, session)

		res, err := e.complete(ctx, sessionID, session.PaymentIntentID)
		if err != nil {
			return nil, err
		}
		if res.canceled {
			log.Error("provider reports paid but intent is canceled")
			return nil, fmt.Errorf("%w: checkout session was canceled", ErrInvalidState)
		}
		e.dispatch(ctx, res)
		return e.confirmation(ctx, res.quote, res.intent), nil

	default:
		// Already completed, by the webhook or an earlier Verify. Re-running the
		// transition repairs a quote left unpaid by an interrupted commit.
		res, err := e.complete(ctx, sessionID, "")
		if err != nil {
			return nil, err
		}
		e.dispatch(ctx, res)
		return e.confirmation(ctx, res.quote, res.intent), nil
	}
}

type transition struct {
	intent *billing.PaymentIntentRecord
	quote  *quotes.PricingQuote
	// intentCompleted and quotePaid report which writes this call made.
	intentCompleted bool
	quotePaid       bool
	canceled        bool
}

func (t transition) applied() bool { return t.intentCompleted || t.quotePaid }

// complete applies PENDING -> COMPLETED on the intent and then PAID on the
// quote, in one transaction and in that order.
func (e *Engine) complete(ctx context.Context, sessionID, providerPaymentID string) (transition, error) {
	var res transition
	now := e.now()

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		intents := e.intents.WithTx(tx)
		quoteRepo := e.quotes.WithTx(tx)

		patch := map[string]any{
			"status":  billing.IntentCompleted,
			"paid_at": now,
		}
		if providerPaymentID != "" {
			patch["provider_payment_id"] = providerPaymentID
		}
		n, err := intents.UpdateIf(ctx, sessionID,
			repository.Where("status = ?", billing.IntentPending).And(noCompletedSibling()),
			patch,
		)
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicatePayment
			}
			return storageErr(err)
		}

		intent, err := intents.GetBySession(ctx, sessionID)
		if err != nil {
			return lookupErr("checkout session", err)
		}
		res.intent = intent
		res.intentCompleted = n == 1

		switch intent.Status {
		case billing.IntentCanceled:
			res.canceled = true
			return nil
		case billing.IntentPending:
			// Blocked by the sibling predicate: another session paid this quote.
			return ErrDuplicatePayment
		}

		paidAt := now
		if intent.PaidAt != nil {
			paidAt = *intent.PaidAt
		}
		n, err = quoteRepo.UpdateIf(ctx, intent.QuoteID,
			repository.Where("status <> ?", quotes.StatusPaid),
			map[string]any{"status": quotes.StatusPaid, "paid_at": paidAt},
		)
		if err != nil {
			return storageErr(err)
		}

		q, err := quoteRepo.Get(ctx, intent.QuoteID)
		if err != nil {
			return lookupErr("quote", err)
		}
		res.quote = q

		if n == 1 {
			res.quotePaid = true
			if err := e.notifier.EnqueueTx(ctx, tx, q); err != nil {
				return storageErr(err)
			}
		}
		return nil
	})
	if err != nil {
		return transition{}, err
	}

	if res.applied() {
		e.log.Info("payment reconciled",
			zap.String("session_id", sessionID),
			zap.String("quote_id", res.intent.QuoteID),
			zap.Bool("intent_completed", res.intentCompleted),
			zap.Bool("quote_paid", res.quotePaid),
		)
		if !res.intentCompleted && res.quotePaid {
			e.log.Warn("repaired quote left unpaid after intent completion", zap.String("quote_id", res.intent.QuoteID))
		}
	}
	return res, nil
}

// cancel moves a PENDING intent to CANCELED. The quote is not touched.
func (e *Engine) cancel(ctx context.Context, sessionID, reason string) error {
	n, err := e.intents.UpdateIf(ctx, sessionID,
		repository.Where("status = ?", billing.IntentPending),
		map[string]any{"status": billing.IntentCanceled},
	)
	if err != nil {
		return storageErr(err)
	}
	if n == 0 {
		if _, err := e.intents.GetBySession(ctx, sessionID); err != nil {
			return lookupErr("checkout session", err)
		}
		return nil
	}
	e.log.Info("checkout canceled", zap.String("session_id", sessionID), zap.String("reason", reason))
	return nil
}

// dispatch sends pending notifications after commit. Failures are left for
// the relay and never undo the payment.
func (e *Engine) dispatch(ctx context.Context, res transition) {
	if res.quote == nil || !res.quote.IsPaid() {
		return
	}
	if err := e.notifier.DispatchQuote(ctx, res.quote.ID); err != nil {
		e.log.Warn("notification dispatch failed", zap.String("quote_id", res.quote.ID), zap.Error(err))
	}
}

func (e *Engine) confirmation(ctx context.Context, q *quotes.PricingQuote, intent *billing.PaymentIntentRecord) *Confirmation {
	conf := &Confirmation{
		Amount:        q.Total,
		Currency:      q.Currency,
		TransactionID: intent.SessionID,
	}
	if q.PaidAt != nil {
		conf.PaidAt = *q.PaidAt
	}
	if intent.ProviderPaymentID != nil && *intent.ProviderPaymentID != "" {
		conf.TransactionID = *intent.ProviderPaymentID
	}
	if c, err := e.directory.GetCase(ctx, q.CaseID); err == nil {
		conf.CaseTitle = c.Title
	} else {
		e.log.Warn("case lookup failed", zap.Uint("case_id", q.CaseID), zap.Error(err))
	}
	return conf
}

func noCompletedSibling() repository.Cond {
	return repository.Where(
		"NOT EXISTS (SELECT 1 FROM payment_intents AS sibling WHERE sibling.quote_id = payment_intents.quote_id AND sibling.status = ?)",
		billing.IntentCompleted,
	)
}

func checkAmount(log *zap.Logger, intent *billing.PaymentIntentRecord, s *CheckoutSession) {
	if s.AmountTotal == 0 {
		return
	}
	if charged := quotes.FromMinorUnits(s.AmountTotal); !charged.Equal(intent.Amount.Round(2)) {
		log.Warn("provider amount differs from intent",
			zap.String("provider_amount", charged.StringFixed(2)),
			zap.String("intent_amount", intent.Amount.StringFixed(2)),
		)
	}
}

func lookupErr(what string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return storageErr(err)
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
