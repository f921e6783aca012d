package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"legal-portal/internal/domain/billing"
	"legal-portal/internal/domain/quotes"
	"legal-portal/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type BridgeConfig struct {
	ProviderTimeout time.Duration
	CheckoutExpiry  time.Duration
}

// Bridge opens hosted checkout sessions for accepted quotes. It never
// changes quote status.
type Bridge struct {
	db        *gorm.DB
	quotes    repository.QuoteRepository
	intents   repository.IntentRepository
	directory repository.DirectoryRepository
	provider  Provider
	cfg       BridgeConfig
	log       *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

func NewBridge(
	db *gorm.DB,
	quoteRepo repository.QuoteRepository,
	intentRepo repository.IntentRepository,
	directory repository.DirectoryRepository,
	provider Provider,
	cfg BridgeConfig,
	log *zap.Logger,
) *Bridge {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 10 * time.Second
	}
	if cfg.CheckoutExpiry <= 0 {
		cfg.CheckoutExpiry = 30 * time.Minute
	}
	return &Bridge{
		db:        db,
		quotes:    quoteRepo,
		intents:   intentRepo,
		directory: directory,
		provider:  provider,
		cfg:       cfg,
		log:       log.Named("payments.bridge"),
		tracer:    otel.Tracer("legal-portal/payments"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type CheckoutResult struct {
	CheckoutURL string
	SessionID   string
}

// CreateCheckout starts a checkout for quoteID. amount is optional; when
// given it must equal the quote total.
func (b *Bridge) CreateCheckout(ctx context.Context, quoteID string, requesterID uint, amount *decimal.Decimal) (res *CheckoutResult, err error) {
	ctx, span := b.tracer.Start(ctx, "payments.CreateCheckout", trace.WithAttributes(
		attribute.String("quote_id", quoteID),
	))
	defer func() { endSpan(span, err) }()

	if requesterID == 0 {
		return nil, ErrUnauthorized
	}
	q, err := b.quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, lookupErr("quote", err)
	}
	if q.ClientID != requesterID {
		return nil, ErrForbidden
	}
	if q.Status != quotes.StatusAccepted {
		return nil, fmt.Errorf("%w: quote is %s", ErrInvalidState, q.Status)
	}
	if amount != nil && !amount.Equal(q.Total) {
		return nil, ErrAmountMismatch
	}

	req := CheckoutRequest{
		QuoteID:     q.ID,
		ClientID:    q.ClientID,
		LawyerID:    q.LawyerID,
		Description: q.Description,
		Amount:      q.Total,
		Currency:    q.Currency,
		ExpiresAt:   b.now().Add(b.cfg.CheckoutExpiry),
	}
	if c, err := b.directory.GetCase(ctx, q.CaseID); err == nil {
		req.CaseTitle = c.Title
	}
	if u, err := b.directory.GetUser(ctx, q.ClientID); err == nil {
		req.CustomerEmail = u.Email
	}

	pctx, cancel := context.WithTimeout(ctx, b.cfg.ProviderTimeout)
	session, err := b.provider.CreateCheckoutSession(pctx, req)
	cancel()
	if err != nil {
		if !errors.Is(err, ErrProvider) {
			err = fmt.Errorf("%w: %v", ErrProvider, err)
		}
		return nil, err
	}

	intent := &billing.PaymentIntentRecord{
		ID:          uuid.NewString(),
		SessionID:   session.ID,
		QuoteID:     q.ID,
		ClientID:    q.ClientID,
		Amount:      q.Total,
		Currency:    q.Currency,
		Status:      billing.IntentPending,
		CheckoutURL: session.URL,
	}
	if err := b.persist(ctx, intent); err != nil {
		b.compensate(session.ID, err)
		return nil, err
	}

	b.log.Info("checkout created",
		zap.String("quote_id", q.ID),
		zap.String("session_id", session.ID),
		zap.Uint("client_id", q.ClientID),
	)
	return &CheckoutResult{CheckoutURL: session.URL, SessionID: session.ID}, nil
}

// persist inserts the intent and re-checks that the quote is still ACCEPTED
// in the same transaction. The quote row lock orders it against WithdrawQuote,
// which takes the same lock.
func (b *Bridge) persist(ctx context.Context, intent *billing.PaymentIntentRecord) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quoteRepo := b.quotes.WithTx(tx)
		if _, err := quoteRepo.GetForUpdate(ctx, intent.QuoteID); err != nil {
			return lookupErr("quote", err)
		}
		if err := b.intents.WithTx(tx).Create(ctx, intent); err != nil {
			return storageErr(err)
		}
		n, err := quoteRepo.UpdateIf(ctx, intent.QuoteID,
			repository.Where("status = ?", quotes.StatusAccepted),
			map[string]any{"updated_at": b.now()},
		)
		if err != nil {
			return storageErr(err)
		}
		if n == 0 {
			return fmt.Errorf("%w: quote is no longer accepted", ErrInvalidState)
		}
		return nil
	})
}

// compensate expires a remote session that has no local record. Best effort:
// an unexpired orphan times out on its own.
func (b *Bridge) compensate(sessionID string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.ProviderTimeout)
	defer cancel()

	log := b.log.With(zap.String("session_id", sessionID), zap.NamedError("cause", cause))
	if err := b.provider.ExpireCheckoutSession(ctx, sessionID); err != nil {
		log.Error("expire orphaned checkout session", zap.Error(err))
		return
	}
	log.Warn("expired orphaned checkout session")
}
