package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"legal-portal/internal/domain/quotes"
	"legal-portal/internal/repository"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// QuoteService covers the quote steps before checkout. PAID and CANCELED
// are left to the Engine.
type QuoteService struct {
	quotes    repository.QuoteRepository
	directory repository.DirectoryRepository
	currency  string
	policy    *bluemonday.Policy
	log       *zap.Logger
}

func NewQuoteService(quoteRepo repository.QuoteRepository, directory repository.DirectoryRepository, currency string, log *zap.Logger) *QuoteService {
	if currency == "" {
		currency = "eur"
	}
	return &QuoteService{
		quotes:    quoteRepo,
		directory: directory,
		currency:  strings.ToLower(currency),
		policy:    bluemonday.StrictPolicy(),
		log:       log.Named("payments.quotes"),
	}
}

type CreateQuoteInput struct {
	CaseID         uint
	BasePrice      decimal.Decimal
	HourlyRate     decimal.Decimal
	EstimatedHours decimal.Decimal
	Description    string
}

func (s *QuoteService) Create(ctx context.Context, lawyerID uint, in CreateQuoteInput) (*quotes.PricingQuote, error) {
	if lawyerID == 0 {
		return nil, ErrUnauthorized
	}
	c, err := s.directory.GetCase(ctx, in.CaseID)
	if err != nil {
		return nil, lookupErr("case", err)
	}
	if c.LawyerID != lawyerID {
		return nil, ErrForbidden
	}
	// The stored fields must reproduce the stored total.
	base, rate, hours := in.BasePrice.Round(2), in.HourlyRate.Round(2), in.EstimatedHours.Round(2)
	if base.IsNegative() || rate.IsNegative() || hours.IsNegative() {
		return nil, fmt.Errorf("%w: prices and hours must not be negative", ErrInvalidState)
	}
	total := quotes.ComputeTotal(base, rate, hours)
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: quote total must be positive", ErrInvalidState)
	}

	q := &quotes.PricingQuote{
		ID:             uuid.NewString(),
		CaseID:         c.ID,
		LawyerID:       lawyerID,
		ClientID:       c.ClientID,
		BasePrice:      base,
		HourlyRate:     rate,
		EstimatedHours: hours,
		Total:          total,
		Currency:       s.currency,
		Description:    strings.TrimSpace(s.policy.Sanitize(in.Description)),
		Status:         quotes.StatusDraft,
	}
	if err := s.quotes.Create(ctx, q); err != nil {
		return nil, storageErr(err)
	}
	s.log.Info("quote created", zap.String("quote_id", q.ID), zap.Uint("case_id", c.ID), zap.String("total", total.StringFixed(2)))
	return q, nil
}

// Send moves a DRAFT quote to SENT.
func (s *QuoteService) Send(ctx context.Context, quoteID string, lawyerID uint) (*quotes.PricingQuote, error) {
	return s.advance(ctx, quoteID, lawyerID, func(q *quotes.PricingQuote) uint { return q.LawyerID },
		quotes.StatusDraft, quotes.StatusSent)
}

// Accept moves a SENT quote to ACCEPTED.
func (s *QuoteService) Accept(ctx context.Context, quoteID string, clientID uint) (*quotes.PricingQuote, error) {
	return s.advance(ctx, quoteID, clientID, func(q *quotes.PricingQuote) uint { return q.ClientID },
		quotes.StatusSent, quotes.StatusAccepted)
}

func (s *QuoteService) advance(
	ctx context.Context,
	quoteID string,
	actorID uint,
	owner func(*quotes.PricingQuote) uint,
	from, to quotes.Status,
) (*quotes.PricingQuote, error) {
	if actorID == 0 {
		return nil, ErrUnauthorized
	}
	q, err := s.quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, lookupErr("quote", err)
	}
	if owner(q) != actorID {
		return nil, ErrForbidden
	}

	n, err := s.quotes.UpdateIf(ctx, quoteID, repository.Where("status = ?", from), map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return nil, storageErr(err)
	}

	q, err = s.quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, lookupErr("quote", err)
	}
	if n == 0 && q.Status != to {
		return nil, fmt.Errorf("%w: quote is %s", ErrInvalidState, q.Status)
	}
	return q, nil
}

// Get returns a quote visible to its lawyer or client.
func (s *QuoteService) Get(ctx context.Context, quoteID string, requesterID uint) (*quotes.PricingQuote, error) {
	if requesterID == 0 {
		return nil, ErrUnauthorized
	}
	q, err := s.quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, lookupErr("quote", err)
	}
	if q.ClientID != requesterID && q.LawyerID != requesterID {
		return nil, ErrForbidden
	}
	return q, nil
}

func (s *QuoteService) ListForUser(ctx context.Context, userID uint) ([]quotes.PricingQuote, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	out, err := s.quotes.ListForUser(ctx, userID)
	if err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}
