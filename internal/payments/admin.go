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
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WithdrawQuote cancels an unpaid quote on behalf of its lawyer. It is refused
// while a checkout for the quote is still pending.
func (e *Engine) WithdrawQuote(ctx context.Context, quoteID string, lawyerID uint) (q *quotes.PricingQuote, err error) {
	ctx, span := e.tracer.Start(ctx, "payments.WithdrawQuote")
	defer func() { endSpan(span, err) }()

	if lawyerID == 0 {
		return nil, ErrUnauthorized
	}

	var withdrawn bool
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quoteRepo := e.quotes.WithTx(tx)
		// Taken before the pending-intent check so a concurrent checkout
		// insert is either fully visible or blocked until we commit.
		locked, err := quoteRepo.GetForUpdate(ctx, quoteID)
		if err != nil {
			return lookupErr("quote", err)
		}
		if locked.LawyerID != lawyerID {
			return ErrForbidden
		}

		n, err := quoteRepo.UpdateIf(ctx, quoteID,
			repository.Where("status IN ?", quotes.Withdrawable).And(repository.Where(
				"NOT EXISTS (SELECT 1 FROM payment_intents WHERE payment_intents.quote_id = quotes.id AND payment_intents.status = ?)",
				billing.IntentPending,
			)),
			map[string]any{"status": quotes.StatusCanceled},
		)
		if err != nil {
			return storageErr(err)
		}
		withdrawn = n == 1

		q, err = quoteRepo.Get(ctx, quoteID)
		if err != nil {
			return lookupErr("quote", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if withdrawn {
		e.log.Info("quote withdrawn", zap.String("quote_id", quoteID), zap.Uint("lawyer_id", lawyerID))
		return q, nil
	}

	switch q.Status {
	case quotes.StatusCanceled:
		return q, nil
	case quotes.StatusPaid:
		return nil, fmt.Errorf("%w: quote is already paid", ErrInvalidState)
	default:
		return nil, fmt.Errorf("%w: a checkout for this quote is in progress", ErrInvalidState)
	}
}

// ListStuck returns completed checkouts whose quote is not PAID.
func (e *Engine) ListStuck(ctx context.Context) ([]billing.PaymentIntentRecord, error) {
	out, err := e.intents.ListStuck(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

type RepairReport struct {
	Found    int      `json:"found"`
	Repaired int      `json:"repaired"`
	Failed   []string `json:"failed,omitempty"`
}

// RepairStuck reapplies the quote step for every stuck checkout.
func (e *Engine) RepairStuck(ctx context.Context) (report RepairReport, err error) {
	ctx, span := e.tracer.Start(ctx, "payments.RepairStuck")
	defer func() { endSpan(span, err) }()

	stuck, err := e.ListStuck(ctx)
	if err != nil {
		return report, err
	}
	report.Found = len(stuck)

	var errs []error
	for _, intent := range stuck {
		res, err := e.complete(ctx, intent.SessionID, "")
		if err != nil {
			report.Failed = append(report.Failed, intent.SessionID)
			errs = append(errs, fmt.Errorf("session %s: %w", intent.SessionID, err))
			continue
		}
		if res.quotePaid {
			report.Repaired++
		}
		e.dispatch(ctx, res)
	}
	if len(errs) > 0 {
		e.log.Warn("repair incomplete", zap.Error(errors.Join(errs...)))
	}
	return report, nil
}

// ListPayments returns the checkouts started by a client.
func (e *Engine) ListPayments(ctx context.Context, clientID uint) ([]billing.PaymentIntentRecord, error) {
	if clientID == 0 {
		return nil, ErrUnauthorized
	}
	out, err := e.intents.ListByClient(ctx, clientID)
	if err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

// ListAllPayments is the admin view over every checkout.
func (e *Engine) ListAllPayments(ctx context.Context, limit int) ([]billing.PaymentIntentRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	out, err := e.intents.List(ctx, limit)
	if err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

type Stats struct {
	TotalRevenue   decimal.Decimal         `json:"total_revenue"`
	RecentRevenue  decimal.Decimal         `json:"recent_revenue"`
	QuotesByStatus map[quotes.Status]int64 `json:"quotes_by_status"`
	Stuck          int                     `json:"stuck"`
}

// Stats summarises paid revenue (all time and the last 30 days) for the
// admin dashboard.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	total, err := e.quotes.Revenue(ctx, time.Time{})
	if err != nil {
		return nil, storageErr(err)
	}
	recent, err := e.quotes.Revenue(ctx, e.now().AddDate(0, 0, -30))
	if err != nil {
		return nil, storageErr(err)
	}
	counts, err := e.quotes.CountByStatus(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	stuck, err := e.ListStuck(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalRevenue:   total,
		RecentRevenue:  recent,
		QuotesByStatus: counts,
		Stuck:          len(stuck),
	}, nil
}
