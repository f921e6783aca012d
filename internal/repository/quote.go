package repository

import (
	"context"
	"time"

	"legal-portal/internal/domain/quotes"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuoteRepository interface {
	Create(ctx context.Context, q *quotes.PricingQuote) error
	Get(ctx context.Context, id string) (*quotes.PricingQuote, error)
	// GetForUpdate reads the quote and row-locks it until the surrounding
	// transaction ends. SQLite has no row locks and relies on its single writer.
	GetForUpdate(ctx context.Context, id string) (*quotes.PricingQuote, error)
	UpdateIf(ctx context.Context, id string, cond Cond, patch map[string]any) (int64, error)
	ListForUser(ctx context.Context, userID uint) ([]quotes.PricingQuote, error)
	// Revenue sums the totals of quotes paid at or after since.
	Revenue(ctx context.Context, since time.Time) (decimal.Decimal, error)
	CountByStatus(ctx context.Context) (map[quotes.Status]int64, error)
	WithTx(tx *gorm.DB) QuoteRepository
}

type quoteRepoImpl struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &quoteRepoImpl{db: db}
}

func (r *quoteRepoImpl) WithTx(tx *gorm.DB) QuoteRepository {
	return &quoteRepoImpl{db: tx}
}

func (r *quoteRepoImpl) Create(ctx context.Context, q *quotes.PricingQuote) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *quoteRepoImpl) Get(ctx context.Context, id string) (*quotes.PricingQuote, error) {
	var q quotes.PricingQuote
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&q).Error; err != nil {
		return nil, notFound(err)
	}
	return &q, nil
}

func (r *quoteRepoImpl) GetForUpdate(ctx context.Context, id string) (*quotes.PricingQuote, error) {
	var q quotes.PricingQuote
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&q).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &q, nil
}

func (r *quoteRepoImpl) UpdateIf(ctx context.Context, id string, cond Cond, patch map[string]any) (int64, error) {
	if _, ok := patch["updated_at"]; !ok {
		patch["updated_at"] = time.Now().UTC()
	}
	res := cond.apply(r.db.WithContext(ctx).
		Model(&quotes.PricingQuote{}).
		Where("id = ?", id)).
		Updates(patch)
	return res.RowsAffected, res.Error
}

func (r *quoteRepoImpl) ListForUser(ctx context.Context, userID uint) ([]quotes.PricingQuote, error) {
	var out []quotes.PricingQuote
	err := r.db.WithContext(ctx).
		Where("client_id = ? OR lawyer_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *quoteRepoImpl) Revenue(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&quotes.PricingQuote{}).
		Select("COALESCE(SUM(total), 0) AS total").
		Where("status = ? AND paid_at >= ?", quotes.StatusPaid, since).
		Scan(&row).Error
	return row.Total, err
}

func (r *quoteRepoImpl) CountByStatus(ctx context.Context) (map[quotes.Status]int64, error) {
	var rows []struct {
		Status quotes.Status
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&quotes.PricingQuote{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[quotes.Status]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
