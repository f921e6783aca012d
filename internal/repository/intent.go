package repository

import (
	"context"
	"time"

	"legal-portal/internal/domain/billing"
	"legal-portal/internal/domain/quotes"

	"gorm.io/gorm"
)

type IntentRepository interface {
	Create(ctx context.Context, p *billing.PaymentIntentRecord) error
	GetBySession(ctx context.Context, sessionID string) (*billing.PaymentIntentRecord, error)
	UpdateIf(ctx context.Context, sessionID string, cond Cond, patch map[string]any) (int64, error)
	ListByClient(ctx context.Context, clientID uint) ([]billing.PaymentIntentRecord, error)
	List(ctx context.Context, limit int) ([]billing.PaymentIntentRecord, error)
	ListStuck(ctx context.Context) ([]billing.PaymentIntentRecord, error)
	WithTx(tx *gorm.DB) IntentRepository
}

type intentRepoImpl struct {
	db *gorm.DB
}

func NewIntentRepository(db *gorm.DB) IntentRepository {
	return &intentRepoImpl{db: db}
}

func (r *intentRepoImpl) WithTx(tx *gorm.DB) IntentRepository {
	return &intentRepoImpl{db: tx}
}

func (r *intentRepoImpl) Create(ctx context.Context, p *billing.PaymentIntentRecord) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *intentRepoImpl) GetBySession(ctx context.Context, sessionID string) (*billing.PaymentIntentRecord, error) {
	var p billing.PaymentIntentRecord
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *intentRepoImpl) UpdateIf(ctx context.Context, sessionID string, cond Cond, patch map[string]any) (int64, error) {
	if _, ok := patch["updated_at"]; !ok {
		patch["updated_at"] = time.Now().UTC()
	}
	res := cond.apply(r.db.WithContext(ctx).
		Model(&billing.PaymentIntentRecord{}).
		Where("session_id = ?", sessionID)).
		Updates(patch)
	return res.RowsAffected, res.Error
}

func (r *intentRepoImpl) ListByClient(ctx context.Context, clientID uint) ([]billing.PaymentIntentRecord, error) {
	var out []billing.PaymentIntentRecord
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *intentRepoImpl) List(ctx context.Context, limit int) ([]billing.PaymentIntentRecord, error) {
	var out []billing.PaymentIntentRecord
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// ListStuck returns completed intents whose quote never reached PAID: the
// partial state left when a process dies between the two reconciliation writes.
func (r *intentRepoImpl) ListStuck(ctx context.Context) ([]billing.PaymentIntentRecord, error) {
	var out []billing.PaymentIntentRecord
	err := r.db.WithContext(ctx).
		Model(&billing.PaymentIntentRecord{}).
		Joins("JOIN quotes ON quotes.id = payment_intents.quote_id").
		Where("payment_intents.status = ? AND quotes.status <> ?", billing.IntentCompleted, quotes.StatusPaid).
		Order("payment_intents.paid_at ASC").
		Find(&out).Error
	return out, err
}
