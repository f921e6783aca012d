package repository

import (
	"context"
	"time"

	"legal-portal/internal/domain/billing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookEventRepository interface {
	// Record stores a verified delivery. It reports false when the provider
	// event id was seen before, in which case the delivery counter is bumped.
	Record(ctx context.Context, ev *billing.WebhookEvent) (bool, error)
	MarkProcessed(ctx context.Context, providerEventID string) error
	MarkFailed(ctx context.Context, providerEventID string, cause error) error
	Get(ctx context.Context, providerEventID string) (*billing.WebhookEvent, error)
}

type webhookEventRepoImpl struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepoImpl{db: db}
}

func (r *webhookEventRepoImpl) Record(ctx context.Context, ev *billing.WebhookEvent) (bool, error) {
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now().UTC()
	}
	if ev.Deliveries == 0 {
		ev.Deliveries = 1
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_event_id"}},
			DoNothing: true,
		}).
		Create(ev)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	err := r.db.WithContext(ctx).
		Model(&billing.WebhookEvent{}).
		Where("provider_event_id = ?", ev.ProviderEventID).
		Update("deliveries", gorm.Expr("deliveries + ?", 1)).Error
	return false, err
}

func (r *webhookEventRepoImpl) MarkProcessed(ctx context.Context, providerEventID string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&billing.WebhookEvent{}).
		Where("provider_event_id = ?", providerEventID).
		Updates(map[string]any{"processed_at": now, "processing_error": ""}).Error
}

func (r *webhookEventRepoImpl) MarkFailed(ctx context.Context, providerEventID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.db.WithContext(ctx).
		Model(&billing.WebhookEvent{}).
		Where("provider_event_id = ?", providerEventID).
		Update("processing_error", msg).Error
}

func (r *webhookEventRepoImpl) Get(ctx context.Context, providerEventID string) (*billing.WebhookEvent, error) {
	var ev billing.WebhookEvent
	if err := r.db.WithContext(ctx).Where("provider_event_id = ?", providerEventID).First(&ev).Error; err != nil {
		return nil, notFound(err)
	}
	return &ev, nil
}
