package repository

import (
	"context"
	"time"

	"legal-portal/internal/domain/notifications"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository interface {
	// InsertIgnore adds rows, skipping any (user, quote, kind) already present.
	InsertIgnore(ctx context.Context, rows []notifications.Notification) error
	ListPendingForQuote(ctx context.Context, quoteID string) ([]notifications.Notification, error)
	ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]notifications.Notification, error)
	// Claim reserves a PENDING row for sending. Claims older than staleBefore
	// are considered abandoned and may be taken over.
	Claim(ctx context.Context, id string, staleBefore time.Time) (bool, error)
	// MarkDelivered flips PENDING to DELIVERED and reports whether this call did it.
	MarkDelivered(ctx context.Context, id string) (bool, error)
	RecordFailure(ctx context.Context, id string, cause error) error
	ListForUser(ctx context.Context, userID uint, limit int) ([]notifications.Notification, error)
	WithTx(tx *gorm.DB) NotificationRepository
}

type notificationRepoImpl struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepoImpl{db: db}
}

func (r *notificationRepoImpl) WithTx(tx *gorm.DB) NotificationRepository {
	return &notificationRepoImpl{db: tx}
}

func (r *notificationRepoImpl) InsertIgnore(ctx context.Context, rows []notifications.Notification) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "quote_id"},
				{Name: "kind"},
			},
			DoNothing: true,
		}).
		Create(&rows).Error
}

func (r *notificationRepoImpl) ListPendingForQuote(ctx context.Context, quoteID string) ([]notifications.Notification, error) {
	var out []notifications.Notification
	err := r.db.WithContext(ctx).
		Where("quote_id = ? AND status = ?", quoteID, notifications.StatusPending).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *notificationRepoImpl) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]notifications.Notification, error) {
	var out []notifications.Notification
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", notifications.StatusPending, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *notificationRepoImpl) Claim(ctx context.Context, id string, staleBefore time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&notifications.Notification{}).
		Where("id = ? AND status = ?", id, notifications.StatusPending).
		Where("(claimed_at IS NULL OR claimed_at < ?)", staleBefore).
		Update("claimed_at", time.Now().UTC())
	return res.RowsAffected == 1, res.Error
}

func (r *notificationRepoImpl) MarkDelivered(ctx context.Context, id string) (bool, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&notifications.Notification{}).
		Where("id = ? AND status = ?", id, notifications.StatusPending).
		Updates(map[string]any{
			"status":       notifications.StatusDelivered,
			"delivered_at": now,
			"attempts":     gorm.Expr("attempts + ?", 1),
			"last_error":   "",
		})
	return res.RowsAffected == 1, res.Error
}

func (r *notificationRepoImpl) RecordFailure(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.db.WithContext(ctx).
		Model(&notifications.Notification{}).
		Where("id = ? AND status = ?", id, notifications.StatusPending).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + ?", 1),
			"last_error": msg,
			"claimed_at": nil,
		}).Error
}

func (r *notificationRepoImpl) ListForUser(ctx context.Context, userID uint, limit int) ([]notifications.Notification, error) {
	var out []notifications.Notification
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
