// Package notify delivers payment notifications through a transactional
// outbox: rows are written with the payment and sent after commit.
package notify

import (
	"context"

	"legal-portal/internal/domain/notifications"
	"legal-portal/internal/repository"

	"go.uber.org/zap"
)

type Service struct {
	repo      repository.NotificationRepository
	directory repository.DirectoryRepository
	mailer    Mailer
	log       *zap.Logger
}

func NewService(
	repo repository.NotificationRepository,
	directory repository.DirectoryRepository,
	mailer Mailer,
	log *zap.Logger,
) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		mailer:    mailer,
		log:       log.Named("notify"),
	}
}

func (s *Service) ListForUser(ctx context.Context, userID uint, limit int) ([]notifications.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListForUser(ctx, userID, limit)
}
