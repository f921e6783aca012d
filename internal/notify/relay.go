package notify

import (
	"context"
	"time"

	"legal-portal/config"

	"go.uber.org/zap"
)

// Relay redelivers notifications left PENDING by a failed or interrupted
// post-commit dispatch.
type Relay struct {
	svc *Service
	cfg config.Notify
	log *zap.Logger
}

func NewRelay(svc *Service, cfg config.Notify, log *zap.Logger) *Relay {
	return &Relay{svc: svc, cfg: cfg, log: log.Named("notify.relay")}
}

// Run polls until ctx is canceled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.RelayInterval)
	defer ticker.Stop()

	for {
		if n, err := r.RunOnce(ctx); err != nil {
			r.log.Warn("relay pass failed", zap.Error(err), zap.Int("delivered", n))
		} else if n > 0 {
			r.log.Info("relay pass", zap.Int("delivered", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce delivers one batch of rows older than the grace period and returns
// how many were attempted.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	before := time.Now().UTC().Add(-r.cfg.RelayGrace)
	rows, err := r.svc.repo.ListPendingBefore(ctx, before, r.cfg.RelayBatch)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return len(rows), r.svc.deliverAll(ctx, rows)
}
