package main

import (
	"legal-portal/config"
	"legal-portal/database"
	routes "legal-portal/internal/app/http"
	stripeinfra "legal-portal/internal/infra/stripe"
	"legal-portal/internal/notify"
	"legal-portal/internal/observability/logger"
	"legal-portal/internal/payments"
	"legal-portal/internal/repository"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		fx.Provide(config.Load),
		fx.Provide(newLogger),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Provide(func(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
			return database.Open(cfg.DBURL, log.Named("database"))
		}),

		repository.Module,
		stripeinfra.Module,
		notify.Module,
		fx.Provide(func(s *notify.Service) payments.Notifier { return s }),
		payments.Module,
		routes.Module,
	)
	app.Run()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Production: cfg.IsProduction(),
	})
}
