package stripe

import (
	"legal-portal/config"
	"legal-portal/internal/payments"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("stripe",
	fx.Provide(func(cfg config.Config, log *zap.Logger) payments.Provider {
		return NewProvider(Config{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			AppURL:        cfg.AppURL,
		}, log)
	}),
)
