package payments

import (
	"legal-portal/config"
	"legal-portal/internal/repository"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payments",
	fx.Provide(newConfigs),
	fx.Provide(NewEngine),
	fx.Provide(NewBridge),
	fx.Provide(func(q repository.QuoteRepository, d repository.DirectoryRepository, cfg config.Config, log *zap.Logger) *QuoteService {
		return NewQuoteService(q, d, cfg.Stripe.Currency, log)
	}),
)

func newConfigs(cfg config.Config) (EngineConfig, BridgeConfig) {
	return EngineConfig{ProviderTimeout: cfg.Stripe.ProviderTimeout},
		BridgeConfig{ProviderTimeout: cfg.Stripe.ProviderTimeout, CheckoutExpiry: cfg.Stripe.CheckoutExpiry}
}
