package notify

import (
	"context"

	"legal-portal/config"

	"go.uber.org/fx"
)

var Module = fx.Module("notify",
	fx.Provide(func(cfg config.Config) config.SMTP { return cfg.SMTP }),
	fx.Provide(func(cfg config.Config) config.Notify { return cfg.Notify }),
	fx.Provide(NewMailer),
	fx.Provide(NewService),
	fx.Provide(NewRelay),
	fx.Invoke(runRelay),
)

func runRelay(lc fx.Lifecycle, relay *Relay) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				relay.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stop context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stop.Done():
				return stop.Err()
			}
		},
	})
}
