package repository

import "go.uber.org/fx"

var Module = fx.Module("repository",
	fx.Provide(NewQuoteRepository),
	fx.Provide(NewIntentRepository),
	fx.Provide(NewWebhookEventRepository),
	fx.Provide(NewNotificationRepository),
	fx.Provide(NewDirectoryRepository),
)
