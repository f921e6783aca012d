package routes

import (
	"net/http"

	adminapi "legal-portal/internal/api/admin"
	"legal-portal/internal/api/billing"
	notificationsapi "legal-portal/internal/api/notifications"
	quotesapi "legal-portal/internal/api/quotes"
	stripewebhooks "legal-portal/internal/api/stripewebhook"
	usersapi "legal-portal/internal/api/users"
	"legal-portal/internal/notify"
	"legal-portal/internal/payments"
	"legal-portal/internal/repository"

	"go.uber.org/fx"
)

var Module = fx.Module("http",
	fx.Provide(newHandlers),
	fx.Provide(NewRouter),
	fx.Provide(NewServer),
	fx.Invoke(func(*http.Server) {}),
)

func newHandlers(
	engine *payments.Engine,
	bridge *payments.Bridge,
	quotes *payments.QuoteService,
	notifications *notify.Service,
	directory repository.DirectoryRepository,
) Handlers {
	return Handlers{
		Billing:       billing.NewHandler(bridge, engine),
		Webhook:       stripewebhooks.NewHandler(engine),
		Quotes:        quotesapi.NewHandler(quotes, engine),
		Notifications: notificationsapi.NewHandler(notifications),
		Admin:         adminapi.NewHandler(engine),
		Users:         usersapi.NewHandler(directory, quotes, engine),
	}
}
