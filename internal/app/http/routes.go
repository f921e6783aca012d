package routes

import (
	"net/http"
	"time"

	"legal-portal/config"
	adminapi "legal-portal/internal/api/admin"
	"legal-portal/internal/api/billing"
	notificationsapi "legal-portal/internal/api/notifications"
	quotesapi "legal-portal/internal/api/quotes"
	stripewebhooks "legal-portal/internal/api/stripewebhook"
	usersapi "legal-portal/internal/api/users"
	"legal-portal/internal/app/http/middleware"
	"legal-portal/internal/domain/users"
	"legal-portal/internal/observability/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	Billing       *billing.Handler
	Webhook       *stripewebhooks.Handler
	Quotes        *quotesapi.Handler
	Notifications *notificationsapi.Handler
	Admin         *adminapi.Handler
	Users         *usersapi.Handler
}

// NewRouter builds the gin engine with CORS, request logging and every route.
func NewRouter(cfg config.Config, log *zap.Logger, h Handlers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		Logger:    log,
		SkipPaths: []string{"/health"},
	}))

	// CORS before routes so preflight requests are answered.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterRoutes(r, h, middleware.AuthMiddleware(cfg.JWTSecret, log))
	return r
}

func RegisterRoutes(r *gin.Engine, h Handlers, authn gin.HandlerFunc) {
	// Raw body: the signature covers the exact bytes.
	r.POST("/webhook", h.Webhook.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Authenticated
	auth := r.Group("/")
	auth.Use(authn)
	auth.GET("/me", h.Users.GetCurrentUser)
	auth.GET("/payments", h.Billing.GetPaymentHistory)
	auth.POST("/payments/checkout", h.Billing.CreateCheckoutSession)
	auth.POST("/payments/verify", h.Billing.VerifyPayment)
	auth.GET("/notifications", h.Notifications.ListNotifications)

	auth.GET("/quotes", h.Quotes.ListQuotes)
	auth.GET("/quotes/:id", h.Quotes.GetQuote)
	auth.POST("/quotes/:id/send", h.Quotes.SendQuote)
	auth.POST("/quotes/:id/accept", h.Quotes.AcceptQuote)
	auth.POST("/quotes/:id/withdraw", h.Quotes.WithdrawQuote)

	lawyer := auth.Group("/")
	lawyer.Use(middleware.RequireRole(users.RoleLawyer), middleware.SanitizeAndCleanInputMiddleware())
	lawyer.POST("/quotes", h.Quotes.CreateQuote)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(authn, middleware.RequireRole(users.RoleAdmin))
	admin.GET("/payments", h.Admin.ListAllPayments)
	admin.GET("/stats", h.Admin.GetAdminStats)
	admin.GET("/reconciliation/stuck", h.Admin.ListStuck)
	admin.POST("/reconciliation/repair", h.Admin.RepairStuck)
}
