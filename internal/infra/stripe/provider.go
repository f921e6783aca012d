// Package stripe adapts Stripe Checkout to payments.Provider.
package stripe

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"legal-portal/internal/domain/quotes"
	"legal-portal/internal/observability/logger"
	"legal-portal/internal/payments"

	stripeapi "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
	"go.uber.org/zap"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	AppURL        string
	// BaseURL overrides the Stripe API endpoint (tests, stripe-mock).
	BaseURL string
}

type Provider struct {
	api           *client.API
	webhookSecret string
	appURL        string
	log           *zap.Logger
}

var _ payments.Provider = (*Provider)(nil)

func NewProvider(cfg Config, log *zap.Logger) *Provider {
	backendCfg := &stripeapi.BackendConfig{
		HTTPClient:    &http.Client{Timeout: 80 * time.Second},
		LeveledLogger: log.Named("stripe-sdk").Sugar(),
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripeapi.String(cfg.BaseURL)
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, &stripeapi.Backends{
		API:     stripeapi.GetBackendWithConfig(stripeapi.APIBackend, backendCfg),
		Connect: stripeapi.GetBackendWithConfig(stripeapi.ConnectBackend, backendCfg),
		Uploads: stripeapi.GetBackendWithConfig(stripeapi.UploadsBackend, backendCfg),
	})

	log = log.Named("stripe")
	log.Info("stripe client configured",
		zap.String("secret_key", logger.MaskSecret(cfg.SecretKey)),
		zap.Bool("webhook_secret_set", cfg.WebhookSecret != ""),
	)

	return &Provider{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		appURL:        cfg.AppURL,
		log:           log,
	}
}

func (p *Provider) CreateCheckoutSession(ctx context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	metadata := map[string]string{
		"quote_id":  req.QuoteID,
		"client_id": strconv.FormatUint(uint64(req.ClientID), 10),
		"lawyer_id": strconv.FormatUint(uint64(req.LawyerID), 10),
	}

	name := req.CaseTitle
	if name == "" {
		name = "Legal services"
	}

	params := &stripeapi.CheckoutSessionParams{
		Mode:       stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		SuccessURL: stripeapi.String(fmt.Sprintf("%s/payments/success?session_id={CHECKOUT_SESSION_ID}&quote_id=%s", p.appURL, req.QuoteID)),
		CancelURL:  stripeapi.String(fmt.Sprintf("%s/quotes/%s?canceled=1", p.appURL, req.QuoteID)),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripeapi.String(req.Currency),
					UnitAmount: stripeapi.Int64(quotes.MinorUnits(req.Amount)),
					ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripeapi.String(name),
					},
				},
				Quantity: stripeapi.Int64(1),
			},
		},
		ClientReferenceID: stripeapi.String(req.QuoteID),
		PaymentIntentData: &stripeapi.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	if req.Description != "" {
		params.LineItems[0].PriceData.ProductData.Description = stripeapi.String(req.Description)
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripeapi.String(req.CustomerEmail)
	}
	if !req.ExpiresAt.IsZero() {
		params.ExpiresAt = stripeapi.Int64(req.ExpiresAt.Unix())
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %v", payments.ErrProvider, err)
	}
	p.log.Info("checkout session created",
		zap.String("session_id", s.ID),
		zap.String("quote_id", req.QuoteID),
	)
	return toSession(s), nil
}

func (p *Provider) GetCheckoutSession(ctx context.Context, sessionID string) (*payments.CheckoutSession, error) {
	params := &stripeapi.CheckoutSessionParams{}
	params.Context = ctx

	s, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: get checkout session %s: %v", payments.ErrProvider, sessionID, err)
	}
	return toSession(s), nil
}

func (p *Provider) ExpireCheckoutSession(ctx context.Context, sessionID string) error {
	params := &stripeapi.CheckoutSessionExpireParams{}
	params.Context = ctx

	if _, err := p.api.CheckoutSessions.Expire(sessionID, params); err != nil {
		return fmt.Errorf("%w: expire checkout session %s: %v", payments.ErrProvider, sessionID, err)
	}
	return nil
}

func toSession(s *stripeapi.CheckoutSession) *payments.CheckoutSession {
	out := &payments.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: NormalizePaymentStatus(string(s.PaymentStatus)),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out
}
