package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_URL", "sqlite:///tmp/portal.db")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Stripe.Currency != "eur" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Stripe.ProviderTimeout != 10*time.Second || cfg.Stripe.CheckoutExpiry != 30*time.Minute {
		t.Fatalf("unexpected stripe timing %+v", cfg.Stripe)
	}
	if cfg.Notify.RelayBatch != 50 || cfg.IsProduction() {
		t.Fatalf("unexpected notify config %+v", cfg.Notify)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"expiry too short", "STRIPE_CHECKOUT_EXPIRY", "5m", "STRIPE_CHECKOUT_EXPIRY"},
		{"expiry too long", "STRIPE_CHECKOUT_EXPIRY", "48h", "STRIPE_CHECKOUT_EXPIRY"},
		{"zero timeout", "STRIPE_PROVIDER_TIMEOUT", "0s", "STRIPE_PROVIDER_TIMEOUT"},
		{"empty batch", "NOTIFY_RELAY_BATCH", "0", "NOTIFY_RELAY_BATCH"},
		{"zero relay interval", "NOTIFY_RELAY_INTERVAL", "0s", "NOTIFY_RELAY_INTERVAL"},
		{"negative relay interval", "NOTIFY_RELAY_INTERVAL", "-5s", "NOTIFY_RELAY_INTERVAL"},
		{"negative relay grace", "NOTIFY_RELAY_GRACE", "-1m", "NOTIFY_RELAY_GRACE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.val)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	setRequired(t)
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing webhook secret to fail")
	}
}
