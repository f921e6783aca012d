package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Env        string `env:"APP_ENV" envDefault:"development"`
	Port       string `env:"PORT" envDefault:"8080"`
	AppURL     string `env:"APP_URL" envDefault:"http://localhost:5173"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"http://localhost:5173"`
	DBURL      string `env:"DB_URL,required,notEmpty"`
	JWTSecret  string `env:"JWT_SECRET,required,notEmpty"`

	Log    Log    `envPrefix:"LOG_"`
	Stripe Stripe `envPrefix:"STRIPE_"`
	SMTP   SMTP   `envPrefix:"SMTP_"`
	Notify Notify `envPrefix:"NOTIFY_"`
}

type Log struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

type Stripe struct {
	SecretKey       string        `env:"SECRET_KEY,required,notEmpty"`
	WebhookSecret   string        `env:"WEBHOOK_SECRET,required,notEmpty"`
	Currency        string        `env:"CURRENCY" envDefault:"eur"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`
	CheckoutExpiry  time.Duration `env:"CHECKOUT_EXPIRY" envDefault:"30m"`
}

// SMTP is optional; with an empty Host notifications are only logged.
type SMTP struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"587"`
	From     string `env:"FROM"`
	Password string `env:"PASSWORD"`
}

type Notify struct {
	RelayInterval time.Duration `env:"RELAY_INTERVAL" envDefault:"30s"`
	RelayGrace    time.Duration `env:"RELAY_GRACE" envDefault:"1m"`
	RelayBatch    int           `env:"RELAY_BATCH" envDefault:"50"`
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads .env (when present) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Stripe.CheckoutExpiry < 30*time.Minute || c.Stripe.CheckoutExpiry > 24*time.Hour {
		// Stripe rejects expires_at outside this window.
		return fmt.Errorf("STRIPE_CHECKOUT_EXPIRY must be between 30m and 24h, got %s", c.Stripe.CheckoutExpiry)
	}
	if c.Stripe.ProviderTimeout <= 0 {
		return fmt.Errorf("STRIPE_PROVIDER_TIMEOUT must be positive")
	}
	if c.Notify.RelayInterval <= 0 {
		return fmt.Errorf("NOTIFY_RELAY_INTERVAL must be positive")
	}
	if c.Notify.RelayGrace < 0 {
		return fmt.Errorf("NOTIFY_RELAY_GRACE must not be negative")
	}
	if c.Notify.RelayBatch <= 0 {
		return fmt.Errorf("NOTIFY_RELAY_BATCH must be positive")
	}
	return nil
}
