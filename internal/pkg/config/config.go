// Package config loads the service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port         string
	DatabasePath string
	RedisAddr    string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeCurrency      string

	JWTSecret   string
	SellerEmail string
	BaseURL     string

	OTLPEndpoint string
	ServiceName  string
	LogLevel     slog.Level

	WebhookWorkers  int
	WebhookDedupTTL time.Duration
	PendingOrderTTL time.Duration
	SweepInterval   time.Duration
}

// Load reads every setting, falling back to local development defaults.
// Malformed numbers and durations are reported together.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		Port:                getEnv("PORT", "4000"),
		DatabasePath:        getEnv("DATABASE_PATH", "./data/storefront.db"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeCurrency:      strings.ToLower(getEnv("STRIPE_CURRENCY", "sgd")),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		SellerEmail:         os.Getenv("SELLER_EMAIL"),
		BaseURL:             strings.TrimRight(os.Getenv("BASE_URL"), "/"),
		OTLPEndpoint:        os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:         getEnv("OTEL_SERVICE_NAME", "storefront-orders"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	var err error
	if cfg.WebhookWorkers, err = strconv.Atoi(getEnv("WEBHOOK_WORKERS", "4")); err != nil || cfg.WebhookWorkers < 1 {
		errs = append(errs, errors.New("WEBHOOK_WORKERS: must be a positive integer"))
	}
	cfg.WebhookDedupTTL = duration("WEBHOOK_DEDUP_TTL", "72h", &errs)
	cfg.PendingOrderTTL = duration("PENDING_ORDER_TTL", "48h", &errs)
	cfg.SweepInterval = duration("SWEEP_INTERVAL", "1h", &errs)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the secrets the HTTP server cannot run without.
func (c *Config) Validate() error {
	var missing []string
	for name, v := range map[string]string{
		"STRIPE_SECRET_KEY":     c.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET": c.StripeWebhookSecret,
		"JWT_SECRET":            c.JWTSecret,
		"SELLER_EMAIL":          c.SellerEmail,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	if c.PendingOrderTTL < 24*time.Hour {
		return fmt.Errorf("config: PENDING_ORDER_TTL %s is shorter than a checkout session's lifetime", c.PendingOrderTTL)
	}
	return nil
}

// AllowedOrigins is the storefront dev server plus the deployed frontend.
func (c *Config) AllowedOrigins() []string {
	origins := []string{"http://localhost:5173"}
	if c.BaseURL != "" {
		origins = append(origins, c.BaseURL)
	}
	return origins
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func duration(key, fallback string, errs *[]error) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: must be a positive duration like %s", key, fallback))
		return 0
	}
	return d
}
