package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	StoreName    string
	StoreAddress string
	CurrencyCode string

	TaxRatePercent    decimal.Decimal
	LowStockThreshold int

	CartTTL        time.Duration
	SessionTTL     time.Duration
	IdempotencyTTL time.Duration
	LoginRateLimit string

	SessionCookieName string
	CookieDomain      string
	CookieSecure      bool
	CookieSameSite    http.SameSite

	InvoicePDFDir  string
	AlertEmail     string
	MigrateOnStart bool
	MigrationsDir  string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	taxRate, err := parseDecimal(k.String("PRICING_TAX_RATE_PERCENT"), "10")
	if err != nil {
		return nil, fmt.Errorf("PRICING_TAX_RATE_PERCENT: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		StoreName:          valueOrDefault(k.String("STORE_NAME"), "Sunrise Bakery"),
		StoreAddress:       k.String("STORE_ADDRESS"),
		CurrencyCode:       valueOrDefault(k.String("CURRENCY_CODE"), "USD"),
		TaxRatePercent:     taxRate,
		LowStockThreshold:  intOrDefault(k, "LOW_STOCK_THRESHOLD", 5),
		CartTTL:            parseDuration(k.String("CART_TTL"), "24h"),
		SessionTTL:         parseDuration(k.String("SESSION_TTL"), "12h"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "10m"),
		LoginRateLimit:     valueOrDefault(k.String("LOGIN_RATE_LIMIT"), "10-M"),
		SessionCookieName:  valueOrDefault(k.String("SESSION_COOKIE_NAME"), "pos_session"),
		CookieDomain:       strings.TrimSpace(k.String("COOKIE_DOMAIN")),
		CookieSecure:       parseBool(k.String("COOKIE_SECURE")),
		CookieSameSite:     parseSameSite(k.String("COOKIE_SAMESITE")),
		InvoicePDFDir:      valueOrDefault(k.String("INVOICE_PDF_DIR"), "invoices"),
		AlertEmail:         strings.TrimSpace(k.String("ALERT_EMAIL")),
		MigrateOnStart:     parseBool(k.String("MIGRATE_ON_START")),
		MigrationsDir:      valueOrDefault(k.String("MIGRATIONS_DIR"), "db/migrations"),
	}

	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.TaxRatePercent.IsNegative() {
		return nil, errors.New("PRICING_TAX_RATE_PERCENT must not be negative")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func intOrDefault(k *koanf.Koanf, key string, fallback int) int {
	if strings.TrimSpace(k.String(key)) == "" {
		return fallback
	}
	return k.Int(key)
}

func parseDecimal(value, fallback string) (decimal.Decimal, error) {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	return decimal.NewFromString(base)
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
