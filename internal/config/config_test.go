package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ovenline/backend-bakery/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"DATABASE_URL":             "postgres://localhost/bakery",
		"REDIS_URL":                "redis://localhost:6379/0",
		"PRICING_TAX_RATE_PERCENT": "",
		"PORT":                     "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "10", cfg.TaxRatePercent.String())
	require.Equal(t, "USD", cfg.CurrencyCode)
	require.Equal(t, 5, cfg.LowStockThreshold)
	require.Equal(t, "pos_session", cfg.SessionCookieName)
}

func TestLoadRequiresDatabase(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379/0",
	})
	require.Error(t, err)
}

func TestLoadRejectsNegativeTaxRate(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"DATABASE_URL":             "postgres://localhost/bakery",
		"REDIS_URL":                "redis://localhost:6379/0",
		"PRICING_TAX_RATE_PERCENT": "-1",
	})
	require.Error(t, err)
}
