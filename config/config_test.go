package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, "USD", cfg.Cardpay.Currency)
	assert.Equal(t, "BDT", cfg.Aamarpay.Currency)
	assert.Equal(t, time.Minute, cfg.Sweeper.Interval)
	assert.Empty(t, cfg.Aamarpay.VerifyURL, "verification is opt-in")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_ACCESS_EXPIRY", "30m")
	t.Setenv("SWEEP_INTERVAL", "15s")
	t.Setenv("AAMARPAY_STORE_ID", "store-123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessExpiry)
	assert.Equal(t, 15*time.Second, cfg.Sweeper.Interval)
	assert.Equal(t, "store-123", cfg.Aamarpay.StoreID)
}
