package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setProdEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_ACCESS_SECRET", strings.Repeat("a", 32))
	t.Setenv("JWT_REFRESH_SECRET", strings.Repeat("r", 32))
	t.Setenv("STRIPE_SECRET_KEY", "sk_live_123")
	t.Setenv("ALLOWED_ORIGINS", "https://gigmarket.example")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	assert.NoError(t, err)
	if cfg == nil {
		t.Fatal("конфигурация не загружена")
	}

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Production_Valid(t *testing.T) {
	setProdEnv(t)

	cfg, err := Load()
	assert.NoError(t, err)
	if cfg == nil {
		t.Fatal("конфигурация не загружена")
	}
	assert.True(t, cfg.IsProduction())
}

func TestLoad_Production_DevSecretsRejected(t *testing.T) {
	setProdEnv(t)
	t.Setenv("JWT_ACCESS_SECRET", "dev-access-secret")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_ACCESS_SECRET")
}

func TestLoad_Production_ShortSecretsRejected(t *testing.T) {
	setProdEnv(t)
	t.Setenv("JWT_REFRESH_SECRET", "short")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "32")
}

func TestLoad_Production_MissingStripeKey(t *testing.T) {
	setProdEnv(t)
	t.Setenv("STRIPE_SECRET_KEY", "")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_SECRET_KEY")
}

func TestLoad_Production_WildcardOriginsRejected(t *testing.T) {
	setProdEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "*")

	_, err := Load()
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList("a, b"))
	assert.Equal(t, []string{"a"}, splitList("a,,"))
	assert.Empty(t, splitList(""))
}
