package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "cartsync", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "http://localhost:8090/api", cfg.Remote.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, "badger", cfg.Store.Backend)
	assert.Equal(t, "data/cart", cfg.Store.Path)
	assert.Equal(t, "cartsync:", cfg.Store.KeyPrefix)
	assert.True(t, cfg.Store.AllowMemoryFallback)
	assert.True(t, decimal.RequireFromString("0.10").Equal(cfg.Pricing.TaxRate))
	assert.True(t, cfg.Pricing.Shipping.IsZero())
	assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	assert.Equal(t, "cartsync", cfg.Telemetry.ServiceName)
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CART_REMOTE_BASE_URL", "https://shop.example.com/api")
	t.Setenv("CART_REMOTE_TIMEOUT", "2s")
	t.Setenv("CART_REMOTE_BEARER_TOKEN", "opaque")
	t.Setenv("CART_STORE_BACKEND", "sqlite")
	t.Setenv("CART_STORE_ALLOW_MEMORY_FALLBACK", "false")
	t.Setenv("CART_PRICING_TAX_RATE", "0.2")
	t.Setenv("CART_PRICING_SHIPPING", "4.99")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/api", cfg.Remote.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, "opaque", cfg.Remote.BearerToken)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "data/cart.db", cfg.Store.Path)
	assert.False(t, cfg.Store.AllowMemoryFallback)
	assert.Equal(t, "0.2", cfg.Pricing.TaxRate.String())
	assert.Equal(t, "4.99", cfg.Pricing.Shipping.String())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cart.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[app]
env = "production"

[remote]
base_url = "https://carts.internal/api"
user_id = "kiosk-7"

[store]
backend = "redis"
key_prefix = "kiosk7:"

[redis]
host = "redis.internal"
port = 6380

[pricing]
tax_rate = "0.08"

[http]
cors_allow_origins = ["https://shop.example.com"]
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "kiosk-7", cfg.Remote.UserID)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "kiosk7:", cfg.Store.KeyPrefix)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.RedisAddr())
	assert.Equal(t, "0.08", cfg.Pricing.TaxRate.String())
	assert.Equal(t, []string{"https://shop.example.com"}, cfg.HTTP.CORSAllowOrigins)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{Pricing: PricingConfig{TaxRate: decimal.RequireFromString("0.1")}, Telemetry: TelemetryConfig{SamplingRatio: 1}}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"relative base url", func(c *Config) { c.Remote.BaseURL = "/api" }, "remote.base_url"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "etcd" }, "store.backend"},
		{"tax above one", func(c *Config) { c.Pricing.TaxRate = decimal.NewFromInt(2) }, "pricing.tax_rate"},
		{"negative shipping", func(c *Config) { c.Pricing.Shipping = decimal.NewFromInt(-1) }, "pricing.shipping"},
		{"memory in production", func(c *Config) { c.App.Env = "production"; c.Store.Backend = "memory" }, "memory"},
		{"wildcard cors in production", func(c *Config) {
			c.App.Env = "production"
			c.HTTP.CORSAllowOrigins = []string{"*"}
		}, "cors_allow_origins"},
		{"sampling ratio", func(c *Config) { c.Telemetry.SamplingRatio = 1.5 }, "sampling_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
