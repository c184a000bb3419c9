package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	Remote    RemoteConfig
	Store     StoreConfig
	Redis     RedisConfig
	Pricing   PricingConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// RemoteConfig points at the authoritative cart service
type RemoteConfig struct {
	BaseURL     string
	Timeout     time.Duration
	BearerToken string
	UserID      string
}

// StoreConfig selects the local fallback store
type StoreConfig struct {
	Backend             string // badger, sqlite, redis, memory
	Path                string
	KeyPrefix           string
	AllowMemoryFallback bool
}

// RedisConfig holds Redis connection settings for the redis store backend
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// PricingConfig holds the totals policy
type PricingConfig struct {
	TaxRate  decimal.Decimal
	Shipping decimal.Decimal
}

// HTTPConfig holds the UI-facing HTTP server settings
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	CORSAllowOrigins []string
}

// TelemetryConfig holds OpenTelemetry settings
type TelemetryConfig struct {
	Enabled               bool
	CollectorEndpoint     string
	SamplingRatio         float64
	ServiceName           string
	Insecure              bool
	MetricsExportInterval time.Duration
	StoreTraceEnabled     bool
}

// Load reads configuration.
// Priority (highest to lowest):
// 1. Environment variables with CART_ prefix (e.g., CART_REMOTE_BASE_URL)
// 2. config.toml in the working directory or /etc/cartsync
// 3. Built-in defaults
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/cartsync")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return build(v)
}

// LoadFile reads configuration from an explicit TOML file, still honouring CART_ overrides
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("CART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func build(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Remote: RemoteConfig{
			BaseURL:     v.GetString("remote.base_url"),
			Timeout:     v.GetDuration("remote.timeout"),
			BearerToken: v.GetString("remote.bearer_token"),
			UserID:      v.GetString("remote.user_id"),
		},
		Store: StoreConfig{
			Backend:   v.GetString("store.backend"),
			Path:      v.GetString("store.path"),
			KeyPrefix: v.GetString("store.key_prefix"),
			// fallback is on unless explicitly disabled
			AllowMemoryFallback: !v.IsSet("store.allow_memory_fallback") || v.GetBool("store.allow_memory_fallback"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
		},
		Telemetry: TelemetryConfig{
			Enabled:               v.GetBool("telemetry.enabled"),
			CollectorEndpoint:     v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:         v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:           v.GetString("telemetry.service_name"),
			Insecure:              v.GetBool("telemetry.insecure"),
			MetricsExportInterval: v.GetDuration("telemetry.metrics_export_interval"),
			StoreTraceEnabled:     v.GetBool("telemetry.store_trace_enabled"),
		},
	}

	var err error
	if cfg.Pricing.TaxRate, err = decimalSetting(v, "pricing.tax_rate", "0.10"); err != nil {
		return nil, err
	}
	if cfg.Pricing.Shipping, err = decimalSetting(v, "pricing.shipping", "0"); err != nil {
		return nil, err
	}
	if !v.IsSet("telemetry.sampling_ratio") {
		cfg.Telemetry.SamplingRatio = 1.0
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decimalSetting parses a money or rate value given as a TOML string or number
func decimalSetting(v *viper.Viper, key, def string) (decimal.Decimal, error) {
	raw := v.GetString(key)
	if raw == "" {
		raw = def
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid decimal %q: %w", key, raw, err)
	}
	return d, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "cartsync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Remote.BaseURL == "" {
		cfg.Remote.BaseURL = "http://localhost:8090/api"
	}
	if cfg.Remote.Timeout == 0 {
		cfg.Remote.Timeout = 5 * time.Second
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "badger"
	}
	if cfg.Store.Path == "" {
		switch cfg.Store.Backend {
		case "sqlite":
			cfg.Store.Path = "data/cart.db"
		default:
			cfg.Store.Path = "data/cart"
		}
	}
	if cfg.Store.KeyPrefix == "" {
		cfg.Store.KeyPrefix = "cartsync:"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if len(cfg.HTTP.CORSAllowOrigins) == 0 {
		cfg.HTTP.CORSAllowOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsExportInterval == 0 {
		cfg.Telemetry.MetricsExportInterval = 60 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	u, err := url.Parse(c.Remote.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("remote.base_url must be an absolute URL, got %q", c.Remote.BaseURL)
	}
	if c.Remote.Timeout < 0 {
		return fmt.Errorf("remote.timeout cannot be negative")
	}

	switch c.Store.Backend {
	case "badger", "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("store.backend must be one of badger, sqlite, redis, memory, got %q", c.Store.Backend)
	}

	if c.Pricing.TaxRate.IsNegative() || c.Pricing.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("pricing.tax_rate must be between 0 and 1, got %s", c.Pricing.TaxRate)
	}
	if c.Pricing.Shipping.IsNegative() {
		return fmt.Errorf("pricing.shipping cannot be negative")
	}

	if c.App.Env == "production" {
		if c.Store.Backend == "memory" {
			return fmt.Errorf("store.backend cannot be 'memory' in production (carts would not survive a restart)")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	return nil
}

// RedisAddr returns host:port
func (r RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
