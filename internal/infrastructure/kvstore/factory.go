package kvstore

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// FactoryConfig selects and configures the persistent backend
type FactoryConfig struct {
	Backend string // badger, sqlite, redis, memory
	Path    string // directory for badger, file for sqlite
	Redis   RedisConfig
	// Tracing enables otelgorm on the sqlite backend
	Tracing bool
}

// Factory creates key-value stores based on configuration
type Factory struct {
	cfg                   FactoryConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	degraded              bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory store when the
// configured backend cannot be opened. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg FactoryConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		cfg:                   cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Degraded reports whether the last CreateStore call fell back to memory
func (f *Factory) Degraded() bool {
	return f.degraded
}

// CreateConfiguredStore opens the configured backend without any fallback
func (f *Factory) CreateConfiguredStore() (Store, error) {
	switch f.cfg.Backend {
	case BackendBadger, "":
		dir := f.cfg.Path
		if dir == "" {
			dir = "data/cart"
		}
		return NewBadgerStore(BadgerConfig{Path: dir}, f.logger)
	case BackendSQLite:
		path := f.cfg.Path
		if path == "" {
			path = filepath.Join("data", "cart.db")
		}
		return NewSQLiteStore(SQLiteConfig{Path: path, Tracing: f.cfg.Tracing, LogLevel: "warn"}, f.logger)
	case BackendRedis:
		return NewRedisStore(f.cfg.Redis)
	case BackendMemory:
		return NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", f.cfg.Backend)
	}
}

// CreateStore opens the configured backend and falls back to an in-memory store
// when it is unavailable and fallback is allowed
func (f *Factory) CreateStore() (Store, error) {
	f.degraded = false

	store, err := f.CreateConfiguredStore()
	if err == nil {
		f.logger.Info("using persistent cart store", zap.String("backend", f.backendName()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("%s store required but unavailable: %w", f.backendName(), err)
	}

	f.logger.Warn("persistent store unavailable, falling back to in-memory store. "+
		"Cart contents will not survive a restart.",
		zap.String("backend", f.backendName()),
		zap.Error(err),
	)
	f.degraded = true
	return NewInMemoryStore(), nil
}

func (f *Factory) backendName() string {
	if f.cfg.Backend == "" {
		return BackendBadger
	}
	return f.cfg.Backend
}
