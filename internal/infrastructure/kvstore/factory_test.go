package kvstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// unreachableRedis points at a port nothing listens on
var unreachableRedis = RedisConfig{Host: "127.0.0.1", Port: 1}

func TestFactory_CreateStore(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		f := NewFactory(FactoryConfig{Backend: BackendMemory})
		store, err := f.CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryStore{}, store)
		assert.False(t, f.Degraded())
	})

	t.Run("badger backend", func(t *testing.T) {
		f := NewFactory(FactoryConfig{Backend: BackendBadger, Path: t.TempDir()})
		store, err := f.CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &BadgerStore{}, store)
	})

	t.Run("sqlite backend", func(t *testing.T) {
		f := NewFactory(FactoryConfig{Backend: BackendSQLite, Path: filepath.Join(t.TempDir(), "c.db")})
		store, err := f.CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &SQLiteStore{}, store)
	})

	t.Run("unreachable redis falls back to memory with warning", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		f := NewFactory(FactoryConfig{Backend: BackendRedis, Redis: unreachableRedis},
			WithLogger(zap.New(core)))

		store, err := f.CreateStore()
		require.NoError(t, err)
		defer store.Close()

		assert.IsType(t, &InMemoryStore{}, store)
		assert.True(t, f.Degraded())
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("fallback disabled returns error", func(t *testing.T) {
		f := NewFactory(FactoryConfig{Backend: BackendRedis, Redis: unreachableRedis},
			WithInMemoryFallback(false))
		store, err := f.CreateStore()
		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("unknown backend", func(t *testing.T) {
		f := NewFactory(FactoryConfig{Backend: "etcd"}, WithInMemoryFallback(false))
		_, err := f.CreateStore()
		assert.ErrorContains(t, err, "unknown store backend")
	})
}
