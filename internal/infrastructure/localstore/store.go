// Package localstore persists the last known-good cart snapshot and the
// anonymous session identity in a key-value store.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/infrastructure/kvstore"
)

// DefaultKeyPrefix scopes the two logical keys
const DefaultKeyPrefix = "cartsync:"

const (
	sessionKey  = "session_id"
	snapshotKey = "cart_snapshot"
)

// Store is the LocalCartStore. Once the backing store fails, it keeps working
// from an in-memory copy for the rest of the process lifetime and every write
// reports cart.ErrStoreUnavailable.
type Store struct {
	kv     kvstore.Store
	prefix string
	logger *zap.Logger

	mu       sync.Mutex
	degraded bool
	memory   map[string][]byte
}

// Option configures a Store
type Option func(*Store)

// WithKeyPrefix overrides DefaultKeyPrefix
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Store over kv
func New(kv kvstore.Store, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		prefix: DefaultKeyPrefix,
		logger: zap.NewNop(),
		memory: make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionKey is the full key holding the session identity
func (s *Store) SessionKey() string { return s.prefix + sessionKey }

// SnapshotKey is the full key holding the serialized snapshot
func (s *Store) SnapshotKey() string { return s.prefix + snapshotKey }

// Degraded reports whether the store has switched to memory-only mode
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Load returns the persisted snapshot. Absent and corrupt values both report ok == false.
func (s *Store) Load(ctx context.Context) (cart.Snapshot, bool) {
	raw, ok := s.get(ctx, s.SnapshotKey())
	if !ok {
		return nil, false
	}

	var items []cart.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Warn("discarding unreadable cart snapshot",
			zap.String("key", s.SnapshotKey()),
			zap.Error(err),
		)
		return nil, false
	}
	return cart.Snapshot(items).Normalize(), true
}

// Save persists snap as a JSON array
func (s *Store) Save(ctx context.Context, snap cart.Snapshot) error {
	items := []cart.Item(snap)
	if items == nil {
		items = []cart.Item{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	return s.set(ctx, s.SnapshotKey(), raw)
}

// Clear removes the persisted snapshot
func (s *Store) Clear(ctx context.Context) error {
	return s.delete(ctx, s.SnapshotKey())
}

// LoadSessionID returns the persisted session identity
func (s *Store) LoadSessionID(ctx context.Context) (cart.SessionID, bool) {
	raw, ok := s.get(ctx, s.SessionKey())
	if !ok || len(raw) == 0 {
		return "", false
	}
	return cart.SessionID(raw), true
}

// SaveSessionID persists the session identity
func (s *Store) SaveSessionID(ctx context.Context, id cart.SessionID) error {
	return s.set(ctx, s.SessionKey(), []byte(id))
}

func (s *Store) get(ctx context.Context, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.degraded {
		v, ok := s.memory[key]
		return v, ok
	}

	v, err := s.kv.Get(ctx, key)
	switch {
	case err == nil:
		return v, true
	case errors.Is(err, kvstore.ErrNotFound):
		return nil, false
	default:
		s.degradeLocked(err)
		return nil, false
	}
}

func (s *Store) set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.degraded {
		err := s.kv.Set(ctx, key, value)
		if err == nil {
			return nil
		}
		s.degradeLocked(err)
	}
	s.memory[key] = value
	return fmt.Errorf("%w: %s kept in memory only", cart.ErrStoreUnavailable, key)
}

func (s *Store) delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.degraded {
		err := s.kv.Delete(ctx, key)
		if err == nil {
			return nil
		}
		s.degradeLocked(err)
	}
	delete(s.memory, key)
	return fmt.Errorf("%w: %s cleared in memory only", cart.ErrStoreUnavailable, key)
}

// degradeLocked switches to memory-only mode; callers hold s.mu
func (s *Store) degradeLocked(cause error) {
	if s.degraded {
		return
	}
	s.degraded = true
	s.logger.Warn("local cart store unavailable, keeping cart in memory for this process",
		zap.Error(cause),
	)
}

var _ cart.SnapshotStore = (*Store)(nil)
