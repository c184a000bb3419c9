// Package session mints and remembers the anonymous guest cart identity.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/cartsync/internal/domain/cart"
)

// IdentityStore persists the session identity
type IdentityStore interface {
	LoadSessionID(ctx context.Context) (cart.SessionID, bool)
	SaveSessionID(ctx context.Context, id cart.SessionID) error
}

// Manager is the SessionIdentityManager. It never fails: when the identity
// cannot be persisted it keeps using an in-memory identity for the process
// lifetime and reports Degraded.
type Manager struct {
	store  IdentityStore
	logger *zap.Logger
	newID  func() string

	mu       sync.Mutex
	current  cart.SessionID
	degraded bool
}

// NewManager creates a Manager over store
func NewManager(store IdentityStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:  store,
		logger: logger.Named("session"),
		newID:  uuid.NewString,
	}
}

// GetOrCreate returns the persisted identity, minting and persisting one if absent
func (m *Manager) GetOrCreate(ctx context.Context) cart.SessionID {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.current.IsZero() {
		return m.current
	}
	if id, ok := m.store.LoadSessionID(ctx); ok {
		m.current = id
		return id
	}
	return m.mintLocked(ctx)
}

// Reset discards the current identity and mints a fresh one
func (m *Manager) Reset(ctx context.Context) cart.SessionID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mintLocked(ctx)
}

// Degraded reports whether the current identity lives only in memory
func (m *Manager) Degraded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.degraded
}

func (m *Manager) mintLocked(ctx context.Context) cart.SessionID {
	id := cart.SessionID(m.newID())
	m.current = id
	if err := m.store.SaveSessionID(ctx, id); err != nil {
		m.degraded = true
		m.logger.Warn("session identity not persisted, using in-memory identity",
			zap.String("session_id", id.String()),
			zap.Error(err),
		)
		return id
	}
	m.degraded = false
	m.logger.Info("minted cart session", zap.String("session_id", id.String()))
	return id
}

var _ cart.SessionProvider = (*Manager)(nil)
