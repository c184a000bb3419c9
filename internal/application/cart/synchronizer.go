// Package cart orchestrates cart mutations between the remote cart service and
// the local fallback store.
package cart

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/infrastructure/logger"
	"github.com/storefront/cartsync/internal/infrastructure/telemetry"
)

// Operation names used in logs and metrics
const (
	OpFetch  = "fetch"
	OpAdd    = "add"
	OpRemove = "remove"
	OpUpdate = "update"
	OpClear  = "clear"
)

// State is a point-in-time copy of what the UI renders
type State struct {
	SessionID cart.SessionID
	Items     cart.Snapshot
	Totals    cart.Totals
	Loading   bool
	LastError error
}

// Synchronizer owns the in-process cart snapshot for one session. Every
// mutation tries the remote service first and degrades to the equivalent
// local-only mutation when it fails.
type Synchronizer struct {
	remote   cart.RemoteGateway
	local    cart.SnapshotStore
	sessions cart.SessionProvider
	calc     cart.Calculator
	logger   *zap.Logger
	metrics  *telemetry.SyncMetrics

	mu        sync.Mutex
	session   cart.SessionID
	snapshot  cart.Snapshot
	inFlight  int
	lastError error
	busy      map[string]struct{}

	subMu     sync.Mutex
	nextSubID int
	subs      map[int]func(State)
}

// Option configures a Synchronizer
type Option func(*Synchronizer)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCalculator overrides the default totals policy
func WithCalculator(c cart.Calculator) Option {
	return func(s *Synchronizer) {
		s.calc = c
	}
}

// WithMetrics records sync outcomes
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(s *Synchronizer) {
		s.metrics = m
	}
}

// NewSynchronizer creates a Synchronizer. The snapshot starts from whatever the
// local store holds until the first fetch.
func NewSynchronizer(remote cart.RemoteGateway, local cart.SnapshotStore, sessions cart.SessionProvider, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		remote:   remote,
		local:    local,
		sessions: sessions,
		calc:     cart.DefaultCalculator(),
		logger:   zap.NewNop(),
		busy:     make(map[string]struct{}),
		subs:     make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("cart_sync")
	s.session = sessions.GetOrCreate(context.Background())

	if snap, ok := local.Load(context.Background()); ok {
		s.snapshot = snap
	} else {
		s.snapshot = cart.EmptySnapshot()
	}
	return s
}

// State returns a copy of the current snapshot, loading flag and last error
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Totals derives the totals of the current snapshot
func (s *Synchronizer) Totals() cart.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calc.Calculate(s.snapshot)
}

// Subscribe registers fn to receive the state after every change. The returned
// function unregisters it. fn must not call back into the Synchronizer synchronously.
func (s *Synchronizer) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// FetchCartItems replaces the snapshot with the remote cart. When the remote
// service fails it falls back to the persisted snapshot, or an empty cart.
func (s *Synchronizer) FetchCartItems(ctx context.Context) {
	ctx, session := s.sessionContext(ctx)

	s.begin()
	defer s.end()

	s.fetch(ctx, session)
}

// fetch is FetchCartItems without the loading bookkeeping
func (s *Synchronizer) fetch(ctx context.Context, session cart.SessionID) {
	remote, err := s.remote.Fetch(ctx, session)
	s.metrics.RecordRemote(ctx, OpFetch, err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		s.snapshot = remote
		s.lastError = s.persistLocked(ctx)
		return
	}

	s.metrics.RecordFallback(ctx, OpFetch)
	if snap, ok := s.local.Load(ctx); ok {
		s.snapshot = snap
	} else {
		s.snapshot = cart.EmptySnapshot()
	}
	s.lastError = err
	s.log(ctx).Warn("cart fetch failed, using local snapshot",
		zap.Int("items", s.snapshot.Len()),
		zap.Error(err),
	)
}

// AddToCart adds quantity of product. On remote failure the line is merged
// into the local snapshot.
func (s *Synchronizer) AddToCart(ctx context.Context, product cart.Product, quantity int) error {
	if err := product.Validate(); err != nil {
		s.metrics.RecordRejected(ctx, "invalid_product")
		return err
	}
	item, err := cart.NewItem(product, quantity)
	if err != nil {
		s.metrics.RecordRejected(ctx, "invalid_quantity")
		return err
	}

	release, err := s.acquire(ctx, item.ID)
	if err != nil {
		return err
	}
	defer release()

	ctx, session := s.sessionContext(ctx)

	s.begin()
	defer s.end()

	err = s.remote.Add(ctx, session, product.ProductID, product.VariantID, quantity)
	s.metrics.RecordRemote(ctx, OpAdd, err)
	if err == nil {
		s.fetch(ctx, session)
		return nil
	}

	s.fallback(ctx, OpAdd, err, func(snap cart.Snapshot) cart.Snapshot {
		return snap.Merge(item)
	})
	return nil
}

// RemoveFromCart removes a line. On remote failure it is filtered out of the
// local snapshot.
func (s *Synchronizer) RemoveFromCart(ctx context.Context, itemID string) error {
	release, err := s.acquire(ctx, itemID)
	if err != nil {
		return err
	}
	defer release()

	ctx, session := s.sessionContext(ctx)

	s.begin()
	defer s.end()

	err = s.remote.Remove(ctx, session, itemID)
	s.metrics.RecordRemote(ctx, OpRemove, err)
	if err == nil {
		s.fetch(ctx, session)
		return nil
	}

	s.fallback(ctx, OpRemove, err, func(snap cart.Snapshot) cart.Snapshot {
		return snap.Remove(itemID)
	})
	return nil
}

// UpdateCartItemQuantity sets the quantity of an existing line as a remote
// remove followed by a remote add. A quantity of zero or less removes the line.
//
// If the remote remove fails nothing has changed anywhere and ErrUpdateAborted
// is returned. If the remove succeeds but the add fails, the new quantity is
// written locally and stays there until the next successful fetch, even though
// the remote cart no longer holds the line.
func (s *Synchronizer) UpdateCartItemQuantity(ctx context.Context, itemID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveFromCart(ctx, itemID)
	}

	release, err := s.acquire(ctx, itemID)
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	item, ok := s.snapshot.Find(itemID)
	s.mu.Unlock()
	if !ok {
		s.metrics.RecordRejected(ctx, "not_found")
		return cart.ErrItemNotFound
	}

	ctx, session := s.sessionContext(ctx)

	s.begin()
	defer s.end()

	err = s.remote.Remove(ctx, session, itemID)
	s.metrics.RecordRemote(ctx, OpRemove, err)
	if err != nil {
		s.mu.Lock()
		s.lastError = err
		s.mu.Unlock()
		s.log(ctx).Warn("quantity update aborted, remote remove failed",
			zap.String("item_id", itemID),
			zap.Error(err),
		)
		return errors.Join(cart.ErrUpdateAborted, err)
	}

	err = s.remote.Add(ctx, session, item.ProductID, item.VariantID, quantity)
	s.metrics.RecordRemote(ctx, OpAdd, err)
	if err == nil {
		s.fetch(ctx, session)
		return nil
	}

	// A fetch triggered by another item may have dropped the line meanwhile,
	// so write the captured line back rather than only patching its quantity.
	updated := item
	updated.Quantity = quantity
	s.fallback(ctx, OpUpdate, err, func(snap cart.Snapshot) cart.Snapshot {
		return snap.Upsert(updated)
	})
	return nil
}

// ClearCart empties the remote cart, and always empties the local snapshot and
// store whatever the remote outcome.
func (s *Synchronizer) ClearCart(ctx context.Context) {
	ctx, session := s.sessionContext(ctx)

	s.begin()
	defer s.end()

	remoteErr := s.remote.Clear(ctx, session)
	s.metrics.RecordRemote(ctx, OpClear, remoteErr)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = cart.EmptySnapshot()
	storeErr := s.local.Clear(ctx)
	s.lastError = errors.Join(remoteErr, storeErr)

	if remoteErr != nil {
		s.metrics.RecordFallback(ctx, OpClear)
		s.log(ctx).Warn("remote cart clear failed, cleared locally", zap.Error(remoteErr))
	}
}

// ResetSession starts a fresh anonymous session with an empty cart
func (s *Synchronizer) ResetSession(ctx context.Context) cart.SessionID {
	session := s.sessions.Reset(ctx)
	ctx = logger.WithSessionID(ctx, session.String())

	s.mu.Lock()
	s.session = session
	s.snapshot = cart.EmptySnapshot()
	s.lastError = s.local.Clear(ctx)
	state := s.stateLocked()
	s.mu.Unlock()

	s.log(ctx).Info("cart session reset")
	s.publish(state)
	return session
}

// fallback applies mutate to the snapshot, persists it, and records remoteErr
func (s *Synchronizer) fallback(ctx context.Context, op string, remoteErr error, mutate func(cart.Snapshot) cart.Snapshot) {
	s.metrics.RecordFallback(ctx, op)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = mutate(s.snapshot)
	s.lastError = errors.Join(remoteErr, s.persistLocked(ctx))
	s.log(ctx).Warn("remote cart unavailable, applied change locally",
		zap.String("operation", op),
		zap.Int("items", s.snapshot.Len()),
		zap.Error(remoteErr),
	)
}

// persistLocked writes the snapshot through to the local store; callers hold s.mu
func (s *Synchronizer) persistLocked(ctx context.Context) error {
	if err := s.local.Save(ctx, s.snapshot); err != nil {
		s.log(ctx).Warn("failed to persist cart snapshot", zap.Error(err))
		return err
	}
	return nil
}

// acquire marks itemID busy, or rejects the call if it already is
func (s *Synchronizer) acquire(ctx context.Context, itemID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.busy[itemID]; taken {
		s.metrics.RecordRejected(ctx, "busy")
		return nil, cart.ErrItemBusy
	}
	s.busy[itemID] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.busy, itemID)
		s.mu.Unlock()
	}, nil
}

// IsBusy reports whether a mutation on itemID is in flight
func (s *Synchronizer) IsBusy(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, taken := s.busy[itemID]
	return taken
}

func (s *Synchronizer) begin() {
	s.mu.Lock()
	s.inFlight++
	state := s.stateLocked()
	s.mu.Unlock()
	s.publish(state)
}

func (s *Synchronizer) end() {
	s.mu.Lock()
	s.inFlight--
	state := s.stateLocked()
	s.mu.Unlock()
	s.publish(state)
}

func (s *Synchronizer) stateLocked() State {
	return State{
		SessionID: s.session,
		Items:     s.snapshot.Clone(),
		Totals:    s.calc.Calculate(s.snapshot),
		Loading:   s.inFlight > 0,
		LastError: s.lastError,
	}
}

func (s *Synchronizer) publish(state State) {
	s.subMu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// sessionContext resolves the session identity and tags ctx with it
func (s *Synchronizer) sessionContext(ctx context.Context) (context.Context, cart.SessionID) {
	session := s.sessions.GetOrCreate(ctx)
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
	return logger.WithSessionID(ctx, session.String()), session
}

func (s *Synchronizer) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, s.logger)
}
