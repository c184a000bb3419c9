package cart

import "context"

// RemoteGateway is the network boundary to the authoritative cart service.
// Every failure is reported as an error wrapping ErrRemoteFailed; there are no partial results.
type RemoteGateway interface {
	Fetch(ctx context.Context, session SessionID) (Snapshot, error)
	Add(ctx context.Context, session SessionID, productID, variantID int64, quantity int) error
	Remove(ctx context.Context, session SessionID, itemID string) error
	Clear(ctx context.Context, session SessionID) error
}

// SnapshotStore is the persisted last known-good copy of the cart.
// A missing or unreadable snapshot is reported as ok == false, never as an error.
type SnapshotStore interface {
	Load(ctx context.Context) (Snapshot, bool)
	Save(ctx context.Context, s Snapshot) error
	Clear(ctx context.Context) error
}

// SessionProvider mints and remembers the anonymous session identity
type SessionProvider interface {
	GetOrCreate(ctx context.Context) SessionID
	Reset(ctx context.Context) SessionID
}
