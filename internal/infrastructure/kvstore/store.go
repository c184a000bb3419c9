// Package kvstore provides the persistent key-value backends that hold the
// client-side cart fallback and session identity.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written or was deleted
var ErrNotFound = errors.New("kvstore: key not found")

// ErrClosed is returned by any operation on a store that has been closed
var ErrClosed = errors.New("kvstore: store closed")

// Store is a small byte-oriented key-value facility.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Backend names accepted by the factory
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)
