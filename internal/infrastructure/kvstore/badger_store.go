package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// BadgerStore persists values in an embedded BadgerDB directory.
// It is the default backend: no server, survives restarts, one writer process.
type BadgerStore struct {
	db *badger.DB
}

// BadgerConfig holds BadgerDB settings
type BadgerConfig struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path string
	// InMemory runs Badger without touching disk (tests)
	InMemory bool
	// SyncWrites fsyncs every write
	SyncWrites bool
}

// NewBadgerStore opens (or creates) a Badger database
func NewBadgerStore(cfg BadgerConfig, logger *zap.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("kvstore: badger path is required")
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(&badgerLogger{sugar: logger.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerStoreWithDB wraps an already opened database
func NewBadgerStoreWithDB(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Get reads the value stored under key
func (s *BadgerStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.db.IsClosed() {
		return nil, ErrClosed
	}
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %q: %w", key, err)
	}
	return out, nil
}

// Set writes value under key
func (s *BadgerStore) Set(ctx context.Context, key string, value []byte) error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("badger set %q: %w", key, err)
	}
	return nil
}

// Delete removes key
func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badger delete %q: %w", key, err)
	}
	return nil
}

// Ping reports whether the database is open
func (s *BadgerStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

// Close flushes and closes the database
func (s *BadgerStore) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	return s.db.Close()
}

// badgerLogger routes Badger's internal logging into zap
type badgerLogger struct {
	sugar *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.sugar.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.sugar.Debugf(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.sugar.Debugf(format, args...) }

var _ Store = (*BadgerStore)(nil)
