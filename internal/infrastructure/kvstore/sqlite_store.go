package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storefront/cartsync/internal/infrastructure/logger"
)

// kvEntry is the single table backing SQLiteStore
type kvEntry struct {
	Key       string `gorm:"column:entry_key;primaryKey;size:255"`
	Value     []byte `gorm:"column:value"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (kvEntry) TableName() string {
	return "cart_kv"
}

// SQLiteConfig holds SQLite backend settings
type SQLiteConfig struct {
	// Path is the database file, or ":memory:" for a private in-memory database
	Path string
	// Tracing registers the otelgorm plugin
	Tracing bool
	// LogLevel is one of silent, error, warn, info
	LogLevel string
}

// SQLiteStore persists values in a single SQLite table through GORM
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens the database file and migrates the key-value table
func NewSQLiteStore(cfg SQLiteConfig, log *zap.Logger) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, errors.New("kvstore: sqlite path is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger:                 logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.LogLevel)),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}

	if cfg.Tracing {
		if err := db.Use(otelgorm.NewPlugin(
			otelgorm.WithDBName("sqlite"),
			otelgorm.WithoutQueryVariables(),
		)); err != nil {
			return nil, fmt.Errorf("failed to register sqlite tracing: %w", err)
		}
	}

	return NewSQLiteStoreWithDB(db)
}

// NewSQLiteStoreWithDB uses an existing GORM connection and migrates the table
func NewSQLiteStoreWithDB(db *gorm.DB) (*SQLiteStore, error) {
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite store: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get reads the value stored under key
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var e kvEntry
	err := s.db.WithContext(ctx).
		Session(&gorm.Session{Logger: s.db.Logger.LogMode(gormlogger.Silent)}).
		Where("entry_key = ?", key).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get %q: %w", key, err)
	}
	return e.Value, nil
}

// Set upserts value under key
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	e := kvEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("sqlite set %q: %w", key, err)
	}
	return nil
}

// Delete removes key
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("entry_key = ?", key).Delete(&kvEntry{}).Error; err != nil {
		return fmt.Errorf("sqlite delete %q: %w", key, err)
	}
	return nil
}

// Ping checks the underlying connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

var _ Store = (*SQLiteStore)(nil)
