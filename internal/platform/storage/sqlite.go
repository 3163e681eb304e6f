package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// kvEntry is one persisted key with its JSON-encoded value.
type kvEntry struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     []byte `gorm:"column:value"`
	UpdatedAt time.Time
}

func (kvEntry) TableName() string { return "kv_entries" }

// SQLiteStore keeps the whole state in a single local database file using
// the CGO-free driver. It is the default backend: local, synchronous,
// single writer.
type SQLiteStore struct {
	db       *gorm.DB
	maxBytes int
}

// NewSQLite opens the database at path, creating the file and its
// directory when missing.
func NewSQLite(path string, maxValueBytes int) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}

	if maxValueBytes <= 0 {
		maxValueBytes = DefaultMaxValueBytes
	}
	return &SQLiteStore{db: db, maxBytes: maxValueBytes}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string, out any) error {
	var rec kvEntry
	err := s.db.WithContext(ctx).First(&rec, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("storage: get %s: %w", key, err)
	}
	return decode(rec.Value, out)
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value any) error {
	payload, err := encode(value, s.maxBytes)
	if err != nil {
		return err
	}
	rec := kvEntry{Key: key, Value: payload, UpdatedAt: time.Now().UTC()}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
		return fmt.Errorf("storage: set %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&kvEntry{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
