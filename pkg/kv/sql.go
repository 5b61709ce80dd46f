package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one row of the kv_entries table.
type Entry struct {
	Key       string    `gorm:"column:entry_key;primaryKey"`
	Value     string    `gorm:"column:entry_value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (Entry) TableName() string {
	return "kv_entries"
}

// SQLStore persists entries in sqlite or postgres through gorm.
type SQLStore struct {
	client *db.Client
	now    func() time.Time
}

// NewSQLStore binds a store to an open client. The schema is expected to be
// migrated already (see migrate.Up).
func NewSQLStore(client *db.Client) (*SQLStore, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &SQLStore{client: client, now: time.Now}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var entry Entry
	err := s.client.DB().WithContext(ctx).
		Where("entry_key = ?", key).
		Take(&entry).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read %q: %w", key, err)
	}
	return entry.Value, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	entry := Entry{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	err := s.client.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
		}).
		Create(&entry).
		Error
	if err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Remove(ctx context.Context, key string) error {
	err := s.client.DB().WithContext(ctx).
		Where("entry_key = ?", key).
		Delete(&Entry{}).
		Error
	if err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.client.Close()
}
