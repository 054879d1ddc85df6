package kv

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ting434252/lifebill/internal/models"
)

// GormStore keeps values in the kv_entries table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore expects models.KVEntry to be migrated already.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, ns, key string) (string, error) {
	var e models.KVEntry
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", ns, key).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("kv get %s/%s: %w", ns, key, err)
	}
	return e.Value, nil
}

func (s *GormStore) Set(ctx context.Context, ns, key, value string) error {
	e := models.KVEntry{Namespace: ns, Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("kv set %s/%s: %w", ns, key, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, ns, key string) error {
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", ns, key).
		Delete(&models.KVEntry{}).Error
	if err != nil {
		return fmt.Errorf("kv delete %s/%s: %w", ns, key, err)
	}
	return nil
}

// Close is a no-op; the database belongs to the caller.
func (s *GormStore) Close() error { return nil }
