// Package storage opens the configured stores behind the journal backends.
package storage

import (
	"context"
	"fmt"

	"github.com/ting434252/lifebill/internal/config"
	"github.com/ting434252/lifebill/internal/persist"
	"github.com/ting434252/lifebill/internal/storage/docstore"
	"github.com/ting434252/lifebill/internal/storage/kv"

	"gorm.io/gorm"
)

// OpenKV opens the local key/value store. The sqlite driver uses db.
func OpenKV(ctx context.Context, cfg config.StorageConfig, db *gorm.DB) (kv.Store, error) {
	switch cfg.LocalDriver {
	case "", "sqlite":
		if db == nil {
			return nil, fmt.Errorf("sqlite kv store needs a database")
		}
		return kv.NewGormStore(db), nil
	case "redis":
		s, err := kv.NewRedisStore(ctx, kv.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return kv.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown local driver %q", cfg.LocalDriver)
}

// OpenDocs opens the cloud document store; nil means signing in to cloud
// storage is disabled.
func OpenDocs(ctx context.Context, cfg config.CloudConfig) (docstore.Store, error) {
	switch cfg.Driver {
	case "none":
		return nil, nil
	case "", "memory":
		return docstore.NewMemoryStore(), nil
	case "postgres":
		s, err := docstore.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown cloud driver %q", cfg.Driver)
}

// Defaults merges configured journal defaults over the built-in ones.
func Defaults(cfg config.JournalConfig) persist.Settings {
	s := persist.DefaultSettings()
	if len(cfg.ExpenseCategories) > 0 {
		s.Categories.Expense = cfg.ExpenseCategories
	}
	if len(cfg.IncomeCategories) > 0 {
		s.Categories.Income = cfg.IncomeCategories
	}
	if len(cfg.Players) > 0 {
		s.Players = cfg.Players
	}
	return s
}

// Open wires both stores into persist.Backends. Close releases them.
func Open(ctx context.Context, cfg *config.Config, db *gorm.DB) (*persist.Backends, error) {
	local, err := OpenKV(ctx, cfg.Storage, db)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	docs, err := OpenDocs(ctx, cfg.Cloud)
	if err != nil {
		_ = local.Close()
		return nil, fmt.Errorf("open cloud store: %w", err)
	}
	return &persist.Backends{
		KV:        local,
		Docs:      docs,
		KeyPrefix: cfg.Storage.KeyPrefix,
		Defaults:  Defaults(cfg.Journal),
	}, nil
}

// Close closes the stores of b.
func Close(b *persist.Backends) error {
	var err error
	if b.KV != nil {
		err = b.KV.Close()
	}
	if b.Docs != nil {
		if cerr := b.Docs.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
