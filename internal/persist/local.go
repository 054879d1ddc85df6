package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ting434252/lifebill/internal/journal"
	"github.com/ting434252/lifebill/internal/storage/kv"
)

const DefaultKeyPrefix = "life_journal"

// LocalBackend stores each part of the dataset under its own key in the
// device namespace. Records are one key per year.
type LocalBackend struct {
	store    kv.Store
	ns       string
	prefix   string
	year     int
	defaults Settings
}

func NewLocalBackend(store kv.Store, device, prefix string, year int, defaults Settings) *LocalBackend {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &LocalBackend{store: store, ns: device, prefix: prefix, year: year, defaults: defaults}
}

func (b *LocalBackend) CategoriesKey() string { return b.prefix + "_categories" }
func (b *LocalBackend) PlayersKey() string    { return b.prefix + "_players" }
func (b *LocalBackend) TemplatesKey() string  { return b.prefix + "_templates" }
func (b *LocalBackend) RecordsKey() string    { return b.prefix + "_" + strconv.Itoa(b.year) }

// readKey decodes key into dst. ok is false when the key is missing or
// malformed; only storage failures are returned.
func (b *LocalBackend) readKey(ctx context.Context, key string, dst any) (ok bool, err error) {
	raw, err := b.store.Get(ctx, b.ns, key)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		slog.Warn("local value is malformed, keeping default", "device", b.ns, "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

// Load ignores current: a device always starts from its own stored settings
// or the defaults.
func (b *LocalBackend) Load(ctx context.Context, _ journal.Dataset) (journal.Dataset, error) {
	ds := b.defaults.Dataset(b.year)

	var cats journal.Categories
	ok, err := b.readKey(ctx, b.CategoriesKey(), &cats)
	if err != nil {
		return ds, backendErr("讀取類別", err)
	}
	if ok && len(cats.Expense) > 0 && len(cats.Income) > 0 {
		ds.Categories = cats
	}

	var players []string
	if ok, err = b.readKey(ctx, b.PlayersKey(), &players); err != nil {
		return ds, backendErr("讀取麻友", err)
	}
	if ok && players != nil {
		ds.Players = players
	}

	var templates []journal.Template
	if ok, err = b.readKey(ctx, b.TemplatesKey(), &templates); err != nil {
		return ds, backendErr("讀取範本", err)
	}
	if ok && templates != nil {
		ds.Templates = templates
	}

	var records []journal.Record
	if ok, err = b.readKey(ctx, b.RecordsKey(), &records); err != nil {
		return ds, backendErr("讀取紀錄", err)
	}
	if ok && records != nil {
		ds.Records = records
	}

	slog.Debug("local dataset loaded", "device", b.ns, "year", b.year, "records", len(ds.Records))
	return ds, nil
}

// Save writes only the keys of changed parts. An emptied year deletes its
// records key.
func (b *LocalBackend) Save(ctx context.Context, ds journal.Dataset, changed journal.Change) error {
	if changed.Has(journal.ChangeRecords) {
		if len(ds.Records) == 0 {
			if err := b.store.Delete(ctx, b.ns, b.RecordsKey()); err != nil {
				return backendErr("儲存紀錄", err)
			}
		} else if err := b.writeKey(ctx, b.RecordsKey(), ds.Records); err != nil {
			return backendErr("儲存紀錄", err)
		}
	}
	if changed.Has(journal.ChangeCategories) {
		if err := b.writeKey(ctx, b.CategoriesKey(), ds.Categories); err != nil {
			return backendErr("儲存類別", err)
		}
	}
	if changed.Has(journal.ChangePlayers) {
		if err := b.writeKey(ctx, b.PlayersKey(), ds.Players); err != nil {
			return backendErr("儲存麻友", err)
		}
	}
	if changed.Has(journal.ChangeTemplates) {
		if err := b.writeKey(ctx, b.TemplatesKey(), ds.Templates); err != nil {
			return backendErr("儲存範本", err)
		}
	}
	return nil
}

func (b *LocalBackend) writeKey(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return b.store.Set(ctx, b.ns, key, string(raw))
}

// Close leaves the shared store open.
func (b *LocalBackend) Close() error { return nil }
