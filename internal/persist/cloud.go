package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ting434252/lifebill/internal/journal"
	"github.com/ting434252/lifebill/internal/storage/docstore"
)

// CloudBackend keeps one document per user and year. The document carries
// records, categories, players, templates and lastUpdated.
type CloudBackend struct {
	store docstore.Store
	uid   string
	year  int
	now   func() time.Time
}

func NewCloudBackend(store docstore.Store, uid string, year int) *CloudBackend {
	return &CloudBackend{store: store, uid: uid, year: year, now: time.Now}
}

// DocumentPath is users/<uid>/journal/<year>.
func DocumentPath(uid string, year int) string {
	return fmt.Sprintf("users/%s/journal/%d", uid, year)
}

func (b *CloudBackend) Path() string { return DocumentPath(b.uid, b.year) }

// decode builds a dataset from a snapshot. A missing document has no
// records; parts the document lacks keep the values of current.
func (b *CloudBackend) decode(snap docstore.Snapshot, current journal.Dataset) journal.Dataset {
	ds := current.Clone()
	ds.Year = b.year
	ds.Records = []journal.Record{}
	if !snap.Exists {
		return ds
	}

	field := func(name string, dst any) bool {
		raw, ok := snap.Fields[name]
		if !ok || string(raw) == "null" {
			return false
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			slog.Warn("cloud field is malformed, ignored", "path", snap.Path, "field", name, "error", err)
			return false
		}
		return true
	}

	var records []journal.Record
	if field("records", &records) {
		ds.Records = records
	}
	var cats journal.Categories
	if field("categories", &cats) && len(cats.Expense) > 0 && len(cats.Income) > 0 {
		ds.Categories = cats
	}
	var players []string
	if field("players", &players) {
		ds.Players = players
	}
	var templates []journal.Template
	if field("templates", &templates) {
		ds.Templates = templates
	}
	if ds.Players == nil {
		ds.Players = []string{}
	}
	if ds.Templates == nil {
		ds.Templates = []journal.Template{}
	}
	if ds.Records == nil {
		ds.Records = []journal.Record{}
	}
	return ds
}

// Load reads the document once. Nothing is written for a missing document.
func (b *CloudBackend) Load(ctx context.Context, current journal.Dataset) (journal.Dataset, error) {
	snap, err := b.store.Get(ctx, b.Path())
	if err != nil {
		ds := current.Clone()
		ds.Year = b.year
		ds.Records = []journal.Record{}
		return ds, backendErr("讀取雲端資料", err)
	}
	return b.decode(snap, current), nil
}

// Save merges the whole dataset into the document; changed is not needed
// because every write carries all parts.
func (b *CloudBackend) Save(ctx context.Context, ds journal.Dataset, _ journal.Change) error {
	fields, err := encodeFields(ds, b.now())
	if err != nil {
		return backendErr("儲存雲端資料", err)
	}
	if err := b.store.Merge(ctx, b.Path(), fields); err != nil {
		return backendErr("儲存雲端資料", err)
	}
	slog.Debug("cloud dataset saved", "path", b.Path(), "records", len(ds.Records))
	return nil
}

func encodeFields(ds journal.Dataset, now time.Time) (docstore.Fields, error) {
	records := ds.Records
	if records == nil {
		records = []journal.Record{}
	}
	parts := map[string]any{
		"records":     records,
		"categories":  ds.Categories,
		"players":     ds.Players,
		"templates":   ds.Templates,
		"lastUpdated": now.UTC().Format(time.RFC3339Nano),
	}
	fields := make(docstore.Fields, len(parts))
	for name, v := range parts {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		fields[name] = raw
	}
	return fields, nil
}

// Subscribe forwards document snapshots until ctx is cancelled.
func (b *CloudBackend) Subscribe(ctx context.Context) (<-chan Incoming, error) {
	snaps, err := b.store.Subscribe(ctx, b.Path())
	if err != nil {
		return nil, backendErr("雲端同步", err)
	}
	out := make(chan Incoming)
	go func() {
		defer close(out)
		for snap := range snaps {
			in := Incoming{}
			if snap.Err != nil {
				in.Err = backendErr("雲端同步", snap.Err)
			} else {
				in.Resolve = func(current journal.Dataset) journal.Dataset { return b.decode(snap, current) }
			}
			select {
			case out <- in:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (b *CloudBackend) Close() error { return nil }
