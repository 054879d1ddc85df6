// Package persist mirrors a journal to its storage backend. A device without
// a signed-in user persists to the local key/value store; a signed-in user
// persists to a cloud document per year and receives its changes in real
// time.
package persist

import (
	"context"
	"errors"
	"slices"
	"strconv"

	"github.com/ting434252/lifebill/internal/journal"
	"github.com/ting434252/lifebill/internal/storage/docstore"
	"github.com/ting434252/lifebill/internal/storage/kv"
)

// Backend loads and saves the dataset of one year.
type Backend interface {
	// Load returns the stored dataset. Parts that are not stored come from
	// current, or from defaults when the backend has its own.
	Load(ctx context.Context, current journal.Dataset) (journal.Dataset, error)
	// Save writes ds; changed tells which parts were mutated.
	Save(ctx context.Context, ds journal.Dataset, changed journal.Change) error
	Close() error
}

// Incoming is a dataset pushed by a subscribing backend. Resolve builds it
// on top of the in-memory state.
type Incoming struct {
	Resolve func(current journal.Dataset) journal.Dataset
	Err     error
}

// Subscriber is implemented by backends that push remote changes.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Incoming, error)
}

// Identity is who a session persists for. The zero value is anonymous.
type Identity struct {
	UserID uint
	Email  string
}

func (id Identity) Anonymous() bool { return id.UserID == 0 }

func (id Identity) String() string {
	if id.Anonymous() {
		return "anonymous"
	}
	return "user:" + strconv.FormatUint(uint64(id.UserID), 10)
}

// BackendError wraps a failed storage operation.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *BackendError) Unwrap() error { return e.Err }

// IsBackend reports whether err came from storage.
func IsBackend(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

var (
	ErrNoCloud       = errors.New("cloud storage is not configured")
	ErrSessionClosed = errors.New("session closed")
)

// Settings are the defaults for a device that has no stored settings.
type Settings struct {
	Categories journal.Categories
	Players    []string
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		Categories: journal.Categories{
			Expense: slices.Clone(journal.DefaultCategories.Expense),
			Income:  slices.Clone(journal.DefaultCategories.Income),
		},
		Players: slices.Clone(journal.DefaultPlayers),
	}
}

// Dataset returns an empty dataset for year carrying s.
func (s Settings) Dataset(year int) journal.Dataset {
	ds := journal.NewDataset(year)
	if len(s.Categories.Expense) > 0 {
		ds.Categories.Expense = slices.Clone(s.Categories.Expense)
	}
	if len(s.Categories.Income) > 0 {
		ds.Categories.Income = slices.Clone(s.Categories.Income)
	}
	if s.Players != nil {
		ds.Players = slices.Clone(s.Players)
	}
	return ds
}

// Backends opens the backend for a device and identity.
type Backends struct {
	KV        kv.Store
	Docs      docstore.Store // nil disables signing in to cloud storage
	KeyPrefix string
	Defaults  Settings
}

// Open picks the local store for anonymous identities and the cloud store
// otherwise.
func (b *Backends) Open(device string, id Identity, year int) (Backend, error) {
	if id.Anonymous() {
		if b.KV == nil {
			return nil, errors.New("local storage is not configured")
		}
		return NewLocalBackend(b.KV, device, b.KeyPrefix, year, b.Defaults), nil
	}
	if b.Docs == nil {
		return nil, ErrNoCloud
	}
	return NewCloudBackend(b.Docs, strconv.FormatUint(uint64(id.UserID), 10), year), nil
}

func backendErr(op string, err error) error {
	return &BackendError{Op: op, Err: err}
}
