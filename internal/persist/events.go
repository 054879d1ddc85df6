package persist

import (
	"time"

	"github.com/ting434252/lifebill/internal/journal"
)

// EventKind names what happened to a session.
type EventKind string

const (
	// EventSnapshot: the whole state was replaced (load, year or identity
	// switch, remote change).
	EventSnapshot EventKind = "snapshot"
	// EventChanged: a local mutation was saved.
	EventChanged EventKind = "changed"
	// EventToast: a transient message, usually a storage failure.
	EventToast EventKind = "toast"
)

// Event is delivered to session watchers.
type Event struct {
	Kind    EventKind      `json:"kind"`
	Year    int            `json:"year"`
	Change  journal.Change `json:"change,omitempty"`
	Message string         `json:"message,omitempty"`
	Level   string         `json:"level,omitempty"` // toast: info|error
	At      time.Time      `json:"at"`
}

// watchBuffer bounds events queued per watcher. A slow watcher misses events.
const watchBuffer = 16
