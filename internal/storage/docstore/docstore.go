// Package docstore is the cloud document storage used by signed-in users:
// JSON documents addressed by a slash separated path, written by top-level
// merge and observable through a subscription.
package docstore

import (
	"context"
	"encoding/json"
	"maps"
	"time"
)

// Fields are the top-level fields of a document.
type Fields map[string]json.RawMessage

// Snapshot is the state of a document at some point. A subscription that
// fails delivers one snapshot with Err set and then closes.
type Snapshot struct {
	Path      string
	Exists    bool
	Fields    Fields
	UpdatedAt time.Time
	Err       error
}

// Store reads, merges and watches documents.
type Store interface {
	Get(ctx context.Context, path string) (Snapshot, error)
	// Merge overwrites the given top-level fields and keeps the others.
	Merge(ctx context.Context, path string, fields Fields) error
	// Subscribe delivers the current snapshot, then one per change, until ctx
	// is cancelled.
	Subscribe(ctx context.Context, path string) (<-chan Snapshot, error)
	Close() error
}

// subscriptionBuffer bounds undelivered snapshots per subscriber.
const subscriptionBuffer = 8

// offer queues snap on ch. When ch is full the oldest queued snapshot is
// discarded, so the newest document state always reaches the subscriber.
// The caller must be the only sender on ch.
func offer(ch chan Snapshot, snap Snapshot) (coalesced bool) {
	for {
		select {
		case ch <- snap:
			return coalesced
		default:
		}
		select {
		case <-ch:
			coalesced = true
		default:
		}
	}
}

// merge applies src over dst and returns the result.
func merge(dst, src Fields) Fields {
	out := make(Fields, len(dst)+len(src))
	maps.Copy(out, dst)
	maps.Copy(out, src)
	return out
}
