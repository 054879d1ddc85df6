package docstore

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"
)

var ErrClosed = errors.New("docstore: closed")

type memDoc struct {
	fields    Fields
	updatedAt time.Time
}

// MemoryStore keeps documents in process memory. It serves tests and the
// "memory" cloud driver.
type MemoryStore struct {
	mu     sync.Mutex
	docs   map[string]memDoc
	subs   map[string]map[chan Snapshot]struct{}
	closed bool
	now    func() time.Time

	failMerge error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]memDoc),
		subs: make(map[string]map[chan Snapshot]struct{}),
		now:  time.Now,
	}
}

// FailMerges makes every following Merge return err; nil restores writes.
func (s *MemoryStore) FailMerges(err error) {
	s.mu.Lock()
	s.failMerge = err
	s.mu.Unlock()
}

func (s *MemoryStore) snapshot(path string) Snapshot {
	d, ok := s.docs[path]
	if !ok {
		return Snapshot{Path: path}
	}
	return Snapshot{Path: path, Exists: true, Fields: maps.Clone(d.fields), UpdatedAt: d.updatedAt}
}

func (s *MemoryStore) Get(_ context.Context, path string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrClosed
	}
	return s.snapshot(path), nil
}

func (s *MemoryStore) Merge(_ context.Context, path string, fields Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.failMerge != nil {
		return s.failMerge
	}
	s.docs[path] = memDoc{fields: merge(s.docs[path].fields, fields), updatedAt: s.now()}
	s.publish(path)
	return nil
}

// Put stores a document as if another client had written it.
func (s *MemoryStore) Put(path string, fields Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = memDoc{fields: maps.Clone(fields), updatedAt: s.now()}
	s.publish(path)
}

// publish must be called with mu held. A full subscriber loses its oldest
// queued snapshot, never the current one.
func (s *MemoryStore) publish(path string) {
	for ch := range s.subs[path] {
		offer(ch, s.snapshot(path))
	}
}

func (s *MemoryStore) Subscribe(ctx context.Context, path string) (<-chan Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	ch := make(chan Snapshot, subscriptionBuffer)
	ch <- s.snapshot(path)
	if s.subs[path] == nil {
		s.subs[path] = make(map[chan Snapshot]struct{})
	}
	s.subs[path][ch] = struct{}{}

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[path][ch]; ok {
			delete(s.subs[path], ch)
			close(ch)
		}
	}()
	return ch, nil
}

// Subscribers counts open subscriptions on path.
func (s *MemoryStore) Subscribers(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[path])
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for path, subs := range s.subs {
		for ch := range subs {
			close(ch)
		}
		delete(s.subs, path)
	}
	return nil
}
