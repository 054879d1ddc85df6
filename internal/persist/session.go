package persist

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/ting434252/lifebill/internal/journal"
)

// Opener opens the backend a session persists to.
type Opener interface {
	Open(device string, id Identity, year int) (Backend, error)
}

// Session is the journal state of one device. All access is serialized.
type Session struct {
	mu       sync.Mutex
	device   string
	identity Identity
	j        *journal.Journal
	backend  Backend
	opener   Opener
	log      *slog.Logger
	clock    func() time.Time

	gen    uint64 // bumped on every backend switch
	cancel context.CancelFunc
	done   bool

	watchMu  sync.Mutex
	watchers map[chan Event]struct{}
	closed   bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.clock = now }
}

func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// OpenSession loads the year of id for device. A failed load still returns
// a usable session holding empty records; the error is returned alongside.
func OpenSession(ctx context.Context, opener Opener, device string, id Identity, year int, opts ...SessionOption) (*Session, error) {
	s := &Session{
		device:   device,
		opener:   opener,
		log:      slog.Default(),
		clock:    time.Now,
		watchers: make(map[chan Event]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("device", device)
	s.j = journal.New(DefaultSettings().Dataset(year), journal.WithClock(s.clock))

	s.mu.Lock()
	defer s.mu.Unlock()
	return s, s.switchLocked(ctx, id, year)
}

func (s *Session) Device() string { return s.device }

func (s *Session) Identity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *Session) Year() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.j.Year()
}

// switchLocked tears the current backend down and loads year for id from a
// new one. Local data is never carried over.
func (s *Session) switchLocked(ctx context.Context, id Identity, year int) error {
	if s.done {
		return backendErr("開啟儲存空間", ErrSessionClosed)
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.log.Warn("close backend", "error", err)
		}
		s.backend = nil
	}
	s.gen++
	s.identity = id

	current := s.j.Dataset()
	current.Year = year

	backend, err := s.opener.Open(s.device, id, year)
	if err != nil {
		current.Records = []journal.Record{}
		s.j.Replace(current)
		s.toast("無法開啟儲存空間："+err.Error(), "error")
		return backendErr("開啟儲存空間", err)
	}
	s.backend = backend

	ds, loadErr := backend.Load(ctx, current)
	s.j.Replace(ds)
	s.log.Info("session loaded", "identity", id.String(), "year", year, "records", len(ds.Records))
	if loadErr != nil {
		s.toast("讀取資料失敗："+loadErr.Error(), "error")
	}

	if sub, ok := backend.(Subscriber); ok {
		subCtx, cancel := context.WithCancel(context.Background())
		ch, err := sub.Subscribe(subCtx)
		if err != nil {
			cancel()
			s.toast("即時同步失敗："+err.Error(), "error")
		} else {
			s.cancel = cancel
			go s.follow(s.gen, ch)
		}
	}

	s.publish(Event{Kind: EventSnapshot, Year: year})
	return loadErr
}

// follow applies remote snapshots of one backend generation. Snapshots never
// trigger a write.
func (s *Session) follow(gen uint64, ch <-chan Incoming) {
	for in := range ch {
		s.mu.Lock()
		if gen != s.gen {
			s.mu.Unlock()
			continue
		}
		if in.Err != nil {
			s.toast("雲端同步失敗："+in.Err.Error(), "error")
			s.mu.Unlock()
			continue
		}
		current := s.j.Dataset()
		next := in.Resolve(current)
		if sameDataset(current, next) {
			s.mu.Unlock()
			continue
		}
		s.j.Replace(next)
		s.log.Debug("remote snapshot applied", "records", len(next.Records))
		s.publish(Event{Kind: EventSnapshot, Year: next.Year})
		s.mu.Unlock()
	}
}

// sameDataset compares the stored form, so nil and empty slices are equal.
func sameDataset(a, b journal.Dataset) bool {
	ea, errA := json.Marshal(journal.NewBackup(a, time.Time{}))
	eb, errB := json.Marshal(journal.NewBackup(b, time.Time{}))
	return errA == nil && errB == nil && string(ea) == string(eb)
}

// SwitchIdentity moves the session to id, e.g. on sign in or sign out.
func (s *Session) SwitchIdentity(ctx context.Context, id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id.UserID == s.identity.UserID && s.backend != nil {
		s.identity = id
		return nil
	}
	return s.switchLocked(ctx, id, s.j.Year())
}

// SwitchYear loads another year. Other years' stored data is untouched.
func (s *Session) SwitchYear(ctx context.Context, year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if year == s.j.Year() && s.backend != nil {
		return nil
	}
	return s.switchLocked(ctx, s.identity, year)
}

// Reload reads the current year again from the backend.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switchLocked(ctx, s.identity, s.j.Year())
}

// View runs fn with the journal for reading. fn must not mutate it.
func (s *Session) View(fn func(j *journal.Journal)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.j)
}

// Do runs a mutation and saves the changed parts. When fn fails nothing is
// saved; when the save fails the state is rolled back and a toast is
// published.
func (s *Session) Do(ctx context.Context, fn func(j *journal.Journal) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.j.Dataset()
	err := fn(s.j)
	changed := s.j.TakeChanges()
	if err != nil {
		if changed != 0 {
			s.j.Replace(before)
		}
		return err
	}
	if changed == 0 {
		return nil
	}
	if s.done {
		s.j.Replace(before)
		return backendErr("儲存", ErrSessionClosed)
	}
	if s.backend == nil {
		s.j.Replace(before)
		s.toast("儲存空間無法使用", "error")
		return backendErr("儲存", ErrNoCloud)
	}
	if err := s.backend.Save(ctx, s.j.Dataset(), changed); err != nil {
		s.j.Replace(before)
		s.log.Warn("save failed, state rolled back", "error", err)
		s.toast("儲存失敗："+err.Error(), "error")
		return err
	}
	s.publish(Event{Kind: EventChanged, Year: s.j.Year(), Change: changed})
	return nil
}

// Watch subscribes to session events. The returned func unsubscribes.
func (s *Session) Watch() (<-chan Event, func()) {
	ch := make(chan Event, watchBuffer)
	s.watchMu.Lock()
	if s.closed {
		close(ch)
		s.watchMu.Unlock()
		return ch, func() {}
	}
	s.watchers[ch] = struct{}{}
	s.watchMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.watchMu.Lock()
			defer s.watchMu.Unlock()
			if _, ok := s.watchers[ch]; ok {
				delete(s.watchers, ch)
				close(ch)
			}
		})
	}
}

func (s *Session) publish(e Event) {
	e.At = s.clock()
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for ch := range s.watchers {
		select {
		case ch <- e:
		default:
			s.log.Warn("watcher is behind, event dropped", "kind", e.Kind)
		}
	}
}

func (s *Session) toast(msg, level string) {
	s.publish(Event{Kind: EventToast, Year: s.j.Year(), Message: msg, Level: level})
}

// Notify publishes an informational toast, e.g. after a handler action.
func (s *Session) Notify(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toast(msg, "info")
}

// Watched reports whether any event stream is open.
func (s *Session) Watched() bool {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	return len(s.watchers) > 0
}

// Close stops the subscription, closes the backend and all watchers. Later
// mutations fail with ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	var err error
	if s.backend != nil {
		err = s.backend.Close()
		s.backend = nil
	}

	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	s.closed = true
	s.dropWatchersLocked()
	return err
}

// CloseWatchers ends every open event stream. The session stays usable and
// new watchers may subscribe.
func (s *Session) CloseWatchers() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	s.dropWatchersLocked()
}

func (s *Session) dropWatchersLocked() {
	for ch := range s.watchers {
		delete(s.watchers, ch)
		close(ch)
	}
}
