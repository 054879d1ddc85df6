package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// sessionKey is one identity on one device. Each key owns its own backend,
// so a request can only reach the storage of the identity it presented.
type sessionKey struct {
	device string
	userID uint
}

type managed struct {
	s        *Session
	lastUsed time.Time
}

// Manager keeps one session per device and identity.
type Manager struct {
	mu       sync.Mutex
	sessions map[sessionKey]*managed
	opener   Opener
	clock    func() time.Time
	log      *slog.Logger
}

func NewManager(opener Opener, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		sessions: make(map[sessionKey]*managed),
		opener:   opener,
		clock:    time.Now,
		log:      log,
	}
}

// SetClock replaces time.Now for sessions opened afterwards and for idle
// tracking.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.clock = now
	m.mu.Unlock()
}

// Session returns the session of id on device, opening it in the current
// year when needed. Sessions of other identities on the device are left
// alone.
func (m *Manager) Session(ctx context.Context, device string, id Identity) (*Session, error) {
	key := sessionKey{device: device, userID: id.UserID}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock()
	if e, ok := m.sessions[key]; ok {
		e.lastUsed = now
		return e.s, nil
	}
	s, err := OpenSession(ctx, m.opener, device, id, now.Year(),
		WithSessionClock(m.clock), WithLogger(m.log))
	if err != nil {
		m.log.Warn("session opened with errors", "device", device, "identity", id.String(), "error", err)
	}
	m.sessions[key] = &managed{s: s, lastUsed: now}
	return s, nil
}

// Bind opens the session of a user who just signed in on device.
func (m *Manager) Bind(ctx context.Context, device string, id Identity) error {
	m.log.Info("device bound", "device", device, "identity", id.String())
	_, err := m.Session(ctx, device, id)
	return err
}

// Unbind closes the session of id on device after sign out. The device's
// local session stays open.
func (m *Manager) Unbind(ctx context.Context, device string, id Identity) error {
	if id.Anonymous() {
		return nil
	}
	key := sessionKey{device: device, userID: id.UserID}
	m.mu.Lock()
	e, ok := m.sessions[key]
	delete(m.sessions, key)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	m.log.Info("device unbound", "device", device, "identity", id.String())
	return e.s.Close()
}

// Sweep closes sessions unused for longer than idle. Sessions with an open
// event stream are kept. It returns the number closed.
func (m *Manager) Sweep(idle time.Duration) int {
	m.mu.Lock()
	cutoff := m.clock().Add(-idle)
	var stale []*Session
	for key, e := range m.sessions {
		if e.lastUsed.Before(cutoff) && !e.s.Watched() {
			stale = append(stale, e.s)
			delete(m.sessions, key)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		if err := s.Close(); err != nil {
			m.log.Warn("close idle session", "device", s.Device(), "error", err)
		}
	}
	if len(stale) > 0 {
		m.log.Debug("idle sessions closed", "count", len(stale))
	}
	return len(stale)
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(idle)
		}
	}
}

// CloseStreams ends the event streams of every session, e.g. when the
// server shuts down and must not wait for them.
func (m *Manager) CloseStreams() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.sessions {
		e.s.CloseWatchers()
	}
}

// Len is the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, e := range m.sessions {
		if err := e.s.Close(); err != nil {
			m.log.Warn("close session", "device", key.device, "error", err)
		}
		delete(m.sessions, key)
	}
}
