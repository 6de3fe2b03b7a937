package swarm

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/yorunoma/animestrem/internal/metrics"
)

// pendingAdd is one in-flight acquisition shared by every caller that asks
// for the same source while it runs. done is closed exactly once, after the
// pending-table entry has been removed and the outcome recorded.
type pendingAdd struct {
	done    chan struct{}
	session *Session
	err     error
}

// Manager owns the mapping from normalized download source to live session
// and guarantees at most one acquisition in flight per source. It is created
// at startup and lives for the whole process; sessions are never evicted.
type Manager struct {
	mu       sync.Mutex
	engine   Engine
	bySource map[string]*Session
	byID     map[string]*Session
	pending  map[string]*pendingAdd

	log *slog.Logger
}

// NewManager creates a session manager over the given engine.
func NewManager(engine Engine) *Manager {
	return &Manager{
		engine:   engine,
		bySource: make(map[string]*Session),
		byID:     make(map[string]*Session),
		pending:  make(map[string]*pendingAdd),
		log:      slog.With("component", "swarm-manager"),
	}
}

// Acquire returns the session for a normalized source, starting the download
// on first use. Concurrent callers for the same source share one underlying
// engine add and receive the same outcome.
func (m *Manager) Acquire(ctx context.Context, src string) (*Session, error) {
	if src == "" {
		return nil, ErrNoSource
	}

	m.mu.Lock()
	if s, ok := m.bySource[src]; ok {
		m.mu.Unlock()
		return s, nil
	}
	if p, ok := m.pending[src]; ok {
		m.mu.Unlock()
		select {
		case <-p.done:
			return p.session, p.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p := &pendingAdd{done: make(chan struct{})}
	m.pending[src] = p
	m.mu.Unlock()

	session, err := m.addSource(ctx, src)

	// The pending entry must be gone before any queued caller is released,
	// otherwise a late caller could observe a removed-but-unresolved entry.
	m.mu.Lock()
	delete(m.pending, src)
	if err == nil {
		m.bySource[src] = session
		m.byID[session.ID] = session
	}
	p.session = session
	p.err = err
	m.mu.Unlock()
	close(p.done)

	return session, err
}

func (m *Manager) addSource(ctx context.Context, src string) (*Session, error) {
	handle, err := m.engine.AddSource(ctx, src)
	if err != nil {
		// The engine may report a duplicate despite the single-flight guard
		// (e.g. two sources resolving to the same info hash). Fall back to
		// the handle the engine already holds for this source.
		if isDuplicateErr(err) {
			if handle, ok := m.engine.Lookup(src); ok {
				s := NewSession(src, handle)
				m.log.Debug("duplicate add recovered", "source", src, "session", s.ID)
				return s, nil
			}
		}
		m.log.Error("source acquisition failed", "source", src, "error", err)
		return nil, err
	}

	s := NewSession(src, handle)
	m.log.Info("session acquired", "session", s.ID, "source", src)
	return s, nil
}

// Find returns a session by its info hash.
func (m *Manager) Find(id string) (*Session, bool) {
	needle := strings.ToLower(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[needle]
	return s, ok
}

// Sessions returns all live sessions, for observability endpoints.
func (m *Manager) Sessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.byID))
	for _, s := range m.byID {
		out = append(out, s)
	}
	return out
}

// CollectStats snapshots all live sessions for the Prometheus collector.
func (m *Manager) CollectStats() []metrics.SessionStats {
	sessions := m.Sessions()
	out := make([]metrics.SessionStats, 0, len(sessions))
	for _, s := range sessions {
		stats := s.Stats()
		out = append(out, metrics.SessionStats{
			InfoHash:         s.ID,
			Name:             s.Name(),
			Ready:            s.Ready(),
			TotalSize:        stats.TotalSize,
			BytesCompleted:   stats.BytesCompleted,
			ActivePeers:      stats.ActivePeers,
			ConnectedSeeders: stats.ConnectedSeeders,
		})
	}
	return out
}

func isDuplicateErr(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "duplicate")
}
