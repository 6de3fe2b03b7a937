package swarm

import (
	"context"
	"errors"
	"io"
	"time"
)

// Common errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoSource        = errors.New("magnet or torrent URL required")
	ErrNoFiles         = errors.New("session contains no files")
	ErrFileNotFound    = errors.New("file not found in session")
)

// FileRef describes one member file of a session.
type FileRef struct {
	Path   string
	Length int64
}

// Stats is a point-in-time snapshot of a session's swarm activity.
type Stats struct {
	TotalSize        int64
	BytesCompleted   int64
	ActivePeers      int
	ConnectedSeeders int
}

// Handle is the engine-level view of one download. Implementations wrap the
// external swarm engine's per-download object.
type Handle interface {
	// InfoHash returns the content-derived identifier (lowercase hex).
	InfoHash() string
	// Name returns the display name, empty until metadata arrives.
	Name() string
	// GotInfo is closed once download metadata (the file table) is known.
	GotInfo() <-chan struct{}
	// Files lists member files; empty until metadata arrives.
	Files() []FileRef
	// NewReader opens a seekable reader over one member file.
	NewReader(path string) (io.ReadSeekCloser, error)
	// AbsPath resolves a member file to its on-disk location.
	AbsPath(path string) string
	// Stats snapshots swarm activity.
	Stats() Stats
}

// Engine registers download sources with the underlying swarm implementation.
type Engine interface {
	// AddSource starts (or reuses) a download for a normalized source and
	// returns its handle. It does not wait for metadata.
	AddSource(ctx context.Context, src string) (Handle, error)

	// Lookup returns the handle already registered for a source, if the
	// engine can resolve the source without network I/O.
	Lookup(src string) (Handle, bool)
}

// Session is one active or pending download, keyed by its normalized source.
// Sessions are created by the Manager on first acquisition and shared by every
// caller that references the same source or info hash afterwards.
type Session struct {
	ID     string // info hash
	Source string

	handle Handle
}

// NewSession wraps an engine handle in a session. The Manager is the usual
// caller; it is exported for engines that hand out pre-existing handles.
func NewSession(source string, h Handle) *Session {
	return &Session{ID: h.InfoHash(), Source: source, handle: h}
}

// Ready reports whether download metadata is available.
func (s *Session) Ready() bool {
	select {
	case <-s.handle.GotInfo():
		return true
	default:
		return false
	}
}

// Name returns the session's display name, empty until metadata arrives.
func (s *Session) Name() string { return s.handle.Name() }

// Files lists the session's member files, empty until metadata arrives.
func (s *Session) Files() []FileRef { return s.handle.Files() }

// Stats snapshots the session's swarm activity.
func (s *Session) Stats() Stats { return s.handle.Stats() }

// NewReader opens a seekable reader over one member file.
func (s *Session) NewReader(path string) (io.ReadSeekCloser, error) {
	return s.handle.NewReader(path)
}

// AbsPath resolves a member file to its on-disk location.
func (s *Session) AbsPath(path string) string { return s.handle.AbsPath(path) }

// PrereadHeader reads and discards the first n bytes of a member file so the
// container header is present on disk before an external tool probes it.
func (s *Session) PrereadHeader(ctx context.Context, path string, n int64) error {
	r, err := s.NewReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	done := make(chan error, 1)
	go func() {
		_, err := io.CopyN(io.Discard, r, n)
		if err == io.EOF {
			err = nil
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitReady blocks until the session reports readiness or exposes at least
// one member file, or until the timeout elapses. It never fails: on timeout
// the caller proceeds with whatever metadata is known, and the returned flag
// makes the degraded outcome visible.
func (s *Session) WaitReady(ctx context.Context, timeout time.Duration) (ready bool) {
	if s.Ready() || len(s.Files()) > 0 {
		return true
	}
	select {
	case <-s.handle.GotInfo():
		return true
	case <-time.After(timeout):
		return len(s.Files()) > 0
	case <-ctx.Done():
		return len(s.Files()) > 0
	}
}
