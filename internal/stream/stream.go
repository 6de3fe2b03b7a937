package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"syscall"

	"github.com/yorunoma/animestrem/internal/metrics"
	"github.com/yorunoma/animestrem/internal/swarm"
)

// Streamer serves session member files over HTTP with the byte-range model
// media players expect.
type Streamer struct {
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewStreamer creates a streamer. metrics may be nil.
func NewStreamer(m *metrics.Metrics) *Streamer {
	return &Streamer{
		metrics: m,
		log:     slog.With("component", "streamer"),
	}
}

// ServeFile streams one member file of a session, honoring the Range header.
// Response bytes come straight from the session's reader, so playback can
// begin while the download is still in progress.
func (s *Streamer) ServeFile(w http.ResponseWriter, r *http.Request, session *swarm.Session, file swarm.FileRef) {
	size := file.Length

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", ContentType(file.Path))

	rng, err := ParseRange(r.Header.Get("Range"), size)
	if err != nil {
		w.Header().Set("Content-Range", "bytes */"+strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	reader, err := session.NewReader(file.Path)
	if err != nil {
		s.log.Error("open stream reader", "session", session.ID, "file", file.Path, "error", err)
		http.Error(w, "stream unavailable", http.StatusInternalServerError)
		return
	}
	defer reader.Close()

	var length int64
	if rng == nil {
		length = size
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
	} else {
		length = rng.Length()
		w.Header().Set("Content-Range",
			"bytes "+strconv.FormatInt(rng.Start, 10)+"-"+strconv.FormatInt(rng.End, 10)+"/"+strconv.FormatInt(size, 10))
		w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
		w.WriteHeader(http.StatusPartialContent)

		if _, err := reader.Seek(rng.Start, io.SeekStart); err != nil {
			s.log.Error("seek stream reader", "session", session.ID, "error", err)
			return
		}
	}

	if s.metrics != nil {
		s.metrics.OpenStreams.Inc()
		defer s.metrics.OpenStreams.Dec()
	}

	n, err := io.CopyN(w, reader, length)
	if s.metrics != nil {
		s.metrics.StreamedBytes.Add(float64(n))
	}

	if err != nil && err != io.EOF {
		if IsBenignAbort(err) || r.Context().Err() != nil {
			s.log.Debug("stream aborted by client", "session", session.ID, "sent", n)
			return
		}
		s.log.Error("stream copy failed", "session", session.ID, "sent", n, "error", err)
	}
}

// ContentType maps a file name to the media type sent to players.
func ContentType(name string) string {
	if strings.EqualFold(path.Ext(name), ".mkv") {
		return "video/x-matroska"
	}
	return "video/mp4"
}

// IsBenignAbort reports whether an error is a normal consequence of the
// client walking away mid-stream. These are torn down silently: a viewer
// closing their player must never look like a server failure.
func IsBenignAbort(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, http.ErrAbortHandler) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "client disconnected")
}
