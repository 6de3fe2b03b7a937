package swarm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/anacrolix/torrent"
	"github.com/anacrolix/torrent/metainfo"
)

// readahead for streaming readers, keeps the pipeline ahead of playback.
const readerReadahead = 1 << 24

// TorrentEngine implements Engine on top of an anacrolix torrent client.
type TorrentEngine struct {
	client       *torrent.Client
	downloadsDir string
	addTimeout   time.Duration
	httpClient   *http.Client
	log          *slog.Logger
}

// NewTorrentEngine wraps a torrent client. downloadsDir must match the
// directory the client's storage writes payload files to. addTimeout bounds
// one AddSource call, torrent-file fetch included; zero means no bound.
func NewTorrentEngine(client *torrent.Client, downloadsDir string, addTimeout time.Duration) *TorrentEngine {
	return &TorrentEngine{
		client:       client,
		downloadsDir: downloadsDir,
		addTimeout:   addTimeout,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		log:          slog.With("component", "swarm-engine"),
	}
}

// AddSource registers a magnet URI or fetches a .torrent file and adds it.
// It returns as soon as the engine accepts the source; metadata resolution
// continues in the background.
func (e *TorrentEngine) AddSource(ctx context.Context, src string) (Handle, error) {
	if e.addTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.addTimeout)
		defer cancel()
	}

	var t *torrent.Torrent
	var err error

	if IsMagnet(src) {
		t, err = e.client.AddMagnet(src)
		if err != nil {
			return nil, fmt.Errorf("add magnet: %w", err)
		}
	} else {
		t, err = e.addTorrentURL(ctx, src)
		if err != nil {
			return nil, err
		}
	}

	e.log.Info("source added",
		"info_hash", t.InfoHash().HexString(),
		"magnet", IsMagnet(src),
	)

	return &torrentHandle{t: t, downloadsDir: e.downloadsDir}, nil
}

// Lookup resolves a magnet source to an already-registered handle. Torrent
// URLs cannot be resolved without fetching, so they always miss.
func (e *TorrentEngine) Lookup(src string) (Handle, bool) {
	if !IsMagnet(src) {
		return nil, false
	}
	m, err := metainfo.ParseMagnetUri(src)
	if err != nil {
		return nil, false
	}
	t, ok := e.client.Torrent(m.InfoHash)
	if !ok {
		return nil, false
	}
	return &torrentHandle{t: t, downloadsDir: e.downloadsDir}, true
}

// Close shuts down the underlying client and all downloads.
func (e *TorrentEngine) Close() {
	e.client.Close()
}

func (e *TorrentEngine) addTorrentURL(ctx context.Context, rawURL string) (*torrent.Torrent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("torrent url: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch torrent file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch torrent file: unexpected status %d", resp.StatusCode)
	}

	mi, err := metainfo.Load(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse torrent file: %w", err)
	}

	t, err := e.client.AddTorrent(mi)
	if err != nil {
		return nil, fmt.Errorf("add torrent: %w", err)
	}
	return t, nil
}

// torrentHandle adapts *torrent.Torrent to the Handle interface.
type torrentHandle struct {
	t            *torrent.Torrent
	downloadsDir string
}

func (h *torrentHandle) InfoHash() string { return h.t.InfoHash().HexString() }

func (h *torrentHandle) Name() string {
	if h.t.Info() == nil {
		return ""
	}
	return h.t.Name()
}

func (h *torrentHandle) GotInfo() <-chan struct{} { return h.t.GotInfo() }

func (h *torrentHandle) Files() []FileRef {
	if h.t.Info() == nil {
		return nil
	}
	files := h.t.Files()
	out := make([]FileRef, 0, len(files))
	for _, f := range files {
		out = append(out, FileRef{Path: f.DisplayPath(), Length: f.Length()})
	}
	return out
}

func (h *torrentHandle) NewReader(path string) (io.ReadSeekCloser, error) {
	f := h.findFile(path)
	if f == nil {
		return nil, ErrFileNotFound
	}
	r := f.NewReader()
	r.SetReadahead(readerReadahead)
	return r, nil
}

// AbsPath mirrors the storage layout configured in InitStorage.
func (h *torrentHandle) AbsPath(path string) string {
	return filepath.Join(h.downloadsDir, h.InfoHash(), filepath.FromSlash(path))
}

func (h *torrentHandle) Stats() Stats {
	stats := h.t.Stats()
	out := Stats{
		BytesCompleted:   h.t.BytesCompleted(),
		ActivePeers:      stats.ActivePeers,
		ConnectedSeeders: stats.ConnectedSeeders,
	}
	if info := h.t.Info(); info != nil {
		out.TotalSize = info.TotalLength()
	}
	return out
}

func (h *torrentHandle) findFile(path string) *torrent.File {
	if h.t.Info() == nil {
		return nil
	}
	for _, f := range h.t.Files() {
		if f.DisplayPath() == path {
			return f
		}
	}
	return nil
}
