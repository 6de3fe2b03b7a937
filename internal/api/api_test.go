package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/yorunoma/animestrem/internal/indexer"
	"github.com/yorunoma/animestrem/internal/search"
	"github.com/yorunoma/animestrem/internal/stream"
	"github.com/yorunoma/animestrem/internal/subtitle"
	"github.com/yorunoma/animestrem/internal/swarm"
)

type fakeIndexer struct {
	name       string
	candidates []indexer.Candidate
}

func (f *fakeIndexer) Name() string     { return f.name }
func (f *fakeIndexer) Configured() bool { return true }

func (f *fakeIndexer) Search(ctx context.Context, query string) ([]indexer.Candidate, error) {
	return f.candidates, nil
}

type fakeHandle struct {
	hash    string
	name    string
	gotInfo chan struct{}
	files   []swarm.FileRef
	content map[string][]byte
}

func newFakeHandle(hash string, files []swarm.FileRef) *fakeHandle {
	h := &fakeHandle{
		hash:    hash,
		name:    "Fake Show",
		gotInfo: make(chan struct{}),
		files:   files,
		content: make(map[string][]byte),
	}
	close(h.gotInfo)
	for _, f := range files {
		h.content[f.Path] = bytes.Repeat([]byte{0x41}, int(f.Length))
	}
	return h
}

func (h *fakeHandle) InfoHash() string { return h.hash }

func (h *fakeHandle) Name() string { return h.name }

func (h *fakeHandle) GotInfo() <-chan struct{} { return h.gotInfo }

func (h *fakeHandle) Files() []swarm.FileRef { return h.files }

func (h *fakeHandle) AbsPath(path string) string { return "/downloads/" + h.hash + "/" + path }

func (h *fakeHandle) Stats() swarm.Stats {
	return swarm.Stats{TotalSize: 1 << 20, BytesCompleted: 512, ActivePeers: 3, ConnectedSeeders: 2}
}

type nopCloser struct{ *bytes.Reader }

func (nopCloser) Close() error { return nil }

func (h *fakeHandle) NewReader(path string) (io.ReadSeekCloser, error) {
	data, ok := h.content[path]
	if !ok {
		return nil, swarm.ErrFileNotFound
	}
	return nopCloser{bytes.NewReader(data)}, nil
}

type fakeEngine struct {
	handle *fakeHandle
	err    error
}

func (e *fakeEngine) AddSource(ctx context.Context, src string) (swarm.Handle, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.handle, nil
}

func (e *fakeEngine) Lookup(src string) (swarm.Handle, bool) { return nil, false }

type fakeProber struct{ streams []subtitle.Stream }

func (p *fakeProber) SubtitleStreams(ctx context.Context, path string) ([]subtitle.Stream, error) {
	return p.streams, nil
}

type fakeConverter struct{ fail bool }

func (c *fakeConverter) ExtractStream(ctx context.Context, videoPath string, n int, outPath string) error {
	if c.fail {
		return errors.New("unsupported")
	}
	return os.WriteFile(outPath, []byte("WEBVTT\n"), 0644)
}

func (c *fakeConverter) ConvertFile(ctx context.Context, subPath, outPath string) error {
	if c.fail {
		return errors.New("unsupported")
	}
	return os.WriteFile(outPath, []byte("WEBVTT\n"), 0644)
}

func intp(n int) *int { return &n }

func newTestServer(t *testing.T, engine swarm.Engine, clients ...indexer.Client) (*Server, *swarm.Manager) {
	t.Helper()

	subs, err := subtitle.NewService(t.TempDir(), &fakeProber{streams: []subtitle.Stream{
		{Codec: "ass", Lang: "fre"},
	}}, &fakeConverter{}, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}

	sessions := swarm.NewManager(engine)
	server := NewServer(
		search.NewAggregator(clients, nil),
		sessions,
		stream.NewStreamer(nil),
		subs,
		50*time.Millisecond,
	)
	return server, sessions
}

func do(server *Server, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	return w
}

func TestSearchRequiresTitle(t *testing.T) {
	server, _ := newTestServer(t, &fakeEngine{})
	w := do(server, http.MethodGet, "/api/torrents", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSearchReturnsRankedResults(t *testing.T) {
	client := &fakeIndexer{name: "nyaa", candidates: []indexer.Candidate{
		{Name: "[SubsPlease] Frieren - 07 (1080p).mkv", Magnet: "magnet:?xt=urn:btih:one", Seeders: intp(120), Source: "nyaa"},
		{Name: "[Judas] Frieren S01 (Batch) [1080p]", Magnet: "magnet:?xt=urn:btih:two", Seeders: intp(40), Source: "nyaa"},
	}}
	server, _ := newTestServer(t, &fakeEngine{}, client)

	w := do(server, http.MethodGet, "/api/torrents?anime=Frieren&episode=7&debug=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Torrents []indexer.Candidate `json:"torrents"`
		Batches  []indexer.Candidate `json:"batches"`
		Debug    *search.DebugInfo   `json:"debug"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Torrents) != 1 || !strings.Contains(resp.Torrents[0].Name, "07") {
		t.Errorf("torrents = %+v", resp.Torrents)
	}
	if len(resp.Batches) != 1 {
		t.Errorf("batches = %+v", resp.Batches)
	}
	if resp.Debug == nil || resp.Debug.TotalFound == 0 {
		t.Errorf("debug trace missing: %+v", resp.Debug)
	}
}

func TestDownloadValidation(t *testing.T) {
	server, _ := newTestServer(t, &fakeEngine{})

	w := do(server, http.MethodPost, "/api/download", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty body: status = %d, want 400", w.Code)
	}

	w = do(server, http.MethodPost, "/api/download", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad json: status = %d, want 400", w.Code)
	}
}

func TestDownloadAcquiresSession(t *testing.T) {
	handle := newFakeHandle("abc123", []swarm.FileRef{{Path: "ep.mkv", Length: 2048}})
	server, _ := newTestServer(t, &fakeEngine{handle: handle})

	w := do(server, http.MethodPost, "/api/download", `{"magnet":"magnet:?xt=urn:btih:abc123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp DownloadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.InfoHash != "abc123" || !resp.Ready {
		t.Errorf("response = %+v", resp)
	}
}

func TestDownloadEngineFailure(t *testing.T) {
	server, _ := newTestServer(t, &fakeEngine{err: errors.New("tracker down")})
	w := do(server, http.MethodPost, "/api/download", `{"magnet":"magnet:?xt=urn:btih:abc"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestStreamUnknownSession(t *testing.T) {
	server, _ := newTestServer(t, &fakeEngine{})
	w := do(server, http.MethodGet, "/api/stream/deadbeef", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestStreamRange(t *testing.T) {
	handle := newFakeHandle("abc123", []swarm.FileRef{{Path: "ep.mkv", Length: 2048}})
	server, sessions := newTestServer(t, &fakeEngine{handle: handle})

	if _, err := sessions.Acquire(context.Background(), "magnet:?xt=urn:btih:abc123"); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stream/abc123", nil)
	req.Header.Set("Range", "bytes=0-99")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", w.Code)
	}
	if got := w.Header().Get("Content-Range"); got != "bytes 0-99/2048" {
		t.Errorf("Content-Range = %q", got)
	}
	if w.Body.Len() != 100 {
		t.Errorf("body length = %d, want 100", w.Body.Len())
	}
}

func TestStreamNoVideoFile(t *testing.T) {
	handle := newFakeHandle("abc123", []swarm.FileRef{{Path: "notes.txt", Length: 10}})
	server, sessions := newTestServer(t, &fakeEngine{handle: handle})
	if _, err := sessions.Acquire(context.Background(), "magnet:?xt=urn:btih:abc123"); err != nil {
		t.Fatal(err)
	}

	w := do(server, http.MethodGet, "/api/stream/abc123", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSubtitleListUnknownSessionIsEmpty(t *testing.T) {
	server, _ := newTestServer(t, &fakeEngine{})
	w := do(server, http.MethodGet, "/api/subtitles/deadbeef", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Tracks []subtitle.Track `json:"tracks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Tracks) != 0 {
		t.Errorf("tracks = %+v, want empty", resp.Tracks)
	}
}

func TestSubtitleListTracks(t *testing.T) {
	handle := newFakeHandle("abc123", []swarm.FileRef{{Path: "ep.mkv", Length: 2048}})
	server, sessions := newTestServer(t, &fakeEngine{handle: handle})
	if _, err := sessions.Acquire(context.Background(), "magnet:?xt=urn:btih:abc123"); err != nil {
		t.Fatal(err)
	}

	w := do(server, http.MethodGet, "/api/subtitles/abc123", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Tracks []subtitle.Track `json:"tracks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Tracks) != 1 || resp.Tracks[0].ID != "s-0" || resp.Tracks[0].Lang != "fr" {
		t.Errorf("tracks = %+v", resp.Tracks)
	}
}

func TestCaptionRoutes(t *testing.T) {
	handle := newFakeHandle("abc123", []swarm.FileRef{{Path: "ep.mkv", Length: 2048}})
	server, sessions := newTestServer(t, &fakeEngine{handle: handle})
	if _, err := sessions.Acquire(context.Background(), "magnet:?xt=urn:btih:abc123"); err != nil {
		t.Fatal(err)
	}

	w := do(server, http.MethodGet, "/api/subtitles/abc123/s-0", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing .vtt suffix: status = %d, want 400", w.Code)
	}

	w = do(server, http.MethodGet, "/api/subtitles/abc123/bogus.vtt", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed id: status = %d, want 400", w.Code)
	}

	w = do(server, http.MethodGet, "/api/subtitles/deadbeef/s-0.vtt", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown session: status = %d, want 404", w.Code)
	}

	w = do(server, http.MethodGet, "/api/subtitles/abc123/f-9.vtt", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown external track: status = %d, want 404", w.Code)
	}

	w = do(server, http.MethodGet, "/api/subtitles/abc123/s-0.vtt", "")
	if w.Code != http.StatusOK {
		t.Fatalf("caption: status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/vtt") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "WEBVTT") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestCaptionUnsupportedCodec(t *testing.T) {
	handle := newFakeHandle("abc123", []swarm.FileRef{{Path: "ep.mkv", Length: 2048}})
	sessions := swarm.NewManager(&fakeEngine{handle: handle})
	subs, err := subtitle.NewService(t.TempDir(), &fakeProber{}, &fakeConverter{fail: true}, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	server := NewServer(search.NewAggregator(nil, nil), sessions, stream.NewStreamer(nil), subs, 50*time.Millisecond)
	if _, err := sessions.Acquire(context.Background(), "magnet:?xt=urn:btih:abc123"); err != nil {
		t.Fatal(err)
	}

	w := do(server, http.MethodGet, "/api/subtitles/abc123/s-0.vtt", "")
	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", w.Code)
	}
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t, &fakeEngine{})
	w := do(server, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
	if !strings.Contains(w.Body.String(), "true") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestSessionsListing(t *testing.T) {
	handle := newFakeHandle("abc123", []swarm.FileRef{{Path: "ep.mkv", Length: 2048}})
	server, sessions := newTestServer(t, &fakeEngine{handle: handle})
	if _, err := sessions.Acquire(context.Background(), "magnet:?xt=urn:btih:abc123"); err != nil {
		t.Fatal(err)
	}

	w := do(server, http.MethodGet, "/api/sessions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Sessions []SessionResponse `json:"sessions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Sessions) != 1 || resp.Sessions[0].InfoHash != "abc123" || resp.Sessions[0].ConnectedSeeders != 2 {
		t.Errorf("sessions = %+v", resp.Sessions)
	}
}
