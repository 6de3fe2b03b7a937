package search

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/yorunoma/animestrem/internal/indexer"
)

// fakeClient serves canned candidates keyed by query substring and counts
// calls so tests can assert fan-out behavior.
type fakeClient struct {
	name       string
	byQuery    map[string][]indexer.Candidate
	err        error
	configured bool
	calls      atomic.Int64
}

func (f *fakeClient) Name() string { return f.name }

func (f *fakeClient) Configured() bool { return f.configured }

func (f *fakeClient) Search(_ context.Context, query string) ([]indexer.Candidate, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	for key, found := range f.byQuery {
		if strings.Contains(query, key) {
			return found, nil
		}
	}
	return nil, nil
}

func TestSearchDeduplicatesAcrossQueries(t *testing.T) {
	release := cand("[SubsPlease] Frieren - 07 (1080p) VOSTFR", 800, "1.4 GiB")
	client := &fakeClient{
		name:       "nyaa",
		configured: true,
		byQuery:    map[string][]indexer.Candidate{"Frieren": {release}},
	}

	agg := NewAggregator([]indexer.Client{client}, nil)
	res, _ := agg.Search(context.Background(), Request{Title: "Frieren", Episode: 7})

	// Every query variant returns the same release; one canonical key, one
	// result.
	if len(res.Torrents) != 1 {
		t.Fatalf("direct = %d, want 1", len(res.Torrents))
	}
	if client.calls.Load() < int64(2) {
		t.Errorf("fan-out issued %d calls", client.calls.Load())
	}
}

func TestSearchToleratesFailingIndexer(t *testing.T) {
	good := &fakeClient{
		name:       "nyaa",
		configured: true,
		byQuery: map[string][]indexer.Candidate{
			"Frieren": {cand("Frieren - 07 VOSTFR 1080p", 500, "")},
		},
	}
	bad := &fakeClient{name: "torznab", configured: true, err: errors.New("gateway down")}

	agg := NewAggregator([]indexer.Client{good, bad}, nil)
	res, debug := agg.Search(context.Background(), Request{Title: "Frieren", Episode: 7, Debug: true})

	if len(res.Torrents) != 1 {
		t.Fatalf("direct = %d, want 1", len(res.Torrents))
	}
	if debug == nil {
		t.Fatal("debug trace missing")
	}

	var failed int
	for _, tq := range debug.Tried {
		if tq.Source == "torznab" && !tq.Error {
			t.Errorf("failed call not flagged: %+v", tq)
		}
		if tq.Error {
			failed++
		}
	}
	if failed == 0 {
		t.Error("no failed calls recorded in trace")
	}
}

func TestSearchSkipsUnconfiguredClients(t *testing.T) {
	idle := &fakeClient{name: "torznab", configured: false}
	agg := NewAggregator([]indexer.Client{idle}, nil)

	res, _ := agg.Search(context.Background(), Request{Title: "Frieren"})
	if idle.calls.Load() != 0 {
		t.Errorf("unconfigured client called %d times", idle.calls.Load())
	}
	if len(res.Torrents) != 0 || len(res.Batches) != 0 {
		t.Errorf("results from nothing: %+v", res)
	}
}

func TestSearchRunsBatchPassWhenScarce(t *testing.T) {
	pack := cand("[Judas] Frieren S01 Batch 1080p", 150, "20 GiB")
	client := &fakeClient{
		name:       "nyaa",
		configured: true,
		byQuery:    map[string][]indexer.Candidate{"batch": {pack}},
	}

	agg := NewAggregator([]indexer.Client{client}, nil)
	res, debug := agg.Search(context.Background(), Request{Title: "Frieren", Episode: 7, Debug: true})

	if len(res.Torrents) != 0 {
		t.Fatalf("direct = %d, want 0", len(res.Torrents))
	}
	if len(res.Batches) != 1 || res.Batches[0].Name != pack.Name {
		t.Fatalf("batches = %+v", res.Batches)
	}

	var sawBatchQuery bool
	for _, tq := range debug.Tried {
		if tq.Query == "Frieren batch" {
			sawBatchQuery = true
		}
	}
	if !sawBatchQuery {
		t.Error("secondary pack queries not issued")
	}
}

func TestSearchBatchPassExcludesClaimedKeys(t *testing.T) {
	// The same pack shows up in both passes; the first pass owns its key.
	pack := cand("[Judas] Frieren S01 Batch 1080p", 150, "20 GiB")
	client := &fakeClient{
		name:       "nyaa",
		configured: true,
		byQuery:    map[string][]indexer.Candidate{"Frieren": {pack}},
	}

	agg := NewAggregator([]indexer.Client{client}, nil)
	res, _ := agg.Search(context.Background(), Request{Title: "Frieren", Episode: 7})

	if len(res.Batches) != 1 {
		t.Errorf("batches = %d, want 1 after cross-pass dedup", len(res.Batches))
	}
}

func TestSearchNoBatchPassWithoutEpisode(t *testing.T) {
	client := &fakeClient{name: "nyaa", configured: true}
	agg := NewAggregator([]indexer.Client{client}, nil)

	_, debug := agg.Search(context.Background(), Request{Title: "Frieren", Debug: true})
	for _, tq := range debug.Tried {
		if strings.HasSuffix(tq.Query, " batch") {
			t.Fatalf("pack query %q issued without an episode", tq.Query)
		}
	}
}
