package search

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/yorunoma/animestrem/internal/indexer"
	"github.com/yorunoma/animestrem/internal/metrics"
)

// maxConcurrentFetches bounds indexer fan-out so a dozen query variants
// across several indexers cannot open unbounded connections at once.
const maxConcurrentFetches = 8

// Request is one incoming search.
type Request struct {
	Title   string
	Episode int // 0 means no specific episode
	Debug   bool
}

// TriedQuery records one indexer call for the debug trace.
type TriedQuery struct {
	Source string `json:"source"`
	Query  string `json:"query"`
	Found  int    `json:"found"`
	Error  bool   `json:"error,omitempty"`
}

// DebugInfo is attached to results when the caller asked for a trace.
type DebugInfo struct {
	Tried      []TriedQuery `json:"tried"`
	TotalFound int          `json:"totalFound"`
}

// Aggregator fans a query set out over all configured indexer clients,
// deduplicates the merged candidates by canonical key and ranks them.
type Aggregator struct {
	clients []indexer.Client
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewAggregator creates an aggregator over the given clients. metrics may be
// nil in tests.
func NewAggregator(clients []indexer.Client, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		clients: clients,
		metrics: m,
		log:     slog.With("component", "aggregator"),
	}
}

// Search runs the full discovery pipeline: plan query variants, fan out,
// dedup, classify, and optionally run a secondary pack search when direct
// matches are scarce. Individual indexer failures contribute nothing and
// never fail the search.
func (a *Aggregator) Search(ctx context.Context, req Request) (Results, *DebugInfo) {
	if a.metrics != nil {
		a.metrics.SearchesTotal.Inc()
	}

	queries := BuildQueries(req.Title, req.Episode)

	merged, tried := a.fanOut(ctx, queries, nil)
	total := len(merged)

	results := Classify(merged, req.Episode)

	if results.NeedsBatchSearch(req.Episode) {
		extra, batchTried := a.fanOut(ctx, BatchQueries(req.Title), keySet(merged))
		results.MergeBatches(extra, req.Episode)
		tried = append(tried, batchTried...)
		total += len(extra)
	}

	if a.metrics != nil {
		a.metrics.CandidatesFound.Add(float64(total))
	}

	a.log.Debug("search completed",
		"title", req.Title,
		"episode", req.Episode,
		"queries", len(queries),
		"unique", total,
		"direct", len(results.Torrents),
		"batches", len(results.Batches),
	)

	if !req.Debug {
		return results, nil
	}
	return results, &DebugInfo{Tried: tried, TotalFound: total}
}

// fanOut issues every (client, query) pair concurrently, bounded by a
// weighted semaphore, and merges the normalized candidates first-seen-wins by
// canonical key. exclude holds keys already claimed by an earlier pass.
func (a *Aggregator) fanOut(ctx context.Context, queries []string, exclude map[string]struct{}) ([]indexer.Candidate, []TriedQuery) {
	type call struct {
		client indexer.Client
		query  string
	}

	var calls []call
	for _, c := range a.clients {
		if !c.Configured() {
			continue
		}
		for _, q := range queries {
			calls = append(calls, call{client: c, query: q})
		}
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		seen   = make(map[string]struct{}, len(exclude))
		merged []indexer.Candidate
		tried  = make([]TriedQuery, len(calls))
	)
	for k := range exclude {
		seen[k] = struct{}{}
	}

	sem := semaphore.NewWeighted(maxConcurrentFetches)
	for i, cl := range calls {
		wg.Add(1)
		go func(i int, cl call) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				tried[i] = TriedQuery{Source: cl.client.Name(), Query: cl.query, Error: true}
				return
			}
			defer sem.Release(1)

			found, err := cl.client.Search(ctx, cl.query)
			if err != nil {
				a.log.Debug("indexer call failed", "source", cl.client.Name(), "query", cl.query, "error", err)
				if a.metrics != nil {
					a.metrics.IndexerErrors.Inc()
				}
				tried[i] = TriedQuery{Source: cl.client.Name(), Query: cl.query, Error: true}
				return
			}

			tried[i] = TriedQuery{Source: cl.client.Name(), Query: cl.query, Found: len(found)}

			mu.Lock()
			for _, cand := range found {
				key := cand.CanonicalKey()
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				merged = append(merged, cand)
			}
			mu.Unlock()
		}(i, cl)
	}
	wg.Wait()

	return merged, tried
}

func keySet(candidates []indexer.Candidate) map[string]struct{} {
	keys := make(map[string]struct{}, len(candidates))
	for i := range candidates {
		keys[candidates[i].CanonicalKey()] = struct{}{}
	}
	return keys
}
