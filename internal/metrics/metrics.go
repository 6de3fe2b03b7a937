package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds instruments for the discovery and delivery paths, handed to
// the components that record them directly.
type Metrics struct {
	SearchesTotal   prometheus.Counter
	IndexerErrors   prometheus.Counter
	CandidatesFound prometheus.Counter

	StreamedBytes prometheus.Counter
	OpenStreams   prometheus.Gauge

	SubtitleConversions prometheus.Counter
	SubtitleCacheHits   prometheus.Counter
}

// New creates and registers all instruments with the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SearchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "animestrem",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total search requests served.",
		}),
		IndexerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "animestrem",
			Subsystem: "search",
			Name:      "indexer_errors_total",
			Help:      "Indexer calls that failed or timed out.",
		}),
		CandidatesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "animestrem",
			Subsystem: "search",
			Name:      "candidates_total",
			Help:      "Unique candidates produced by aggregation.",
		}),
		StreamedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "animestrem",
			Subsystem: "stream",
			Name:      "bytes_total",
			Help:      "Total bytes written to streaming clients.",
		}),
		OpenStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "animestrem",
			Subsystem: "stream",
			Name:      "open",
			Help:      "Number of in-flight streaming responses.",
		}),
		SubtitleConversions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "animestrem",
			Subsystem: "subtitle",
			Name:      "conversions_total",
			Help:      "Subtitle tracks converted to WebVTT.",
		}),
		SubtitleCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "animestrem",
			Subsystem: "subtitle",
			Name:      "cache_hits_total",
			Help:      "Caption requests served from the on-disk cache.",
		}),
	}

	reg.MustRegister(
		m.SearchesTotal,
		m.IndexerErrors,
		m.CandidatesFound,
		m.StreamedBytes,
		m.OpenStreams,
		m.SubtitleConversions,
		m.SubtitleCacheHits,
	)

	return m
}
