package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SessionStats is the per-session snapshot the collector scrapes. It mirrors
// the swarm session stats without importing the swarm package, which keeps
// the dependency arrow pointing at metrics.
type SessionStats struct {
	InfoHash         string
	Name             string
	Ready            bool
	TotalSize        int64
	BytesCompleted   int64
	ActivePeers      int
	ConnectedSeeders int
}

// SessionSource provides live session snapshots on demand.
type SessionSource interface {
	CollectStats() []SessionStats
}

// SessionCollector implements prometheus.Collector for swarm sessions.
// It polls the session source lazily on each Prometheus scrape rather than
// maintaining duplicate state.
type SessionCollector struct {
	source SessionSource

	// Per-session descriptors (labels: info_hash, name)
	sizeBytes        *prometheus.Desc
	bytesCompleted   *prometheus.Desc
	progressRatio    *prometheus.Desc
	peersActive      *prometheus.Desc
	seedersConnected *prometheus.Desc
	ready            *prometheus.Desc

	// Aggregate descriptors
	sessionsLoaded *prometheus.Desc
}

var sessionLabels = []string{"info_hash", "name"}

// NewSessionCollector creates a collector that scrapes session stats on demand.
func NewSessionCollector(source SessionSource) *SessionCollector {
	return &SessionCollector{
		source: source,

		sizeBytes: prometheus.NewDesc(
			"animestrem_session_size_bytes",
			"Total size of the session's download in bytes.",
			sessionLabels, nil,
		),
		bytesCompleted: prometheus.NewDesc(
			"animestrem_session_bytes_completed",
			"Bytes completed (downloaded and verified) for the session.",
			sessionLabels, nil,
		),
		progressRatio: prometheus.NewDesc(
			"animestrem_session_progress_ratio",
			"Download progress as a ratio from 0.0 to 1.0.",
			sessionLabels, nil,
		),
		peersActive: prometheus.NewDesc(
			"animestrem_session_peers_active",
			"Number of actively transferring peers.",
			sessionLabels, nil,
		),
		seedersConnected: prometheus.NewDesc(
			"animestrem_session_seeders_connected",
			"Number of connected seeders.",
			sessionLabels, nil,
		),
		ready: prometheus.NewDesc(
			"animestrem_session_ready",
			"Whether download metadata is available (1) or still resolving (0).",
			sessionLabels, nil,
		),

		sessionsLoaded: prometheus.NewDesc(
			"animestrem_sessions_loaded",
			"Total number of live sessions.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.sizeBytes
	ch <- c.bytesCompleted
	ch <- c.progressRatio
	ch <- c.peersActive
	ch <- c.seedersConnected
	ch <- c.ready
	ch <- c.sessionsLoaded
}

// Collect implements prometheus.Collector.
func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.CollectStats()

	for _, s := range stats {
		labels := []string{s.InfoHash, s.Name}

		var progress float64
		if s.TotalSize > 0 {
			progress = float64(s.BytesCompleted) / float64(s.TotalSize)
		}

		readyVal := 0.0
		if s.Ready {
			readyVal = 1.0
		}

		ch <- prometheus.MustNewConstMetric(c.sizeBytes, prometheus.GaugeValue, float64(s.TotalSize), labels...)
		ch <- prometheus.MustNewConstMetric(c.bytesCompleted, prometheus.GaugeValue, float64(s.BytesCompleted), labels...)
		ch <- prometheus.MustNewConstMetric(c.progressRatio, prometheus.GaugeValue, progress, labels...)
		ch <- prometheus.MustNewConstMetric(c.peersActive, prometheus.GaugeValue, float64(s.ActivePeers), labels...)
		ch <- prometheus.MustNewConstMetric(c.seedersConnected, prometheus.GaugeValue, float64(s.ConnectedSeeders), labels...)
		ch <- prometheus.MustNewConstMetric(c.ready, prometheus.GaugeValue, readyVal, labels...)
	}

	ch <- prometheus.MustNewConstMetric(c.sessionsLoaded, prometheus.GaugeValue, float64(len(stats)))
}
