package indexer

import (
	"fmt"
	"strconv"
	"strings"
)

// Candidate is the canonical shape every indexer record is normalized into.
// Seeder/leecher counts are pointers because many feeds omit them or carry
// garbage; a nil count serializes as null and never sorts above a real one.
type Candidate struct {
	Name       string  `json:"name"`
	Magnet     string  `json:"magnet,omitempty"`
	TorrentURL string  `json:"torrentUrl,omitempty"`
	Size       string  `json:"size,omitempty"`
	Seeders    *int    `json:"seeds"`
	Leechers   *int    `json:"leech"`
	PageLink   string  `json:"pageLink,omitempty"`
	Source     string  `json:"source"`
	Score      float64 `json:"score"`
	IsBatch    bool    `json:"isBatch"`
}

// CanonicalKey identifies a release for deduplication. Two candidates with
// the same key are the same release regardless of which indexer produced them.
func (c *Candidate) CanonicalKey() string {
	if c.Magnet != "" {
		return c.Magnet
	}
	if c.TorrentURL != "" {
		return c.TorrentURL
	}
	if c.PageLink != "" {
		return c.PageLink
	}
	return c.Source + "|" + c.Name
}

// HasSource reports whether the candidate carries a downloadable source.
func (c *Candidate) HasSource() bool {
	return c.Magnet != "" || c.TorrentURL != ""
}

// SeedCount returns the seeder count, treating unknown as -1 so that
// candidates with a known count always sort ahead.
func (c *Candidate) SeedCount() int {
	if c.Seeders == nil {
		return -1
	}
	return *c.Seeders
}

// parseCount parses a peer count defensively: non-numeric input yields nil
// rather than an error.
func parseCount(raw string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &n
}

func intPtr(n int) *int {
	return &n
}

// acceptTorrentURL keeps a torrent-file URL only if it actually resolves to a
// .torrent resource.
func acceptTorrentURL(raw string) string {
	u := strings.TrimSpace(raw)
	if strings.HasSuffix(strings.ToLower(u), ".torrent") {
		return u
	}
	return ""
}

// humanSize renders a byte count the way indexer feeds usually do, so that
// numeric feeds and string feeds display uniformly.
func humanSize(n int64) string {
	if n <= 0 {
		return ""
	}
	units := []string{"B", "KiB", "MiB", "GiB", "TiB"}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f %s", v, units[i])
}
