package search

import (
	"fmt"
	"strings"
)

// maxQueries caps fan-out cost: indexer ranking varies with phrasing, so we
// try several spellings, but never more than this many.
const maxQueries = 12

// langTokens bias queries toward French-subtitled releases.
var langTokens = []string{"VOSTFR", "VOSTF", "SUB FR", "French Sub", "Multi-Subs"}

// BuildQueries returns an ordered, deduplicated set of query variants for a
// title and optional episode (0 means no episode). The bare title is always
// included and the result never exceeds maxQueries entries.
func BuildQueries(title string, episode int) []string {
	forms := []string{""}
	if episode > 0 {
		ep := fmt.Sprintf("%d", episode)
		ep2 := fmt.Sprintf("%02d", episode)
		forms = []string{
			"E" + ep,
			"E" + ep2,
			"Episode " + ep,
			"Episode " + ep2,
			ep,
			ep2,
			"S01E" + ep2,
		}
	}

	out := make([]string, 0, len(forms)*(len(langTokens)+1)+1)
	for _, form := range forms {
		for _, token := range langTokens {
			out = append(out, joinQuery(title, form, token))
		}
		out = append(out, joinQuery(title, form))
	}
	bare := strings.TrimSpace(title)
	out = append(out, bare)

	queries := dedupQueries(out, maxQueries)

	// The bare title must survive truncation: it is the variant most likely
	// to match at all.
	if !containsQuery(queries, bare) && len(queries) > 0 {
		queries[len(queries)-1] = bare
	}
	return queries
}

func containsQuery(queries []string, q string) bool {
	for _, candidate := range queries {
		if candidate == q {
			return true
		}
	}
	return false
}

// BatchQueries returns the secondary query set used to locate season packs
// when single-episode matches are scarce.
func BatchQueries(title string) []string {
	title = strings.TrimSpace(title)
	return []string{
		title + " batch",
		title + " season",
		title + " complete",
		title + " S01",
		title + " pack",
	}
}

func joinQuery(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, strings.TrimSpace(p))
		}
	}
	return strings.Join(kept, " ")
}

func dedupQueries(in []string, limit int) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, limit)
	for _, q := range in {
		if q == "" {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
		if len(out) == limit {
			break
		}
	}
	return out
}
