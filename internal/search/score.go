package search

import (
	"math"
	"sort"

	"github.com/yorunoma/animestrem/internal/indexer"
)

// Score bonuses and penalties. The formula balances availability (seeds),
// quality (resolution), localization fit and single-episode precision without
// letting any one factor dominate.
const (
	bonus2160p      = 2.2
	bonus1080p      = 2.0
	bonus720p       = 1.3
	bonus480p       = 0.6
	bonusUnknownRes = 1.0

	bonusFrench = 2.5
	bonusSubbed = 1.0

	bonusExactEpisode = 3.0
	penaltyBatch      = 1.0

	penaltyOversizedRemux = 3.0
	remuxSizeLimit        = 10 << 30 // 10 GiB

	bonusTrustedGroup = 0.5

	// Direct matches below this count trigger the fallback candidate list
	// and a secondary batch search.
	scarceThreshold = 5

	maxFallbackCandidates = 15
	maxBatches            = 20
)

// Results is the ranked output of one search: direct episode matches, a
// fallback list when direct matches are scarce, and batch/pack releases.
type Results struct {
	Torrents   []indexer.Candidate `json:"torrents"`
	Candidates []indexer.Candidate `json:"candidates"`
	Batches    []indexer.Candidate `json:"batches"`
}

// ScoreCandidate computes the rank score of a candidate for an optional
// requested episode (0 means none) and reports whether the name matches that
// episode exactly.
func ScoreCandidate(c *indexer.Candidate, episode int) (score float64, episodeMatch bool) {
	// Seed term: log10(seeds+10) rewards availability while bounding the
	// influence of very high counts.
	seeds := 0
	if c.Seeders != nil && *c.Seeders > 0 {
		seeds = *c.Seeders
	}
	score = math.Log10(float64(seeds) + 10)

	switch Resolution(c.Name) {
	case 2160:
		score += bonus2160p
	case 1080:
		score += bonus1080p
	case 720:
		score += bonus720p
	case 480:
		score += bonus480p
	default:
		score += bonusUnknownRes
	}

	if HasFrenchHint(c.Name) {
		score += bonusFrench
	} else if HasSubHint(c.Name) {
		score += bonusSubbed
	}

	episodeMatch = MatchesEpisode(c.Name, episode)
	if episode > 0 {
		if episodeMatch && !c.IsBatch {
			score += bonusExactEpisode
		}
		if c.IsBatch {
			score -= penaltyBatch
		}
	}

	if IsRemux(c.Name) && ParseSize(c.Size) > remuxSizeLimit {
		score -= penaltyOversizedRemux
	}

	if IsTrustedGroup(c.Name) {
		score += bonusTrustedGroup
	}

	return score, episodeMatch
}

// Classify scores and routes candidates into the three result lists. Hard
// rejects (non-video releases) never appear anywhere.
func Classify(candidates []indexer.Candidate, episode int) Results {
	var direct, fallback, batches []indexer.Candidate

	for _, c := range candidates {
		if IsNonVideo(c.Name) {
			continue
		}

		c.IsBatch = IsBatch(c.Name)
		score, matched := ScoreCandidate(&c, episode)
		c.Score = round2(score)

		switch {
		case c.IsBatch:
			batches = append(batches, c)
		case episode > 0 && !matched:
			fallback = append(fallback, c)
		default:
			direct = append(direct, c)
		}
	}

	sortByScore(direct)
	sortByScore(fallback)
	sortBySeeds(batches)

	if direct == nil {
		direct = []indexer.Candidate{}
	}
	res := Results{
		Torrents:   direct,
		Candidates: []indexer.Candidate{},
		Batches:    truncate(batches, maxBatches),
	}

	// Only surface loose candidates when an episode was requested and direct
	// matches are scarce.
	if episode > 0 && len(direct) < scarceThreshold {
		res.Candidates = truncate(fallback, maxFallbackCandidates)
	}

	return res
}

// MergeBatches folds secondary-search results into the batch list, keeping
// seed ordering and the size cap.
func (r *Results) MergeBatches(extra []indexer.Candidate, episode int) {
	for _, c := range extra {
		if IsNonVideo(c.Name) {
			continue
		}
		c.IsBatch = true
		score, _ := ScoreCandidate(&c, episode)
		c.Score = round2(score)
		r.Batches = append(r.Batches, c)
	}
	sortBySeeds(r.Batches)
	r.Batches = truncate(r.Batches, maxBatches)
}

// NeedsBatchSearch reports whether a secondary pack search is worthwhile.
func (r *Results) NeedsBatchSearch(episode int) bool {
	return episode > 0 && len(r.Torrents) < scarceThreshold
}

func sortByScore(items []indexer.Candidate) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		if items[i].SeedCount() != items[j].SeedCount() {
			return items[i].SeedCount() > items[j].SeedCount()
		}
		return ParseSize(items[i].Size) > ParseSize(items[j].Size)
	})
}

func sortBySeeds(items []indexer.Candidate) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].SeedCount() != items[j].SeedCount() {
			return items[i].SeedCount() > items[j].SeedCount()
		}
		return ParseSize(items[i].Size) > ParseSize(items[j].Size)
	})
}

func truncate(items []indexer.Candidate, limit int) []indexer.Candidate {
	if items == nil {
		return []indexer.Candidate{}
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
