package search

import (
	"fmt"
	"regexp"
	"strings"
)

// Release-name heuristics. Each pattern is named and exercised independently
// so fixture names can be tested against exactly one rule.

var (
	// Non-video releases: print media and archives never reach a result list.
	nonVideoPattern = regexp.MustCompile(`(?i)\b(?:manga|scans?|chapter|chapitre|volume|vol\.?\s*\d|comics?|novel|roman|artbook)\b|\.(?:zip|rar|7z|pdf|cbz|cbr)\b`)

	// Batch/pack releases: explicit pack words and episode ranges.
	packWordPattern = regexp.MustCompile(`(?i)\b(?:batch|complete|integrale|int[ée]grale|pack)\b`)
	rangePattern    = regexp.MustCompile(`(?i)\b(?:ep?)?\d{1,3}[-~](?:ep?)?\d{1,3}\b`)

	// Season markers flag a pack only when no episode marker is present,
	// e.g. "Show S01 1080p" but not "Show S01E05".
	seasonPattern = regexp.MustCompile(`(?i)\bs\d{1,2}\b|\bseasons?\s*\d+\b|\bsaison\s*\d+\b`)
	episodeMarker = regexp.MustCompile(`(?i)\bs\d{1,2}\s*e\d{1,3}\b|\bep?\.?\s*\d{1,3}\b|\bepisodes?\s*\d+\b`)

	// Lossless remuxes: scored but penalized when oversized.
	remuxPattern = regexp.MustCompile(`(?i)\bremux\b|\bbdremux\b`)

	// Localization hints.
	frenchHintPattern = regexp.MustCompile(`(?i)vostfr|vostf\b|french|fran[çc]ais|\bvf\b|\bfr\b|multi[\s._-]?subs?`)
	subHintPattern    = regexp.MustCompile(`(?i)\bsubs?\b|subbed|subtitle|multi[\s._-]?subs?|vost`)

	resolutionPattern = regexp.MustCompile(`(?i)\b(2160p|4k|1080p|720p|480p)\b`)
)

// trustedGroups are release-group name fragments that historically produce
// well-muxed files; matching names earn a small fixed bonus.
var trustedGroups = []string{
	"subsplease", "erai-raws", "ember", "asw", "judas", "tsundere",
}

// IsNonVideo reports whether a release name indicates print media or an
// archive rather than a video.
func IsNonVideo(name string) bool {
	return nonVideoPattern.MatchString(name)
}

// IsBatch reports whether a release name looks like a multi-episode pack.
func IsBatch(name string) bool {
	if packWordPattern.MatchString(name) || rangePattern.MatchString(name) {
		return true
	}
	// A bare season tag with no episode marker is a pack.
	return seasonPattern.MatchString(name) && !episodeMarker.MatchString(name)
}

// IsRemux reports whether a release name implies a lossless remux.
func IsRemux(name string) bool {
	return remuxPattern.MatchString(name)
}

// HasFrenchHint reports a French-localization marker in the name.
func HasFrenchHint(name string) bool {
	return frenchHintPattern.MatchString(name)
}

// HasSubHint reports a generic subtitle marker in the name.
func HasSubHint(name string) bool {
	return subHintPattern.MatchString(name)
}

// IsTrustedGroup reports whether the name carries a known release-group
// fragment.
func IsTrustedGroup(name string) bool {
	lower := strings.ToLower(name)
	for _, g := range trustedGroups {
		if strings.Contains(lower, g) {
			return true
		}
	}
	return false
}

// Resolution extracts the vertical resolution from a release name, or 0 when
// none is present.
func Resolution(name string) int {
	m := resolutionPattern.FindString(name)
	switch strings.ToLower(m) {
	case "2160p", "4k":
		return 2160
	case "1080p":
		return 1080
	case "720p":
		return 720
	case "480p":
		return 480
	default:
		return 0
	}
}

// MatchesEpisode reports whether the name references the requested episode.
// The boundary-aware pattern tolerates S{n}E/E/Ep prefixes, leading zeros and
// a version suffix (v2 etc.), and is tried for both the plain and the
// zero-padded episode number.
func MatchesEpisode(name string, episode int) bool {
	if episode <= 0 {
		return false
	}
	lower := strings.ToLower(name)
	for _, ep := range []string{fmt.Sprintf("%d", episode), fmt.Sprintf("%02d", episode)} {
		re := regexp.MustCompile(`(?:^|\D)(?:s\d+e)?(?:ep?|e)?\s*0*` + ep + `(?:v\d+)?(?:\D|$)`)
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}
