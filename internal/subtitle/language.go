package subtitle

import (
	"regexp"
	"strings"
)

var (
	frenchNamePattern  = regexp.MustCompile(`(?i)(?:\b|[._-])(?:fr|fre|fra|french|fran[cç]ais|vostfr)(?:\b|[._-])`)
	englishNamePattern = regexp.MustCompile(`(?i)(?:\b|[._-])(?:en|eng|english)(?:\b|[._-])`)
	letterPattern      = regexp.MustCompile(`^[a-z]{2,3}`)
)

// GuessFromTag maps a probed stream language tag to a 2-letter code and a
// display label. French is the primary audience, so it gets a proper label;
// anything unrecognized degrades to a generic one.
func GuessFromTag(tag string) (code, label string) {
	t := strings.ToLower(strings.TrimSpace(tag))
	switch {
	case t == "fr" || t == "fre" || t == "fra" || strings.Contains(t, "french") || strings.Contains(t, "français"):
		return "fr", "Français"
	case t == "en" || t == "eng" || strings.Contains(t, "english"):
		return "en", "English"
	}
	if m := letterPattern.FindString(t); m != "" {
		return m[:2], "Sub"
	}
	return "und", "Sub"
}

// GuessFromFilename infers a subtitle file's language from tokens in its
// name, e.g. "Show.S01E01.fr.srt" or "subs/VOSTFR/episode.ass".
func GuessFromFilename(name string) (code, label string) {
	switch {
	case frenchNamePattern.MatchString(name):
		return "fr", "Français"
	case englishNamePattern.MatchString(name):
		return "en", "English"
	}
	return "und", "Sub"
}
