package subtitle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Track types exposed to clients.
const (
	TypeEmbedded = "embedded"
	TypeExternal = "external"
)

// Common errors
var (
	ErrBadTrackID       = errors.New("malformed track id")
	ErrTrackNotFound    = errors.New("subtitle track not found")
	ErrUnsupportedCodec = errors.New("subtitle codec cannot be converted")
)

// Track is one selectable subtitle source for a session's video file.
type Track struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Lang  string `json:"lang"`
	Label string `json:"label"`
	Codec string `json:"codec,omitempty"`
	Src   string `json:"src"`
}

// textCodecs is the closed set of codecs ffmpeg can turn into WebVTT.
// Image-based subtitles (pgs, dvdsub) are rejected up front.
var textCodecs = map[string]bool{
	"ass":      true,
	"ssa":      true,
	"subrip":   true,
	"srt":      true,
	"mov_text": true,
	"text":     true,
	"webvtt":   true,
}

// IsTextCodec reports whether a probed codec is convertible to captions.
func IsTextCodec(codec string) bool {
	return textCodecs[strings.ToLower(codec)]
}

// ParseTrackID splits a track id into its kind prefix and stream/file index.
// Valid ids look like "s-0" (embedded stream) or "f-2" (external file).
func ParseTrackID(id string) (kind string, index int, err error) {
	kind, num, ok := strings.Cut(id, "-")
	if !ok || (kind != "s" && kind != "f") {
		return "", 0, fmt.Errorf("%w: %q", ErrBadTrackID, id)
	}
	index, err = strconv.Atoi(num)
	if err != nil || index < 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrBadTrackID, id)
	}
	return kind, index, nil
}
