package swarm

import (
	"net/url"
	"strings"
)

// NormalizeSource derives the canonical source identifier from a magnet URI
// or torrent-file URL. Magnets are percent-decoded so that the same logical
// source always yields the same identifier regardless of how a client encoded
// it; undecodable input is kept verbatim.
func NormalizeSource(magnet, torrentURL string) (string, error) {
	magnet = strings.TrimSpace(magnet)
	if magnet != "" {
		if decoded, err := url.PathUnescape(magnet); err == nil {
			magnet = decoded
		}
		return magnet, nil
	}

	torrentURL = strings.TrimSpace(torrentURL)
	if torrentURL != "" {
		return torrentURL, nil
	}

	return "", ErrNoSource
}

// IsMagnet reports whether a normalized source is a magnet URI (as opposed to
// a torrent-file URL).
func IsMagnet(src string) bool {
	return strings.HasPrefix(strings.ToLower(src), "magnet:")
}
