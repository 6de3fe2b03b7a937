package swarm

import (
	"path"
	"strings"
)

var videoExtensions = map[string]bool{
	".mp4": true,
	".mkv": true,
}

var subtitleExtensions = map[string]bool{
	".srt": true,
	".ass": true,
	".ssa": true,
}

// SelectVideoFile returns the largest playable video file in the torrent.
// ErrNoFiles means the file table is empty (metadata still resolving);
// ErrFileNotFound means files exist but none is playable.
func SelectVideoFile(files []FileRef) (FileRef, error) {
	if len(files) == 0 {
		return FileRef{}, ErrNoFiles
	}
	var best FileRef
	found := false
	for _, f := range files {
		ext := strings.ToLower(path.Ext(f.Path))
		if !videoExtensions[ext] {
			continue
		}
		if !found || f.Length > best.Length {
			best = f
			found = true
		}
	}
	if !found {
		return FileRef{}, ErrFileNotFound
	}
	return best, nil
}

// SubtitleFiles returns standalone subtitle files in torrent order.
func SubtitleFiles(files []FileRef) []FileRef {
	var subs []FileRef
	for _, f := range files {
		if subtitleExtensions[strings.ToLower(path.Ext(f.Path))] {
			subs = append(subs, f)
		}
	}
	return subs
}
