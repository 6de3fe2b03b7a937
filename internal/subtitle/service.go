package subtitle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yorunoma/animestrem/internal/metrics"
	"github.com/yorunoma/animestrem/internal/swarm"
)

// headerPreread is how much of the video file is forced onto disk before
// probing. Container headers (including subtitle stream tables) live in the
// first few megabytes; without this the prober sees a sparse file.
const headerPreread = 8 << 20

// Service discovers subtitle tracks for swarm sessions and converts them to
// WebVTT captions, caching converted artifacts on disk.
type Service struct {
	cacheDir     string
	prober       Prober
	converter    Converter
	readyTimeout time.Duration
	metrics      *metrics.Metrics
	log          *slog.Logger
}

// NewService creates a subtitle service writing caption artifacts under
// cacheDir. metrics may be nil.
func NewService(cacheDir string, prober Prober, converter Converter, readyTimeout time.Duration, m *metrics.Metrics) (*Service, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("subtitle cache dir: %w", err)
	}
	return &Service{
		cacheDir:     cacheDir,
		prober:       prober,
		converter:    converter,
		readyTimeout: readyTimeout,
		metrics:      m,
		log:          slog.With("component", "subtitles"),
	}, nil
}

// Tracks lists the selectable subtitle tracks for a session: text-codec
// streams embedded in the main video file plus standalone subtitle files
// bundled in the download. A session without a video file yields an empty
// list, not an error.
func (s *Service) Tracks(ctx context.Context, session *swarm.Session) ([]Track, error) {
	session.WaitReady(ctx, s.readyTimeout)

	video, err := swarm.SelectVideoFile(session.Files())
	if err != nil {
		s.log.Debug("no video file for subtitle listing", "session", session.ID)
		return []Track{}, nil
	}

	tracks := []Track{}

	if err := s.prereadVideo(ctx, session, video); err != nil {
		s.log.Warn("header pre-read failed", "session", session.ID, "error", err)
	} else if streams, err := s.prober.SubtitleStreams(ctx, session.AbsPath(video.Path)); err != nil {
		s.log.Warn("subtitle probe failed", "session", session.ID, "error", err)
	} else {
		// The positional index doubles as the transcoder's subtitle stream
		// selector, so skipped image codecs must not shift later ids.
		for i, st := range streams {
			if !IsTextCodec(st.Codec) {
				continue
			}
			code, label := GuessFromTag(st.Lang)
			if code == "und" && st.Title != "" {
				code, label = GuessFromTag(st.Title)
			}
			id := fmt.Sprintf("s-%d", i)
			tracks = append(tracks, Track{
				ID:    id,
				Type:  TypeEmbedded,
				Lang:  code,
				Label: label,
				Codec: st.Codec,
				Src:   captionURL(session.ID, id),
			})
		}
	}

	for i, f := range swarm.SubtitleFiles(session.Files()) {
		code, label := GuessFromFilename(f.Path)
		id := fmt.Sprintf("f-%d", i)
		tracks = append(tracks, Track{
			ID:    id,
			Type:  TypeExternal,
			Lang:  code,
			Label: label,
			Codec: strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Path)), "."),
			Src:   captionURL(session.ID, id),
		})
	}

	sort.SliceStable(tracks, func(i, j int) bool {
		return tracks[i].Lang == "fr" && tracks[j].Lang != "fr"
	})

	return tracks, nil
}

// Caption resolves a track id to a WebVTT file on disk, converting on first
// use. The cache key is (session, track); later requests for the same key
// are pure disk reads.
func (s *Service) Caption(ctx context.Context, session *swarm.Session, trackID string) (string, error) {
	kind, index, err := ParseTrackID(trackID)
	if err != nil {
		return "", err
	}

	cachePath := filepath.Join(s.cacheDir, session.ID+"-"+trackID+".vtt")
	if _, err := os.Stat(cachePath); err == nil {
		if s.metrics != nil {
			s.metrics.SubtitleCacheHits.Inc()
		}
		s.log.Debug("caption cache hit", "session", session.ID, "track", trackID)
		return cachePath, nil
	}

	// Converters overwrite idempotently, so a concurrent request for the
	// same key at worst repeats the work.
	tmp := cachePath + ".tmp"

	switch kind {
	case "s":
		if err := s.extractEmbedded(ctx, session, index, tmp); err != nil {
			return "", err
		}
	case "f":
		if err := s.convertExternal(ctx, session, index, tmp); err != nil {
			return "", err
		}
	}

	if err := os.Rename(tmp, cachePath); err != nil {
		return "", fmt.Errorf("publish caption: %w", err)
	}
	if s.metrics != nil {
		s.metrics.SubtitleConversions.Inc()
	}
	s.log.Info("caption converted", "session", session.ID, "track", trackID)
	return cachePath, nil
}

func (s *Service) extractEmbedded(ctx context.Context, session *swarm.Session, index int, outPath string) error {
	session.WaitReady(ctx, s.readyTimeout)

	video, err := swarm.SelectVideoFile(session.Files())
	if err != nil {
		return ErrTrackNotFound
	}
	if err := s.prereadVideo(ctx, session, video); err != nil {
		return fmt.Errorf("header pre-read: %w", err)
	}

	if err := s.converter.ExtractStream(ctx, session.AbsPath(video.Path), index, outPath); err != nil {
		// Extraction failures almost always mean the stream is not a text
		// codec; surface that instead of a generic internal error.
		s.log.Warn("embedded extraction failed", "session", session.ID, "stream", index, "error", err)
		return fmt.Errorf("%w: stream %d: %v", ErrUnsupportedCodec, index, err)
	}
	return nil
}

func (s *Service) convertExternal(ctx context.Context, session *swarm.Session, index int, outPath string) error {
	session.WaitReady(ctx, s.readyTimeout)

	subs := swarm.SubtitleFiles(session.Files())
	if index >= len(subs) {
		return ErrTrackNotFound
	}
	sub := subs[index]

	// Subtitle files are small; force the whole thing onto disk.
	if err := session.PrereadHeader(ctx, sub.Path, sub.Length); err != nil {
		return fmt.Errorf("subtitle pre-read: %w", err)
	}

	if err := s.converter.ConvertFile(ctx, session.AbsPath(sub.Path), outPath); err != nil {
		return fmt.Errorf("convert %s: %w", sub.Path, err)
	}
	return nil
}

func (s *Service) prereadVideo(ctx context.Context, session *swarm.Session, video swarm.FileRef) error {
	return session.PrereadHeader(ctx, video.Path, min(headerPreread, video.Length))
}

func captionURL(sessionID, trackID string) string {
	return "/api/subtitles/" + sessionID + "/" + trackID + ".vtt"
}
