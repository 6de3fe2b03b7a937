package subtitle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const probeTimeout = 30 * time.Second

// Stream is one subtitle stream found by the media prober.
type Stream struct {
	Codec string
	Lang  string
	Title string
}

// Prober lists subtitle streams in a media file.
type Prober interface {
	SubtitleStreams(ctx context.Context, path string) ([]Stream, error)
}

// FFprobe shells out to ffprobe for stream introspection.
type FFprobe struct {
	binary string
}

// NewFFprobe creates a prober. An empty binary falls back to PATH lookup.
func NewFFprobe(binary string) *FFprobe {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	return &FFprobe{binary: binary}
}

// probePayload is the subset of ffprobe JSON output we parse.
type probePayload struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	CodecType string            `json:"codec_type"`
	CodecName string            `json:"codec_name"`
	Tags      map[string]string `json:"tags"`
}

// SubtitleStreams probes a file and returns its subtitle streams in probe
// order, which matches the index ffmpeg's subtitle stream selector uses.
func (p *FFprobe) SubtitleStreams(ctx context.Context, path string) ([]Stream, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, probeTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	var payload probePayload
	parseErr := json.Unmarshal(stdout.Bytes(), &payload)

	// ffprobe can exit non-zero on a partially downloaded file yet still
	// emit usable stream metadata. Keep whatever parsed.
	if parseErr != nil {
		if runErr != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg != "" {
				return nil, fmt.Errorf("ffprobe: %w: %s", runErr, msg)
			}
			return nil, fmt.Errorf("ffprobe: %w", runErr)
		}
		return nil, fmt.Errorf("ffprobe output: %w", parseErr)
	}

	var streams []Stream
	for _, s := range payload.Streams {
		if s.CodecType != "subtitle" {
			continue
		}
		streams = append(streams, Stream{
			Codec: s.CodecName,
			Lang:  s.Tags["language"],
			Title: s.Tags["title"],
		})
	}
	return streams, nil
}
