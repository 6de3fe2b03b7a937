package subtitle

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const convertTimeout = 60 * time.Second

// Converter turns subtitle sources into WebVTT caption files.
type Converter interface {
	// ExtractStream pulls embedded subtitle stream n out of a video file.
	ExtractStream(ctx context.Context, videoPath string, n int, outPath string) error
	// ConvertFile transcodes a standalone subtitle file.
	ConvertFile(ctx context.Context, subPath, outPath string) error
}

// FFmpeg shells out to ffmpeg for caption conversion.
type FFmpeg struct {
	binary string
}

// NewFFmpeg creates a converter. An empty binary falls back to PATH lookup.
func NewFFmpeg(binary string) *FFmpeg {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{binary: binary}
}

func (f *FFmpeg) ExtractStream(ctx context.Context, videoPath string, n int, outPath string) error {
	return f.run(ctx,
		"-y",
		"-i", videoPath,
		"-map", fmt.Sprintf("0:s:%d", n),
		"-f", "webvtt",
		outPath,
	)
}

func (f *FFmpeg) ConvertFile(ctx context.Context, subPath, outPath string) error {
	return f.run(ctx,
		"-y",
		"-i", subPath,
		"-f", "webvtt",
		outPath,
	)
}

func (f *FFmpeg) run(ctx context.Context, args ...string) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, convertTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, f.binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			// ffmpeg dumps its whole banner to stderr; keep the tail, the
			// actual failure reason is at the end.
			if idx := strings.LastIndexByte(msg, '\n'); idx >= 0 {
				msg = strings.TrimSpace(msg[idx+1:])
			}
			return fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}
