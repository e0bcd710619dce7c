package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// ErrFFmpegUnavailable is returned when no ffmpeg executable can be located
// on the search path.
var ErrFFmpegUnavailable = errors.New("ffmpeg not found on PATH")

// DecodeError carries the decoder's diagnostic output verbatim.
type DecodeError struct {
	Stderr string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("ffmpeg failed: %v", e.Err)
	}
	return fmt.Sprintf("ffmpeg failed: %s", e.Stderr)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decoder converts an uploaded container into the canonical audio form the
// engine expects: mono, 16 kHz, signed 16-bit little-endian PCM.
type Decoder interface {
	ExtractAudio(ctx context.Context, inputPath, outputPath string) error
}

// FFmpegDecoder shells out to ffmpeg. Each call spawns a fresh process, so
// the decoder is safe for concurrent use.
type FFmpegDecoder struct {
	Logger *zap.Logger
}

func NewFFmpegDecoder(logger *zap.Logger) *FFmpegDecoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpegDecoder{Logger: logger}
}

func (d *FFmpegDecoder) ExtractAudio(ctx context.Context, inputPath, outputPath string) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return ErrFFmpegUnavailable
	}

	args := extractArgs(inputPath, outputPath)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	d.Logger.Debug("running ffmpeg", zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &DecodeError{Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}

	return nil
}

// extractArgs builds the canonical decode invocation. -y overwrites any
// stale output file, keeping re-runs idempotent.
func extractArgs(inputPath, outputPath string) []string {
	return []string{
		"-nostdin", "-hide_banner", "-loglevel", "error",
		"-y", "-i", inputPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		outputPath,
	}
}
