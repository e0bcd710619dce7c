package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tusharkhatri12/Teamflow-AI/internal/media"
	"github.com/tusharkhatri12/Teamflow-AI/internal/whisper"
	"go.uber.org/zap"
)

// ErrNoFile is returned before any workspace is allocated when the request
// carries no filename.
var ErrNoFile = errors.New("no file uploaded")

const decodedAudioName = "audio.wav"

// Outcome is the per-request transcription result.
type Outcome struct {
	Language string
	Duration float64
	Text     string
}

// EngineSource yields the shared inference engine. *whisper.Handle
// implements it.
type EngineSource interface {
	Get(ctx context.Context) (whisper.Engine, error)
}

// Pipeline runs one transcription request end to end: persist the upload
// into an isolated workspace, decode if the container is video, run
// inference, aggregate segments. The workspace is removed on every exit
// path.
type Pipeline struct {
	decoder media.Decoder
	engines EngineSource
	logger  *zap.Logger
}

func NewPipeline(decoder media.Decoder, engines EngineSource, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{decoder: decoder, engines: engines, logger: logger}
}

func (p *Pipeline) Run(ctx context.Context, filename string, upload io.Reader) (Outcome, error) {
	if strings.TrimSpace(filename) == "" {
		return Outcome{}, ErrNoFile
	}

	workspace, err := os.MkdirTemp("", "transcriber_")
	if err != nil {
		return Outcome{}, fmt.Errorf("create workspace: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workspace); err != nil {
			p.logger.Warn("failed to remove workspace", zap.String("workspace", workspace), zap.Error(err))
		}
	}()

	inputPath := filepath.Join(workspace, sanitizeFilename(filename))
	if err := persistUpload(inputPath, upload); err != nil {
		return Outcome{}, err
	}

	audioPath := inputPath
	if media.NeedsExtraction(filename) {
		audioPath = filepath.Join(workspace, decodedAudioName)
		p.logger.Debug("extracting audio", zap.String("input", inputPath), zap.String("output", audioPath))
		if err := p.decoder.ExtractAudio(ctx, inputPath, audioPath); err != nil {
			return Outcome{}, err
		}
	}

	engine, err := p.engines.Get(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("initialize whisper engine: %w", err)
	}

	result, err := engine.Transcribe(ctx, whisper.Request{AudioPath: audioPath})
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Language: result.Language,
		Duration: result.Duration,
		Text:     JoinSegments(result.Segments),
	}, nil
}

func persistUpload(path string, upload io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("persist upload: %w", err)
	}

	if _, err := io.Copy(f, upload); err != nil {
		_ = f.Close()
		return fmt.Errorf("persist upload: %w", err)
	}

	return f.Close()
}

// sanitizeFilename keeps the upload inside the workspace regardless of any
// directory segments a client smuggles into the filename.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	if base == "." || base == ".." || base == "/" || base == "" {
		return "upload"
	}
	return base
}
