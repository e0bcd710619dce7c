package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/tusharkhatri12/Teamflow-AI/internal/download"
	"go.uber.org/zap"
)

const cliBinaryName = "whisper-cli"

// CLIOptions configures construction of a CLIEngine.
type CLIOptions struct {
	// ExecutablePath overrides discovery of whisper-cli on PATH.
	ExecutablePath string
	Model          string
	ModelDir       string
	BeamSize       int
	BestOf         int
	VAD            bool
	AutoDownload   bool
	NoProgress     bool
	Logger         *zap.Logger
}

// CLIEngine runs inference through the whisper-cli binary. Every Transcribe
// call spawns an isolated process, so concurrent calls on the shared engine
// are safe without extra locking.
type CLIEngine struct {
	Executable string
	ModelPath  string
	BeamSize   int
	BestOf     int
	VAD        bool
	Logger     *zap.Logger
}

// NewCLIEngine resolves the whisper-cli executable and the model file,
// downloading the model when it is missing and auto-download is enabled.
// This is the expensive construction step: callers should share one engine
// per process (see Handle).
func NewCLIEngine(ctx context.Context, opts CLIOptions) (*CLIEngine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	executable, err := resolveExecutable(opts.ExecutablePath)
	if err != nil {
		return nil, err
	}

	resolved, err := ResolveModel(opts.Model, opts.ModelDir)
	if err != nil {
		return nil, err
	}

	if resolved.NeedsDownload {
		if !opts.AutoDownload {
			return nil, fmt.Errorf("model %q is missing at %s; run `transcriberd setup` or enable auto-download", resolved.Name, resolved.Path)
		}

		logger.Info("model not found, downloading",
			zap.String("model", resolved.Name), zap.String("destination", resolved.Path))
		if err := download.DownloadFile(ctx, download.Options{
			URL:            resolved.URL,
			Destination:    resolved.Path,
			ExpectedSHA256: resolved.SHA256,
			NoProgress:     opts.NoProgress,
			Logger:         logger,
		}); err != nil {
			return nil, fmt.Errorf("download model %q: %w", resolved.Name, err)
		}
	}

	return &CLIEngine{
		Executable: executable,
		ModelPath:  resolved.Path,
		BeamSize:   opts.BeamSize,
		BestOf:     opts.BestOf,
		VAD:        opts.VAD,
		Logger:     logger,
	}, nil
}

func (e *CLIEngine) Transcribe(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.AudioPath) == "" {
		return Result{}, fmt.Errorf("audio path is required")
	}

	// The JSON transcript lands next to the audio file, inside the request
	// workspace, so workspace teardown also covers engine leftovers.
	outBase := req.AudioPath + ".whisper"
	jsonPath := outBase + ".json"

	args := e.transcribeArgs(req.AudioPath, outBase)
	cmd := exec.CommandContext(ctx, e.Executable, args...)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	e.Logger.Debug("running whisper engine", zap.String("engine", e.Executable), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		errText := strings.TrimSpace(stderr.String())
		if isMissingSharedLibraryError(errText) {
			return Result{}, fmt.Errorf("whisper engine at %s is missing required shared libraries (%s)", e.Executable, errText)
		}
		return Result{}, fmt.Errorf("whisper transcribe failed: %w (%s)", err, errText)
	}

	defer os.Remove(jsonPath)
	content, err := os.ReadFile(jsonPath)
	if err != nil {
		return Result{}, fmt.Errorf("read whisper output: %w", err)
	}

	return parseCLIOutput(content)
}

func (e *CLIEngine) transcribeArgs(audioPath, outBase string) []string {
	args := []string{
		"-m", e.ModelPath,
		"-f", audioPath,
		"-l", "auto",
		"-np",
		"-oj", "-of", outBase,
	}
	if e.BeamSize > 0 {
		args = append(args, "-bs", strconv.Itoa(e.BeamSize))
	}
	if e.BestOf > 0 {
		args = append(args, "-bo", strconv.Itoa(e.BestOf))
	}
	if e.VAD {
		// whisper-cli's --vad mode needs a separate VAD model file;
		// suppressing non-speech tokens covers the skip-silence intent.
		args = append(args, "--suppress-nst")
	}
	return args
}

// cliOutput mirrors the parts of whisper-cli's -oj transcript we consume.
// Offsets are milliseconds from the start of the audio.
type cliOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func parseCLIOutput(content []byte) (Result, error) {
	var parsed cliOutput
	if err := json.Unmarshal(content, &parsed); err != nil {
		return Result{}, fmt.Errorf("parse whisper output: %w", err)
	}

	result := Result{Language: parsed.Result.Language}
	for _, seg := range parsed.Transcription {
		result.Segments = append(result.Segments, Segment{
			Start: float64(seg.Offsets.From) / 1000.0,
			End:   float64(seg.Offsets.To) / 1000.0,
			Text:  seg.Text,
		})
	}
	if n := len(result.Segments); n > 0 {
		result.Duration = result.Segments[n-1].End
	}

	return result, nil
}

func resolveExecutable(override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		if err := ensureExecutable(override); err != nil {
			return "", fmt.Errorf("whisper executable override is not usable: %w", err)
		}
		return override, nil
	}

	path, err := exec.LookPath(cliBinaryName)
	if err != nil {
		return "", fmt.Errorf("%s not found on PATH; install whisper.cpp or set TRANSCRIBER_WHISPER_PATH: %w", cliBinaryName, err)
	}
	return path, nil
}

func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}

func isMissingSharedLibraryError(stderr string) bool {
	value := strings.ToLower(strings.TrimSpace(stderr))
	if value == "" {
		return false
	}

	patterns := []string{
		"error while loading shared libraries",
		"cannot open shared object file",
		"dyld: library not loaded",
		"image not found",
	}

	for _, pattern := range patterns {
		if strings.Contains(value, pattern) {
			return true
		}
	}

	return false
}
