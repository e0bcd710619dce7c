package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	DefaultModel    = "small"
	DefaultCompute  = "int8"
	DefaultBeamSize = 5
	DefaultBestOf   = 5
	DefaultAddr     = ":8000"

	defaultOrigins = "http://localhost:3000,http://localhost:3001,https://teamflow-ai.onrender.com"
)

// Config carries the process-wide settings. It is read once at startup and
// never mutated afterwards.
type Config struct {
	Addr string

	Model    string
	Compute  string
	BeamSize int
	BestOf   int
	VAD      bool

	ModelDir     string
	WhisperPath  string
	AutoDownload bool

	CORSOrigins []string
}

// Load reads configuration from the environment, loading a local .env file
// first when one exists.
func Load(logger *zap.Logger) Config {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded .env file")
	}

	cfg := Config{
		Addr:         envString("TRANSCRIBER_ADDR", DefaultAddr),
		Model:        envString("FASTER_WHISPER_MODEL", DefaultModel),
		Compute:      envString("FASTER_WHISPER_COMPUTE", DefaultCompute),
		BeamSize:     envInt(logger, "FASTER_WHISPER_BEAM_SIZE", DefaultBeamSize),
		BestOf:       envInt(logger, "FASTER_WHISPER_BEST_OF", DefaultBestOf),
		VAD:          envBool(logger, "TRANSCRIBER_VAD", true),
		WhisperPath:  strings.TrimSpace(os.Getenv("TRANSCRIBER_WHISPER_PATH")),
		AutoDownload: envBool(logger, "TRANSCRIBER_AUTO_DOWNLOAD", true),
		CORSOrigins:  SplitOrigins(envString("CORS_ORIGINS", defaultOrigins)),
	}

	modelDir := strings.TrimSpace(os.Getenv("TRANSCRIBER_MODEL_DIR"))
	if modelDir == "" {
		resolved, err := defaultModelDir()
		if err != nil {
			logger.Warn("failed to resolve default model directory, using ./models", zap.Error(err))
			resolved = "models"
		}
		modelDir = resolved
	}
	cfg.ModelDir = filepath.Clean(modelDir)

	return cfg
}

// SplitOrigins splits a comma-separated origin list, dropping empty entries.
func SplitOrigins(value string) []string {
	var origins []string
	for _, origin := range strings.Split(value, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}

func envString(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(logger *zap.Logger, key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		logger.Warn("invalid integer in environment, using default",
			zap.String("key", key), zap.String("value", raw), zap.Int("default", fallback))
		return fallback
	}
	return value
}

func envBool(logger *zap.Logger, key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		logger.Warn("invalid boolean in environment, using default",
			zap.String("key", key), zap.String("value", raw), zap.Bool("default", fallback))
		return fallback
	}
	return value
}

func defaultModelDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return filepath.Join(xdg, "transcriberd", "models"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "share", "transcriberd", "models"), nil
}
