package server

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tusharkhatri12/Teamflow-AI/internal/config"
	"github.com/tusharkhatri12/Teamflow-AI/internal/transcribe"
	"go.uber.org/zap"
)

// Transcriber runs one upload through the transcription pipeline.
// *transcribe.Pipeline implements it.
type Transcriber interface {
	Run(ctx context.Context, filename string, upload io.Reader) (transcribe.Outcome, error)
}

type Server struct {
	app      *fiber.App
	cfg      config.Config
	pipeline Transcriber
	logger   *zap.Logger
}

func New(cfg config.Config, pipeline Transcriber, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "transcriberd",
		DisableStartupMessage: true,
		// Media uploads dwarf fiber's 4 MiB default.
		BodyLimit: 1 << 30,
	})

	s := &Server{app: app, cfg: cfg, pipeline: pipeline, logger: logger}

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORSOrigins, ","),
		AllowCredentials: true,
	}))

	app.Get("/health", s.handleHealth)
	app.Post("/transcribe", s.handleTranscribe)

	return s
}

// App exposes the fiber app for in-process request tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", zap.String("addr", addr), zap.String("model", s.cfg.Model), zap.String("compute", s.cfg.Compute))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"ok":      true,
		"model":   s.cfg.Model,
		"compute": s.cfg.Compute,
	})
}

func (s *Server) handleTranscribe(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader.Filename == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "No file uploaded"})
	}

	upload, err := fileHeader.Open()
	if err != nil {
		s.logger.Error("failed to open upload", zap.String("filename", fileHeader.Filename), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": err.Error()})
	}
	defer upload.Close()

	started := time.Now()
	outcome, err := s.pipeline.Run(c.UserContext(), fileHeader.Filename, upload)
	if err != nil {
		if errors.Is(err, transcribe.ErrNoFile) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "No file uploaded"})
		}
		s.logger.Error("transcription failed",
			zap.String("filename", fileHeader.Filename),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": err.Error()})
	}

	s.logger.Info("transcription finished",
		zap.String("filename", fileHeader.Filename),
		zap.String("language", outcome.Language),
		zap.Float64("duration", outcome.Duration),
		zap.Duration("elapsed", time.Since(started)))

	return c.JSON(fiber.Map{
		"success":  true,
		"language": outcome.Language,
		"duration": outcome.Duration,
		"text":     outcome.Text,
	})
}
