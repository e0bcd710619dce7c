package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tusharkhatri12/Teamflow-AI/internal/config"
	"github.com/tusharkhatri12/Teamflow-AI/internal/logging"
	"github.com/tusharkhatri12/Teamflow-AI/internal/media"
	"github.com/tusharkhatri12/Teamflow-AI/internal/server"
	"github.com/tusharkhatri12/Teamflow-AI/internal/transcribe"
	"github.com/tusharkhatri12/Teamflow-AI/internal/version"
	"github.com/tusharkhatri12/Teamflow-AI/internal/whisper"
	"go.uber.org/zap"
)

const shutdownGrace = 10 * time.Second

type appState struct {
	verbose  bool
	jsonLogs bool
	addr     string

	logger *zap.Logger
}

func NewRootCmd() *cobra.Command {
	app := &appState{}

	cmd := &cobra.Command{
		Use:           "transcriberd",
		Short:         "HTTP transcription service backed by a whisper engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logger, err := logging.New(logging.Options{Verbose: app.verbose, JSON: app.jsonLogs})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			app.logger = logger
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runServe(cmd.Context())
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&app.verbose, "verbose", false, "Enable verbose logs")
	cmd.PersistentFlags().BoolVar(&app.jsonLogs, "json", false, "Force JSON logging")
	cmd.Flags().StringVar(&app.addr, "addr", "", "Listen address (overrides TRANSCRIBER_ADDR)")

	cmd.AddCommand(newSetupCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func (a *appState) runServe(ctx context.Context) error {
	cfg := config.Load(a.log())
	if a.addr != "" {
		cfg.Addr = a.addr
	}

	handle := whisper.NewHandle(func(ctx context.Context) (whisper.Engine, error) {
		return whisper.NewCLIEngine(ctx, whisper.CLIOptions{
			ExecutablePath: cfg.WhisperPath,
			Model:          cfg.Model,
			ModelDir:       cfg.ModelDir,
			BeamSize:       cfg.BeamSize,
			BestOf:         cfg.BestOf,
			VAD:            cfg.VAD,
			AutoDownload:   cfg.AutoDownload,
			Logger:         a.log(),
		})
	})

	pipeline := transcribe.NewPipeline(media.NewFFmpegDecoder(a.log()), handle, a.log())
	srv := server.New(cfg, pipeline, a.log())

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.log().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}
