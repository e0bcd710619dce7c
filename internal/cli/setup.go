package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tusharkhatri12/Teamflow-AI/internal/config"
	"github.com/tusharkhatri12/Teamflow-AI/internal/download"
	"github.com/tusharkhatri12/Teamflow-AI/internal/whisper"
	"go.uber.org/zap"
)

func newSetupCmd(app *appState) *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Download the configured whisper model ahead of serving",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(app.log())

			resolved, err := whisper.ResolveModel(cfg.Model, cfg.ModelDir)
			if err != nil {
				return err
			}

			if !resolved.NeedsDownload {
				app.log().Info("model already present", zap.String("model", resolved.Name), zap.String("path", resolved.Path))
				return nil
			}

			app.log().Info("downloading model", zap.String("model", resolved.Name), zap.String("destination", resolved.Path))
			if err := download.DownloadFile(cmd.Context(), download.Options{
				URL:            resolved.URL,
				Destination:    resolved.Path,
				ExpectedSHA256: resolved.SHA256,
				NoProgress:     noProgress,
				Logger:         app.log(),
			}); err != nil {
				return fmt.Errorf("download model %q: %w", resolved.Name, err)
			}

			app.log().Info("model ready", zap.String("path", resolved.Path))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the download progress bar")
	return cmd
}
