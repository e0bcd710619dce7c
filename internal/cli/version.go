package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tusharkhatri12/Teamflow-AI/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the transcriberd version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "transcriberd v%s\n", version.Resolve())
		},
	}
}
