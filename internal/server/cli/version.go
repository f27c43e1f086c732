package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand создает команду вывода версии
func NewVersionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "tillsync server\n")
			fmt.Fprintf(w, "Version:    %s\n", opts.build.Version)
			fmt.Fprintf(w, "Build Date: %s\n", opts.build.BuildDate)
			fmt.Fprintf(w, "Git Commit: %s\n", opts.build.GitCommit)
		},
	}
}
