package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the current version, commit hash, and build date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Version:  %s\n", opts.build.Version)
			fmt.Fprintf(out, "Commit:   %s\n", opts.build.Commit)
			fmt.Fprintf(out, "Built:    %s\n", opts.build.Date)
			return nil
		},
	}
}
