package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dagucloud/athenahistory/internal/build"
)

// Version returns the command that prints the binary version.
func Version() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the binary version",
		Long:  `Print the current version of the athenahistory executable.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), build.Version)
		},
	}
}
