package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dagucloud/athenahistory/internal/build"
	"github.com/dagucloud/athenahistory/internal/cmd"
)

var rootCmd = &cobra.Command{
	Use:   build.AppName,
	Short: "athenahistory exports Athena query history to S3",
	Long: `athenahistory exports Amazon Athena query execution history.

Each run lists query executions newer than the stored checkpoint, fetches
their metadata, and writes it to S3 as gzip-compressed JSON lines
partitioned by region and submission hour.
`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(cmd.Run())
	rootCmd.AddCommand(cmd.Schedule())
	rootCmd.AddCommand(cmd.Checkpoint())
	rootCmd.AddCommand(cmd.Version())

	build.Version = version
}

var version = "0.0.0"
