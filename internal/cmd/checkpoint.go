package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var checkpointFlags = []commandLineFlag{checkpointURIFlag, regionFlag}

// Checkpoint returns the command that prints the stored checkpoint.
func Checkpoint() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "checkpoint [flags]",
			Short: "Print the stored checkpoint",
			Long: `Print the checkpoint document as JSON.

A missing checkpoint prints an empty document, which makes the next run
export the full history.
`,
			Args: cobra.NoArgs,
		}, checkpointFlags,
		runCheckpoint,
	)
}

func runCheckpoint(ctx *Context, _ []string) error {
	if ctx.Config.CheckpointURI == "" {
		return errors.New("checkpoint_uri is not configured")
	}

	objects, err := ctx.ObjectStore()
	if err != nil {
		return err
	}
	store, err := ctx.CheckpointStore(objects)
	if err != nil {
		return err
	}

	cp, err := store.Load(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	_, _ = fmt.Fprintln(ctx.Command.OutOrStdout(), string(data))
	return nil
}
