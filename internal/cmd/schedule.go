package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dagucloud/athenahistory/internal/common/logger"
	"github.com/dagucloud/athenahistory/internal/common/logger/tag"
	"github.com/dagucloud/athenahistory/internal/scheduler"
)

var scheduleFlags = []commandLineFlag{
	historyURIFlag, checkpointURIFlag, regionFlag, workgroupFlag, scheduleFlag,
}

// Schedule returns the command that exports on a cron schedule.
func Schedule() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "schedule [flags]",
			Short: "Export new Athena query executions on a schedule",
			Long: `Run exports repeatedly according to a cron expression (UTC).

A run that is still in progress when the next one is due causes that
activation to be skipped. A failed run is logged and the schedule continues.
The command stops on SIGINT or SIGTERM after the current run finishes.

Example:
  athenahistory schedule --schedule "*/15 * * * *"
`,
			Args: cobra.NoArgs,
		}, scheduleFlags,
		runSchedule,
	)
}

func runSchedule(ctx *Context, _ []string) error {
	if err := ctx.Config.ValidateExport(); err != nil {
		return err
	}
	if err := ctx.Config.ValidateSchedule(); err != nil {
		return err
	}

	objects, err := ctx.ObjectStore()
	if err != nil {
		return err
	}

	s, err := scheduler.New(ctx.Config.Schedule, func(runCtx context.Context) error {
		_, err := exportOnce(&Context{
			Context: runCtx,
			Command: ctx.Command,
			Flags:   ctx.Flags,
			Config:  ctx.Config,
			Quiet:   ctx.Quiet,
		}, objects)
		return err
	})
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting scheduled exports", tag.Schedule(ctx.Config.Schedule))
	return s.Start(sigCtx)
}
