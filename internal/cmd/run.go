package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dagucloud/athenahistory/internal/common/logger"
	"github.com/dagucloud/athenahistory/internal/common/logger/tag"
	"github.com/dagucloud/athenahistory/internal/exporter"
	"github.com/dagucloud/athenahistory/internal/objectstore"
	"github.com/dagucloud/athenahistory/internal/telemetry"
)

var runFlags = []commandLineFlag{
	historyURIFlag, checkpointURIFlag, regionFlag, workgroupFlag, dryRunFlag,
}

// Run returns the command that performs one export.
func Run() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "run [flags]",
			Short: "Export new Athena query executions once",
			Long: `Export query executions that finished since the last checkpoint.

Executions are listed newest first until the checkpointed execution is
reached. Their metadata is written as gzip-compressed JSON lines under
<history_uri>/<region>/YYYY/MM/DD/HH/<first id>.json.gz and the checkpoint
is advanced to the newest exported execution.

With --dry-run, objects are kept in memory and a summary is printed instead.

Example:
  athenahistory run --history-uri s3://logs/athena --checkpoint-uri s3://state/athena.json
`,
			Args: cobra.NoArgs,
		}, runFlags,
		runExport,
	)
}

func runExport(ctx *Context, _ []string) error {
	if err := ctx.Config.ValidateExport(); err != nil {
		return err
	}

	dryRun, err := ctx.Command.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}

	var objects objectstore.Store
	remote, err := ctx.ObjectStore()
	if err != nil {
		return err
	}
	objects = remote

	var preview *objectstore.DryRun
	if dryRun {
		preview = objectstore.NewDryRun(remote)
		objects = preview
	}

	res, err := exportOnce(ctx, objects)
	if err != nil {
		return err
	}

	if preview != nil {
		printDryRun(ctx, res, preview)
	}
	return nil
}

// exportOnce runs a single export through objects and reports metrics.
func exportOnce(ctx *Context, objects objectstore.Store) (exporter.Result, error) {
	service, err := ctx.QueryService()
	if err != nil {
		return exporter.Result{}, err
	}

	tracer, err := ctx.Tracer()
	if err != nil {
		return exporter.Result{}, err
	}
	defer ctx.shutdownTracer(tracer)

	metrics := telemetry.NewMetrics()
	exp, err := ctx.NewExporter(service, objects, metrics, tracer)
	if err != nil {
		return exporter.Result{}, err
	}

	res, err := exp.Run(ctx)
	ctx.PushMetrics(metrics)
	if err != nil {
		return res, err
	}
	if res.FirstID == "" {
		logger.Info(ctx, "Nothing to export")
	} else {
		logger.Info(ctx, "Exported query executions", tag.ExecutionID(res.FirstID), tag.Count(res.Records))
	}
	return res, nil
}

func printDryRun(ctx *Context, res exporter.Result, preview *objectstore.DryRun) {
	out := ctx.Command.OutOrStdout()
	_, _ = fmt.Fprintf(out, "records: %d\nobjects: %d\n", res.Records, res.Objects)
	for _, key := range preview.Keys() {
		_, _ = fmt.Fprintf(out, "  %s\n", key)
	}
	if res.FirstID != "" {
		_, _ = fmt.Fprintf(out, "checkpoint: %s\n", res.FirstID)
	}
}
