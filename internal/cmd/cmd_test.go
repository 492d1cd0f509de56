package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagucloud/athenahistory/internal/build"
	"github.com/dagucloud/athenahistory/internal/common/config"
	"github.com/dagucloud/athenahistory/internal/execution/executiontest"
	"github.com/dagucloud/athenahistory/internal/exporter"
	"github.com/dagucloud/athenahistory/internal/objectstore"
	"github.com/dagucloud/athenahistory/internal/telemetry"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))
	return path
}

func newTestContext(t *testing.T, flags []commandLineFlag, args ...string) *Context {
	t.Helper()

	all := append(append([]commandLineFlag{}, baseFlags...), flags...)
	cmd := &cobra.Command{Use: "test"}
	initFlags(cmd, all...)
	require.NoError(t, cmd.Flags().Parse(args))

	ctx, err := NewContext(cmd, all)
	require.NoError(t, err)
	return ctx
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	cmd := Version()
	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	require.NoError(t, cmd.Execute())
	assert.Equal(t, build.Version+"\n", out.String())
}

func TestNewContext_FlagOverrides(t *testing.T) {
	t.Setenv("ATHENAHISTORY_WORKGROUP", "")

	cfgFile := writeConfig(t, `
history_uri: s3://logs/athena
checkpoint_uri: s3://state/athena.json
region: us-east-1
workgroup: primary
batch_size: 250
`)

	ctx := newTestContext(t, runFlags,
		"--config", cfgFile,
		"--region", "eu-central-1",
		"--quiet",
	)

	assert.Equal(t, "eu-central-1", ctx.Config.Region)
	assert.Equal(t, "primary", ctx.Config.WorkGroup, "unchanged flags must not override the file")
	assert.Equal(t, 250, ctx.Config.BatchSize)
	assert.True(t, ctx.Quiet)
	assert.Equal(t, cfgFile, ctx.Config.ConfigFileUsed)
}

func TestBindFlags_OnlyChanged(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	initFlags(cmd, regionFlag, workgroupFlag, dryRunFlag)
	require.NoError(t, cmd.Flags().Parse([]string{"--workgroup", "etl", "--dry-run"}))

	dryRun, err := cmd.Flags().GetBool("dry-run")
	require.NoError(t, err)
	assert.True(t, dryRun)

	ctx := newTestContext(t, []commandLineFlag{workgroupFlag},
		"--config", writeConfig(t, "history_uri: s3://b/p\nregion: us-east-1\nworkgroup: primary"),
		"--workgroup", "etl",
	)
	assert.Equal(t, "etl", ctx.Config.WorkGroup)
}

func TestNewContext_InvalidConfig(t *testing.T) {
	t.Setenv("ATHENAHISTORY_BATCH_SIZE", "")

	all := append(append([]commandLineFlag{}, baseFlags...), runFlags...)
	cmd := &cobra.Command{Use: "test"}
	initFlags(cmd, all...)
	require.NoError(t, cmd.Flags().Parse([]string{
		"--config", writeConfig(t, "history_uri: s3://b/p\nregion: us-east-1\nbatch_size: 0"),
	}))

	_, err := NewContext(cmd, all)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfig)
}

func TestNewContext_CheckpointWithoutHistoryURI(t *testing.T) {
	t.Setenv("ATHENAHISTORY_HISTORY_URI", "")
	t.Setenv("ATHENAHISTORY_CHECKPOINT_URI", "")

	ctx := newTestContext(t, checkpointFlags,
		"--quiet",
		"--config", writeConfig(t, "workgroup: primary"),
		"--checkpoint-uri", "s3://state/athena.json",
		"--region", "us-east-1",
	)

	assert.Empty(t, ctx.Config.HistoryURI)
	assert.Equal(t, "s3://state/athena.json", ctx.Config.CheckpointURI)
	assert.Equal(t, "us-east-1", ctx.Config.Region)

	store, err := ctx.CheckpointStore(objectstore.NewMemory())
	require.NoError(t, err)
	cp, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, cp.LastQueryExecutionID())
}

func TestExportCommands_RequireHistoryURI(t *testing.T) {
	t.Setenv("ATHENAHISTORY_HISTORY_URI", "")

	ctx := newTestContext(t, runFlags,
		"--quiet",
		"--config", writeConfig(t, "region: us-east-1"),
	)

	assert.ErrorIs(t, runExport(ctx, nil), config.ErrConfig)
	assert.ErrorIs(t, runSchedule(ctx, nil), config.ErrConfig)
}

func TestNewExporter(t *testing.T) {
	ctx := newTestContext(t, nil,
		"--quiet",
		"--config", writeConfig(t, `
history_uri: s3://logs/athena
checkpoint_uri: s3://state/athena.json
region: us-east-1
batch_size: 20
throttle:
  base_interval: 1ms
`),
	)

	svc := executiontest.NewService(executiontest.IDs(45), 10).ThrottleList(1)
	objects := objectstore.NewMemory()
	metrics := telemetry.NewMetrics()
	tracer, err := telemetry.NewTracer(context.Background(), telemetry.TracingConfig{})
	require.NoError(t, err)

	exp, err := ctx.NewExporter(svc, objects, metrics, tracer)
	require.NoError(t, err)

	res, err := exp.Run(ctx)
	require.NoError(t, err)

	// 45 IDs never fill a lookup group, so the drain writes them as one object.
	assert.Equal(t, "q00", res.FirstID)
	assert.Equal(t, 45, res.Records)
	assert.Equal(t, []string{
		"logs/athena/us-stubbed-1/2018/12/11/10/q00.json.gz",
		"state/athena.json",
	}, objects.Keys())
}

func TestPrintDryRun(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{Use: "run"}
	cmd.SetOut(&out)

	preview := objectstore.NewDryRun(objectstore.NewMemory())
	require.NoError(t, preview.Put(context.Background(), "logs", "athena/q00.json.gz", []byte("x"), objectstore.PutOptions{}))

	printDryRun(&Context{Context: context.Background(), Command: cmd}, exporter.Result{
		FirstID: "q00",
		Records: 3,
		Objects: 1,
	}, preview)

	assert.Equal(t, "records: 3\nobjects: 1\n  logs/athena/q00.json.gz\ncheckpoint: q00\n", out.String())
}
