package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dagucloud/athenahistory/internal/checkpoint"
	"github.com/dagucloud/athenahistory/internal/common/backoff"
	"github.com/dagucloud/athenahistory/internal/common/config"
	"github.com/dagucloud/athenahistory/internal/common/logger"
	"github.com/dagucloud/athenahistory/internal/common/logger/tag"
	"github.com/dagucloud/athenahistory/internal/execution"
	"github.com/dagucloud/athenahistory/internal/exporter"
	"github.com/dagucloud/athenahistory/internal/historylog"
	"github.com/dagucloud/athenahistory/internal/objectstore"
	"github.com/dagucloud/athenahistory/internal/service/athena"
	"github.com/dagucloud/athenahistory/internal/telemetry"
)

// Context holds the configuration for a command.
type Context struct {
	context.Context

	Command *cobra.Command
	Flags   []commandLineFlag
	Config  *config.Config
	Quiet   bool
}

// NewContext loads the configuration, applies command-line overrides and
// sets up the logger.
func NewContext(cmd *cobra.Command, flags []commandLineFlag) (*Context, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	v := viper.New()
	if err := bindFlags(v, cmd, flags...); err != nil {
		return nil, err
	}

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}

	var loaderOpts []config.ConfigLoaderOption
	if cfgPath, _ := cmd.Flags().GetString("config"); cfgPath != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(cfgPath))
	}
	if envFile, _ := cmd.Flags().GetString("env-file"); envFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(envFile))
	}

	cfg, err := config.NewConfigLoader(v, loaderOpts...).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var opts []logger.Option
	if cfg.Debug || os.Getenv("DEBUG") != "" {
		opts = append(opts, logger.WithDebug())
	}
	if quiet {
		opts = append(opts, logger.WithQuiet())
	}
	if cfg.LogFormat != "" {
		opts = append(opts, logger.WithFormat(cfg.LogFormat))
	}
	ctx = logger.WithLogger(ctx, logger.NewLogger(opts...))
	ctx = config.WithConfig(ctx, cfg)

	if cfg.ConfigFileUsed != "" {
		logger.Debug(ctx, "Configuration loaded", "file", cfg.ConfigFileUsed)
	}

	return &Context{
		Context: ctx,
		Command: cmd,
		Flags:   flags,
		Config:  cfg,
		Quiet:   quiet,
	}, nil
}

// NewCommand creates a new command instance with the given cobra command and run function.
func NewCommand(cmd *cobra.Command, flags []commandLineFlag, runFunc func(cmd *Context, args []string) error) *cobra.Command {
	flags = append(append([]commandLineFlag{}, baseFlags...), flags...)
	initFlags(cmd, flags...)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx, err := NewContext(cmd, flags)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Initialization error: %v\n", err)
			os.Exit(1)
		}
		if err := runFunc(ctx, args); err != nil {
			logger.Error(ctx.Context, "Command failed", tag.Error(err))
			os.Exit(1)
		}
		return nil
	}

	return cmd
}

// ObjectStore connects to the S3-compatible object storage.
func (c *Context) ObjectStore() (*objectstore.Minio, error) {
	return objectstore.NewMinio(objectstore.MinioConfig{
		Endpoint:        c.Config.S3.Endpoint,
		Region:          c.Config.Region,
		Profile:         c.Config.AWS.Profile,
		AccessKeyID:     c.Config.AWS.AccessKeyID,
		SecretAccessKey: c.Config.AWS.SecretAccessKey,
		SessionToken:    c.Config.AWS.SessionToken,
		Insecure:        c.Config.S3.Insecure,
	})
}

// CheckpointStore returns the checkpoint store on objects.
func (c *Context) CheckpointStore(objects objectstore.Store) (*checkpoint.Store, error) {
	return checkpoint.NewStore(objects, c.Config.CheckpointURI)
}

// QueryService connects to Athena.
func (c *Context) QueryService() (*athena.Client, error) {
	return athena.NewClient(c, athena.Config{
		Region:          c.Config.Region,
		WorkGroup:       c.Config.WorkGroup,
		PageSize:        int32(c.Config.PageSize),
		Profile:         c.Config.AWS.Profile,
		AccessKeyID:     c.Config.AWS.AccessKeyID,
		SecretAccessKey: c.Config.AWS.SecretAccessKey,
		SessionToken:    c.Config.AWS.SessionToken,
		Endpoint:        c.Config.AWS.Endpoint,
	})
}

// Tracer sets up span export as configured.
func (c *Context) Tracer() (*telemetry.Tracer, error) {
	return telemetry.NewTracer(c, telemetry.TracingConfig{
		Endpoint:    c.Config.OTel.Endpoint,
		Insecure:    c.Config.OTel.Insecure,
		Headers:     c.Config.OTel.Headers,
		ServiceName: c.Config.Metrics.Job,
	})
}

// NewExporter wires an Exporter writing through objects.
func (c *Context) NewExporter(
	service execution.Service,
	objects objectstore.Store,
	metrics *telemetry.Metrics,
	tracer *telemetry.Tracer,
) (*exporter.Exporter, error) {
	checkpoints, err := c.CheckpointStore(objects)
	if err != nil {
		return nil, fmt.Errorf("invalid checkpoint location: %w", err)
	}
	writer, err := historylog.NewWriter(objects, c.Config.HistoryURI, service.Region())
	if err != nil {
		return nil, fmt.Errorf("invalid history location: %w", err)
	}

	policy := backoff.NewExponentialBackoffPolicy(c.Config.Throttle.BaseInterval)
	policy.MaxInterval = c.Config.Throttle.MaxInterval

	return exporter.New(service, checkpoints, writer,
		exporter.WithBatchSize(c.Config.BatchSize),
		exporter.WithMetrics(metrics),
		exporter.WithTracer(tracer.Trace()),
		exporter.WithExecutionOptions(execution.WithRetryPolicy(policy)),
	), nil
}

// PushMetrics sends metrics to the configured Pushgateway. Failures are
// logged and otherwise ignored.
func (c *Context) PushMetrics(metrics *telemetry.Metrics) {
	if c.Config.Metrics.Pushgateway == "" {
		return
	}
	ctx, cancel := context.WithTimeout(c, 10*time.Second)
	defer cancel()
	if err := metrics.Push(ctx, c.Config.Metrics.Pushgateway, c.Config.Metrics.Job); err != nil {
		logger.Warn(c, "Failed to push metrics", tag.Error(err))
	}
}

// shutdownTracer flushes spans without blocking exit for long.
func (c *Context) shutdownTracer(tracer *telemetry.Tracer) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Context), 5*time.Second)
	defer cancel()
	if err := tracer.Shutdown(ctx); err != nil {
		logger.Warn(c, "Failed to flush traces", tag.Error(err))
	}
}
