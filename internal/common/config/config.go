// Package config loads exporter settings from a YAML file, a .env file and
// ATHENAHISTORY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dagucloud/athenahistory/internal/objectstore"
	"github.com/dagucloud/athenahistory/internal/scheduler"
)

// ErrConfig marks invalid configuration.
var ErrConfig = errors.New("invalid configuration")

// Config holds the exporter configuration.
type Config struct {
	// HistoryURI is the destination of log objects (s3://bucket/prefix).
	HistoryURI string
	// CheckpointURI is the checkpoint object. Empty disables checkpointing.
	CheckpointURI string

	// Region is the Athena region recorded on every exported line.
	Region    string
	WorkGroup string

	// BatchSize is the number of records written per log object.
	BatchSize int
	// PageSize is the number of IDs requested per listing page (1-50).
	PageSize int

	Throttle Throttle
	S3       S3
	AWS      AWS

	// Schedule is the cron expression used by the schedule command.
	Schedule string

	Metrics Metrics
	OTel    OTel

	Debug     bool
	LogFormat string

	// ConfigFileUsed is the config file that was read, if any.
	ConfigFileUsed string
}

// Throttle configures backoff after rate-limited requests.
type Throttle struct {
	BaseInterval time.Duration
	MaxInterval  time.Duration
}

// S3 configures the object storage endpoint.
type S3 struct {
	Endpoint string
	Insecure bool
}

// AWS holds credentials shared by the Athena and S3 clients. Empty fields
// fall back to the default credential chain.
type AWS struct {
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// Endpoint overrides the Athena endpoint, mostly for local emulators.
	Endpoint string
}

// Metrics configures the Pushgateway used after each run.
type Metrics struct {
	Pushgateway string
	Job         string
}

// OTel configures trace export.
type OTel struct {
	Endpoint string
	Insecure bool
	Headers  map[string]string
}

// Validate checks the settings shared by every command. Settings only some
// commands need are checked by ValidateExport and ValidateSchedule.
func (c *Config) Validate() error {
	if c.HistoryURI != "" {
		if _, err := objectstore.ParseURI(c.HistoryURI); err != nil {
			return fmt.Errorf("%w: history_uri: %w", ErrConfig, err)
		}
	}
	if c.CheckpointURI != "" {
		loc, err := objectstore.ParseURI(c.CheckpointURI)
		if err != nil {
			return fmt.Errorf("%w: checkpoint_uri: %w", ErrConfig, err)
		}
		if loc.Key == "" {
			return fmt.Errorf("%w: checkpoint_uri %q has no object key", ErrConfig, c.CheckpointURI)
		}
	}
	if c.Region == "" {
		return fmt.Errorf("%w: region is required", ErrConfig)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrConfig, c.BatchSize)
	}
	if c.PageSize < 1 || c.PageSize > 50 {
		return fmt.Errorf("%w: page_size must be between 1 and 50, got %d", ErrConfig, c.PageSize)
	}
	if c.Throttle.BaseInterval <= 0 {
		return fmt.Errorf("%w: throttle.base_interval must be positive", ErrConfig)
	}
	if c.Throttle.MaxInterval < c.Throttle.BaseInterval {
		return fmt.Errorf("%w: throttle.max_interval must not be below throttle.base_interval", ErrConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrConfig, c.LogFormat)
	}
	return nil
}

// ValidateExport checks the settings an export run needs.
func (c *Config) ValidateExport() error {
	if c.HistoryURI == "" {
		return fmt.Errorf("%w: history_uri is required", ErrConfig)
	}
	return nil
}

// ValidateSchedule checks Schedule. Only the schedule command needs it.
func (c *Config) ValidateSchedule() error {
	if _, err := scheduler.Parse(c.Schedule); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return nil
}
