package config

import "time"

// Definition mirrors the config file layout.
type Definition struct {
	HistoryURI    string `mapstructure:"history_uri"`
	CheckpointURI string `mapstructure:"checkpoint_uri"`
	Region        string `mapstructure:"region"`
	WorkGroup     string `mapstructure:"workgroup"`
	BatchSize     int    `mapstructure:"batch_size"`
	PageSize      int    `mapstructure:"page_size"`
	Schedule      string `mapstructure:"schedule"`
	Debug         bool   `mapstructure:"debug"`
	LogFormat     string `mapstructure:"log_format"`

	Throttle ThrottleDef `mapstructure:"throttle"`
	S3       S3Def       `mapstructure:"s3"`
	AWS      AWSDef      `mapstructure:"aws"`
	Metrics  MetricsDef  `mapstructure:"metrics"`
	OTel     OTelDef     `mapstructure:"otel"`
}

type ThrottleDef struct {
	BaseInterval time.Duration `mapstructure:"base_interval"`
	MaxInterval  time.Duration `mapstructure:"max_interval"`
}

type S3Def struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type AWSDef struct {
	Profile         string `mapstructure:"profile"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`
	Endpoint        string `mapstructure:"endpoint"`
}

type MetricsDef struct {
	Pushgateway string `mapstructure:"pushgateway"`
	Job         string `mapstructure:"job"`
}

type OTelDef struct {
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}
