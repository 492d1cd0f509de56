package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppSlug names the config directory and prefixes environment variables.
const AppSlug = "athenahistory"

// Defaults.
const (
	DefaultBatchSize    = 10000
	DefaultPageSize     = 50
	DefaultBaseInterval = time.Second
	DefaultSchedule     = "@hourly"
	DefaultMetricsJob   = "athenahistory"
)

// Load creates a ConfigLoader over a fresh viper instance and loads the
// configuration.
func Load(opts ...ConfigLoaderOption) (*Config, error) {
	cfg, err := NewConfigLoader(viper.New(), opts...).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// ConfigLoader reads and merges configuration from the config file, an
// optional .env file, and the environment.
type ConfigLoader struct {
	lock       sync.Mutex
	v          *viper.Viper
	configFile string
	envFile    string
}

// ConfigLoaderOption defines a functional option for configuring a ConfigLoader.
type ConfigLoaderOption func(*ConfigLoader)

// WithConfigFile sets an explicit config file. A missing explicit file is an
// error; a missing default file is not.
func WithConfigFile(configFile string) ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.configFile = configFile
	}
}

// WithEnvFile loads variables from a dotenv file before reading the
// environment. Variables already set in the process win.
func WithEnvFile(envFile string) ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.envFile = envFile
	}
}

// NewConfigLoader creates a ConfigLoader bound to v. Command-line flags may
// be bound to v before Load is called.
func NewConfigLoader(v *viper.Viper, options ...ConfigLoaderOption) *ConfigLoader {
	loader := &ConfigLoader{v: v}
	for _, option := range options {
		option(loader)
	}
	return loader
}

// Load reads every source and returns a validated Config.
func (l *ConfigLoader) Load() (*Config, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.envFile != "" {
		if err := godotenv.Load(l.envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", l.envFile, err)
		}
	}

	l.configureViper()
	l.bindEnvironmentVariables()
	l.setDefaultValues()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var def Definition
	if err := l.v.Unmarshal(&def, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg := l.buildConfig(def)
	cfg.ConfigFileUsed = l.v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *ConfigLoader) buildConfig(def Definition) *Config {
	cfg := &Config{
		HistoryURI:    strings.TrimSpace(def.HistoryURI),
		CheckpointURI: strings.TrimSpace(def.CheckpointURI),
		Region:        def.Region,
		WorkGroup:     def.WorkGroup,
		BatchSize:     def.BatchSize,
		PageSize:      def.PageSize,
		Throttle: Throttle{
			BaseInterval: def.Throttle.BaseInterval,
			MaxInterval:  def.Throttle.MaxInterval,
		},
		S3: S3{
			Endpoint: def.S3.Endpoint,
			Insecure: def.S3.Insecure,
		},
		AWS: AWS{
			Profile:         def.AWS.Profile,
			AccessKeyID:     def.AWS.AccessKeyID,
			SecretAccessKey: def.AWS.SecretAccessKey,
			SessionToken:    def.AWS.SessionToken,
			Endpoint:        def.AWS.Endpoint,
		},
		Schedule: def.Schedule,
		Metrics: Metrics{
			Pushgateway: def.Metrics.Pushgateway,
			Job:         def.Metrics.Job,
		},
		OTel: OTel{
			Endpoint: def.OTel.Endpoint,
			Insecure: def.OTel.Insecure,
			Headers:  def.OTel.Headers,
		},
		Debug:     def.Debug,
		LogFormat: strings.ToLower(def.LogFormat),
	}

	// Without an explicit cap, waits stop doubling at sixteen base intervals.
	if cfg.Throttle.MaxInterval == 0 {
		cfg.Throttle.MaxInterval = 16 * cfg.Throttle.BaseInterval
	}
	return cfg
}

func (l *ConfigLoader) configureViper() {
	if l.configFile == "" {
		l.v.AddConfigPath(filepath.Join(xdg.ConfigHome, AppSlug))
		l.v.SetConfigName("config")
	} else {
		l.v.SetConfigFile(l.configFile)
	}
	l.v.SetConfigType("yaml")
	l.v.SetEnvPrefix(strings.ToUpper(AppSlug))
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	l.v.AutomaticEnv()
}

func (l *ConfigLoader) setDefaultValues() {
	l.v.SetDefault("batch_size", DefaultBatchSize)
	l.v.SetDefault("page_size", DefaultPageSize)
	l.v.SetDefault("throttle.base_interval", DefaultBaseInterval)
	l.v.SetDefault("schedule", DefaultSchedule)
	l.v.SetDefault("metrics.job", DefaultMetricsJob)
	l.v.SetDefault("log_format", "text")
	l.v.SetDefault("debug", false)
}

// envBindings maps config keys to extra environment variables consulted
// after ATHENAHISTORY_<KEY>.
var envBindings = []struct {
	key  string
	envs []string
}{
	{key: "history_uri"},
	{key: "checkpoint_uri"},
	{key: "region", envs: []string{"AWS_REGION", "AWS_DEFAULT_REGION"}},
	{key: "workgroup"},
	{key: "batch_size"},
	{key: "page_size"},
	{key: "throttle.base_interval"},
	{key: "throttle.max_interval"},
	{key: "s3.endpoint"},
	{key: "s3.insecure"},
	{key: "aws.profile", envs: []string{"AWS_PROFILE"}},
	{key: "aws.access_key_id"},
	{key: "aws.secret_access_key"},
	{key: "aws.session_token"},
	{key: "aws.endpoint"},
	{key: "schedule"},
	{key: "metrics.pushgateway"},
	{key: "metrics.job"},
	{key: "otel.endpoint"},
	{key: "otel.insecure"},
	{key: "log_format"},
	{key: "debug"},
}

func (l *ConfigLoader) bindEnvironmentVariables() {
	for _, b := range envBindings {
		l.bindEnv(b.key, b.envs...)
	}
}

// bindEnv binds key to ATHENAHISTORY_<KEY> followed by any fallbacks.
func (l *ConfigLoader) bindEnv(key string, fallbacks ...string) {
	env := strings.ToUpper(AppSlug) + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	_ = l.v.BindEnv(append([]string{key, env}, fallbacks...)...)
}
