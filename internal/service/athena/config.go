package athena

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
)

// ErrNoRegion is returned when no region is configured and none can be
// resolved from the AWS environment.
var ErrNoRegion = errors.New("aws region is not configured")

// Config describes how to connect to Athena.
type Config struct {
	Region    string
	WorkGroup string
	PageSize  int32

	Profile         string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// Endpoint overrides the service endpoint URL.
	Endpoint string
}

// NewClient loads AWS configuration from the standard credential chain plus
// any explicit settings in cfg, and returns a Client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	var opts []func(*config.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			cfg.SessionToken,
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if awsCfg.Region == "" {
		return nil, ErrNoRegion
	}

	api := awsathena.NewFromConfig(awsCfg, func(o *awsathena.Options) {
		// Throttling is retried by the exporter with its own backoff.
		o.Retryer = aws.NopRetryer{}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return New(api, awsCfg.Region, cfg.WorkGroup, cfg.PageSize), nil
}
