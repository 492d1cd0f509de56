package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	defaultEndpoint = "s3.amazonaws.com"
	codeNoSuchKey   = "NoSuchKey"
)

// MinioConfig describes how to reach an S3-compatible endpoint.
type MinioConfig struct {
	// Endpoint is host[:port] without scheme. Defaults to AWS S3.
	Endpoint string
	Region   string
	// Profile selects the shared credentials file section when no keys are
	// given. Empty means AWS_PROFILE, then "default".
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// Insecure disables TLS, for local S3-compatible services only.
	Insecure bool
}

var _ Store = (*Minio)(nil)

// Minio is a Store backed by minio-go, which works with AWS S3 and
// S3-compatible services.
type Minio struct {
	client *minio.Client
}

// NewMinio creates a Minio store.
func NewMinio(cfg MinioConfig) (*Minio, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  newCredentials(cfg),
		Secure: !cfg.Insecure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client for %s: %w", endpoint, err)
	}

	return &Minio{client: client}, nil
}

// newCredentials uses explicit keys when both are set. Otherwise the standard
// AWS sources are consulted in order: environment, the shared credentials
// file at cfg.Profile, then the instance metadata service.
func newCredentials(cfg MinioConfig) *credentials.Credentials {
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		return credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)
	}
	return credentials.NewChainCredentials(credentialChain(cfg))
}

func credentialChain(cfg MinioConfig) []credentials.Provider {
	return []credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.FileAWSCredentials{Profile: cfg.Profile},
		&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport}},
	}
}

// Get implements Store.
func (m *Minio) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, m.translate(bucket, key, err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, m.translate(bucket, key, err)
	}
	return data, nil
}

// Put implements Store.
func (m *Minio) Put(ctx context.Context, bucket, key string, data []byte, opts PutOptions) error {
	_, err := m.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: opts.ContentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

func (m *Minio) translate(bucket, key string, err error) error {
	if minio.ToErrorResponse(err).Code == codeNoSuchKey {
		return fmt.Errorf("%w: s3://%s/%s", ErrNotFound, bucket, key)
	}
	return fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
}
