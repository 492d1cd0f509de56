package objectstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMinio(t *testing.T) {
	t.Parallel()

	t.Run("StaticCredentials", func(t *testing.T) {
		t.Parallel()

		store, err := NewMinio(MinioConfig{
			Endpoint:        "localhost:9000",
			Region:          "us-east-1",
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
			Insecure:        true,
		})
		require.NoError(t, err)
		assert.NotNil(t, store.client)
	})

	t.Run("DefaultEndpoint", func(t *testing.T) {
		t.Parallel()

		store, err := NewMinio(MinioConfig{Region: "eu-west-1"})
		require.NoError(t, err)
		assert.Equal(t, defaultEndpoint, store.client.EndpointURL().Host)
	})
}

func TestCredentialChain_Profile(t *testing.T) {
	t.Parallel()

	chain := credentialChain(MinioConfig{Profile: "prod"})
	require.Len(t, chain, 3)
	assert.IsType(t, &credentials.EnvAWS{}, chain[0])

	file, ok := chain[1].(*credentials.FileAWSCredentials)
	require.True(t, ok)
	assert.Equal(t, "prod", file.Profile)
	assert.Empty(t, file.Filename)

	assert.IsType(t, &credentials.IAM{}, chain[2])
}

func TestNewCredentials(t *testing.T) {
	for _, name := range []string{
		"AWS_ACCESS_KEY_ID", "AWS_ACCESS_KEY",
		"AWS_SECRET_ACCESS_KEY", "AWS_SECRET_KEY",
		"AWS_SESSION_TOKEN", "AWS_PROFILE", "AWS_CONFIG_FILE",
	} {
		t.Setenv(name, "")
	}
	credsFile := filepath.Join(t.TempDir(), "credentials")
	require.NoError(t, os.WriteFile(credsFile, []byte(`[default]
aws_access_key_id = DEFAULTKEY
aws_secret_access_key = defaultsecret

[prod]
aws_access_key_id = PRODKEY
aws_secret_access_key = prodsecret
`), 0600))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", credsFile)

	t.Run("Profile", func(t *testing.T) {
		value, err := newCredentials(MinioConfig{Profile: "prod"}).Get()
		require.NoError(t, err)
		assert.Equal(t, "PRODKEY", value.AccessKeyID)
		assert.Equal(t, "prodsecret", value.SecretAccessKey)
	})

	t.Run("DefaultProfile", func(t *testing.T) {
		value, err := newCredentials(MinioConfig{}).Get()
		require.NoError(t, err)
		assert.Equal(t, "DEFAULTKEY", value.AccessKeyID)
	})

	t.Run("StaticKeysSkipChain", func(t *testing.T) {
		value, err := newCredentials(MinioConfig{
			Profile:         "prod",
			AccessKeyID:     "STATICKEY",
			SecretAccessKey: "staticsecret",
		}).Get()
		require.NoError(t, err)
		assert.Equal(t, "STATICKEY", value.AccessKeyID)
	})
}

func TestMinio_Translate(t *testing.T) {
	t.Parallel()

	m := &Minio{}

	err := m.translate("bucket", "state.json", minio.ErrorResponse{Code: codeNoSuchKey, StatusCode: 404})
	assert.ErrorIs(t, err, ErrNotFound)

	denied := minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}
	err = m.translate("bucket", "state.json", denied)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "s3://bucket/state.json")
}
