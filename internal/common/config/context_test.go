package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithConfigAndGetConfig(t *testing.T) {
	t.Parallel()

	cfg := &Config{HistoryURI: "s3://b/p", Region: "us-east-1"}
	ctx := WithConfig(context.Background(), cfg)

	assert.Same(t, cfg, GetConfig(ctx))
}

func TestGetConfig_NoConfigInContext(t *testing.T) {
	t.Parallel()

	cfg := GetConfig(context.Background())
	assert.NotNil(t, cfg)
	assert.Empty(t, cfg.HistoryURI)
}
