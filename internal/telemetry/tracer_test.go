package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracer_Disabled(t *testing.T) {
	t.Parallel()

	tr, err := NewTracer(context.Background(), TracingConfig{})
	require.NoError(t, err)

	ctx, span := tr.Start(context.Background(), "run")
	span.End()

	assert.NotNil(t, ctx)
	assert.NotNil(t, tr.Trace())
	assert.NoError(t, tr.Shutdown(context.Background()))
}
