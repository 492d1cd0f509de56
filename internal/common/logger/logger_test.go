package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagucloud/athenahistory/internal/common/logger/tag"
)

func TestLogger_WriterOutput(t *testing.T) {
	t.Run("TextFormat", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(WithQuiet(), WithWriter(&buf), WithFormat("text"))

		l.Info("flushed batch", tag.Count(3))

		out := buf.String()
		assert.Contains(t, out, "msg=\"flushed batch\"")
		assert.Contains(t, out, "count=3")
	})

	t.Run("JSONFormat", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(WithQuiet(), WithWriter(&buf), WithFormat("json"))

		l.Warn("checkpoint missing", tag.URI("s3://bucket/state.json"))

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "WARN", line["level"])
		assert.Equal(t, "checkpoint missing", line["msg"])
		assert.Equal(t, "s3://bucket/state.json", line["uri"])
	})

	t.Run("DebugSuppressedByDefault", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(WithQuiet(), WithWriter(&buf))

		l.Debug("hidden")
		l.Debugf("hidden %d", 1)

		assert.Empty(t, buf.String())
	})

	t.Run("DebugEnabled", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(WithQuiet(), WithWriter(&buf), WithDebug())

		l.Debugf("visible %d", 42)

		assert.Contains(t, buf.String(), "visible 42")
	})
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithQuiet(), WithWriter(&buf)).With("run-id", "abc").WithGroup("scan")

	l.Info("page fetched", "ids", 50)

	out := buf.String()
	assert.Contains(t, out, "run-id=abc")
	assert.Contains(t, out, "scan.ids=50")
}

func TestContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), NewLogger(WithQuiet(), WithWriter(&buf)))
	ctx = WithValues(ctx, "run-id", "r1", "dangling")

	Info(ctx, "run started")
	Infof(ctx, "processed %d records", 7)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "run-id=r1")
	assert.Contains(t, lines[0], "dangling=MISSING_VALUE")
	assert.Contains(t, lines[1], "processed 7 records")
}

func TestFromContext_Default(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}
