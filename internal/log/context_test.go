package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithContextAddsCorrelationFields(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	ctx = ContextWithJobID(ctx, "job-1")

	var buf bytes.Buffer
	Configure(Config{Output: &buf, Level: "info"})
	logger := WithContext(ctx, Base())
	logger.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "req-1", entry["request_id"])
	require.Equal(t, "corr-1", entry["correlation_id"])
	require.Equal(t, "job-1", entry["job_id"])
}

func TestWithContextNoFieldsLeavesLoggerUnchanged(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf, Level: "info"})
	logger := WithContext(context.Background(), Base())
	logger.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.NotContains(t, entry, "request_id")
	require.NotContains(t, entry, "correlation_id")
}

func TestIDFromContextMissingReturnsEmpty(t *testing.T) {
	require.Equal(t, "", RequestIDFromContext(context.Background()))
	require.Equal(t, "", CorrelationIDFromContext(context.Background()))
	require.Equal(t, "", JobIDFromContext(context.Background()))
}
