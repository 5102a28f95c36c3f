package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskingHandler_MasksSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	log.Info("auth",
		slog.String("client_secret", "s3cr3t"),
		slog.Group("request", slog.String("Authorization", "Bearer abc"), slog.String("path", "/v2/products")),
		slog.Int64("user_id", 42),
	)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "***", record["client_secret"])
	assert.EqualValues(t, 42, record["user_id"])

	group, ok := record["request"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "***", group["Authorization"])
	assert.Equal(t, "/v2/products", group["path"])
}

func TestMaskingHandler_AddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil))).With(slog.String("token", "abc"))

	ctx := WithCorrelationID(context.Background())
	log.InfoContext(ctx, "update")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "***", record["token"])
	assert.Equal(t, CorrelationIDFromContext(ctx), record["correlation_id"])
	assert.NotEmpty(t, record["correlation_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
