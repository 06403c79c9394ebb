package progress

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format  string
		wantErr bool
	}{
		{format: "pretty"},
		{format: "json"},
		{format: "text"},
		{format: "yaml", wantErr: true},
		{format: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger, err := NewLogger(&buf, tt.format, slog.LevelInfo)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
		})
	}
}

func TestPrettyHandlerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, slog.LevelInfo)

	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestPrettyHandlerOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, slog.LevelDebug))

	logger.Info("plain message")
	assert.Contains(t, buf.String(), "plain message")
}

func TestPrettyHandlerWithAttrsPrefix(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, slog.LevelInfo))

	logger.With(slog.String("file", "a.xml")).Info("added")
	assert.Contains(t, buf.String(), "file=a.xml added")
}

func TestPrettyHandlerWithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, slog.LevelInfo))

	logger.WithGroup("merge").Info("started")
	assert.Contains(t, buf.String(), "merge.started")
}

func TestPrettyHandlerKeyAndRuleAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, slog.LevelInfo))

	logger.LogAttrs(context.Background(), slog.LevelInfo, "[a.xml] added",
		slog.String("key", "Clients:switch01"),
		slog.String("rule", "sibling-tag"))
	assert.Contains(t, buf.String(), "[a.xml] added Clients:switch01")
	assert.Contains(t, buf.String(), "sibling-tag")
}
