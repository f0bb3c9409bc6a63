package logging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("garbage"))
}

func TestNewAndWith(t *testing.T) {
	logger := New("debug")
	require.NotNil(t, logger)

	child := logger.With("component", "test")
	require.NotNil(t, child)
	assert.NotSame(t, logger, child)
}
