package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandlerCaptures(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.Info("step start", slog.String("step", "clean"))
	logger.Warn("potential data issues found", slog.Int("issues", 3))
	logger.Error("step error", slog.String("error", "boom"))

	require.Equal(t, 3, handler.Count())
	assert.True(t, handler.ContainsMessage("data issues"))
	assert.False(t, handler.ContainsMessage("not logged"))
	assert.True(t, handler.ContainsAttr("step", "clean"))
	assert.True(t, handler.ContainsAttr("issues", int64(3)))
	assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)

	AssertLogContains(t, handler, slog.LevelWarn, "potential data issues")
	AssertLogAttr(t, handler, "error", "boom")

	handler.Clear()
	assert.Zero(t, handler.Count())
	AssertNoErrors(t, handler)
}

func TestBufferedSlogHandlerDerivedLoggersShareBuffer(t *testing.T) {
	logger, handler := NewTestLogger(t)

	stepLogger := logger.With(slog.String("component", "pipeline_manager")).
		With(slog.String("step", "enrich"))
	stepLogger.Info("lookup", slog.String("city", "Columbus"))

	grouped := logger.WithGroup("geocode")
	grouped.Debug("cache hit", slog.String("key", "Columbus|OH"))

	records := handler.GetRecords()
	require.Len(t, records, 2)

	assert.Equal(t, map[string]any{
		"component": "pipeline_manager",
		"step":      "enrich",
		"city":      "Columbus",
	}, records[0].Attrs)
	assert.Equal(t, "Columbus|OH", records[1].Attrs["geocode.key"])
	assert.Equal(t, slog.LevelDebug, records[1].Level)
}

func TestReadLines(t *testing.T) {
	path := WriteFile(t, t.TempDir(), "Data/report.txt", "a\nb\n")
	assert.Equal(t, []string{"a", "b"}, ReadLines(t, path))
}
