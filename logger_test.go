package gsqlite

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdLoggerFiltersBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, LevelWarn)
	log.Info("should not appear")
	log.Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear")
}

func TestStdLoggerWithMergesKeyvals(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, LevelDebug).With("component", "probe")
	log.Debug("running", "table", "features")

	out := buf.String()
	require.True(t, strings.Contains(out, "component=probe"))
	require.True(t, strings.Contains(out, "table=features"))
}

func TestNopLoggerDiscardsEverything(t *testing.T) {
	log := NopLogger()
	log.Debug("x")
	log.Info("x")
	log.Warn("x")
	log.Error("x")
	assert.NotPanics(t, func() { log.With("a", "b").Info("y") })
}
