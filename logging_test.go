package flagkit

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestSlogLoggerEmitsRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	logger.Warn("circuit breaker state change", "from", "closed", "to", "open")

	out := buf.String()
	require.Contains(t, out, "circuit breaker state change")
	require.Contains(t, out, "from=closed")
	require.Contains(t, out, "to=open")
}

func TestNoopLoggerDiscardsEverything(t *testing.T) {
	var l Logger = noopLogger{}
	require.NotPanics(t, func() {
		l.Debug("x")
		l.Info("x")
		l.Warn("x")
		l.Error("x")
	})
}
