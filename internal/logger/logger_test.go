package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"panic":   zapcore.PanicLevel,
		"fatal":   zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("loud")
	require.False(t, ok)
}

// TestFromContext_FallsBackToGlobal ensures a bare context yields the global logger.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}

// TestContextHelpers checks that names and key-value pairs travel with the context.
func TestContextHelpers(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())

	ctx = WithName(ctx, "controller")
	ctx = WithKV(ctx, "tick", 3)

	InfoKV(ctx, "Alarm triggered", "cause", "door")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "controller", entries[0].LoggerName)
	require.Equal(t, "Alarm triggered", entries[0].Message)

	fields := entries[0].ContextMap()
	require.EqualValues(t, 3, fields["tick"])
	require.Equal(t, "door", fields["cause"])
}

// TestWithMinLevel verifies that a pinned level filters messages below it.
func TestWithMinLevel(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())
	quiet := WithMinLevel(ctx, zapcore.WarnLevel)

	Debug(quiet, "echo timeout")
	Warn(quiet, "trigger pin failed")
	Debug(ctx, "still visible")

	require.Equal(t, 2, logs.Len())
	require.Equal(t, "trigger pin failed", logs.All()[0].Message)
	require.Equal(t, "still visible", logs.All()[1].Message)
}
