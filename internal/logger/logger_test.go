package logger

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedContext(level zapcore.Level) (context.Context, *observer.ObservedLogs) {
	core, logs := observer.New(level)

	return ToContext(context.Background(), zap.New(core).Sugar()), logs
}

// TestNew tests that New honors the given level enabler.
func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		level zapcore.LevelEnabler
	}{
		{name: "debug level", level: zapcore.DebugLevel},
		{name: "error level", level: zapcore.ErrorLevel},
		{name: "nil level falls back to the global one", level: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := New(tt.level)
			require.NotNil(t, l)

			if tt.level != nil {
				assert.Equal(t, tt.level.Enabled(zapcore.DebugLevel), l.Desugar().Core().Enabled(zapcore.DebugLevel))
			}
		})
	}
}

// TestParseLogLevel tests the ParseLogLevel function.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected zapcore.Level
		ok       bool
	}{
		{input: "debug", expected: zapcore.DebugLevel, ok: true},
		{input: "info", expected: zapcore.InfoLevel, ok: true},
		{input: "WARN", expected: zapcore.WarnLevel, ok: true},
		{input: " Error ", expected: zapcore.ErrorLevel, ok: true},
		{input: "verbose", expected: zapcore.InfoLevel, ok: false},
		{input: "", expected: zapcore.InfoLevel, ok: false},
		{input: "   ", expected: zapcore.InfoLevel, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			level, ok := ParseLogLevel(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, level)
		})
	}
}

// TestSetLevel tests that the global level drives Level and IsDebugLevel.
//
//nolint:paralleltest // Changes the process-wide level.
func TestSetLevel(t *testing.T) {
	original := Level()
	t.Cleanup(func() { SetLevel(original) })

	SetLevel(zapcore.DebugLevel)
	assert.Equal(t, zapcore.DebugLevel, Level())
	assert.True(t, IsDebugLevel())

	SetLevel(zapcore.WarnLevel)
	assert.Equal(t, zapcore.WarnLevel, Level())
	assert.False(t, IsDebugLevel())
}

// TestFromContext tests the fallback to the process-wide logger.
func TestFromContext(t *testing.T) {
	t.Parallel()

	assert.Same(t, Logger(), FromContext(context.Background()))
	//nolint:staticcheck // A nil context must not panic.
	assert.Same(t, Logger(), FromContext(nil))

	ctx, _ := newObservedContext(zapcore.DebugLevel)
	assert.NotSame(t, Logger(), FromContext(ctx))
}

// TestContextHelpers tests that every helper writes through the context logger at its level.
func TestContextHelpers(t *testing.T) {
	t.Parallel()

	ctx, logs := newObservedContext(zapcore.DebugLevel)

	Debug(ctx, "debug message")
	Debugf(ctx, "debug %s", "formatted")
	DebugKV(ctx, "debug kv", "key", "value")
	Info(ctx, "info message")
	Infof(ctx, "info %d", 1)
	InfoKV(ctx, "info kv", "key", "value")
	Warn(ctx, "warn message")
	Warnf(ctx, "warn %d", 2)
	WarnKV(ctx, "warn kv", "key", "value")
	Error(ctx, "error message")
	Errorf(ctx, "error %d", 3)
	ErrorKV(ctx, "error kv", "key", "value")

	entries := logs.AllUntimed()
	require.Len(t, entries, 12)

	expectedLevels := []zapcore.Level{
		zapcore.DebugLevel, zapcore.DebugLevel, zapcore.DebugLevel,
		zapcore.InfoLevel, zapcore.InfoLevel, zapcore.InfoLevel,
		zapcore.WarnLevel, zapcore.WarnLevel, zapcore.WarnLevel,
		zapcore.ErrorLevel, zapcore.ErrorLevel, zapcore.ErrorLevel,
	}

	for i, entry := range entries {
		assert.Equal(t, expectedLevels[i], entry.Level, entry.Message)
	}

	assert.Equal(t, "debug formatted", entries[1].Message)
	assert.Equal(t, "value", entries[5].ContextMap()["key"])
}

// TestWithKVAndName tests that fields and names attached to a context reach every entry.
func TestWithKVAndName(t *testing.T) {
	t.Parallel()

	ctx, logs := newObservedContext(zapcore.InfoLevel)

	ctx = WithName(ctx, "downloader")
	ctx = WithKV(ctx, "episode", 3)

	Infof(ctx, "Saved %s", "episode.mp3")
	Debug(ctx, "filtered out by level")

	entries := logs.AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, "downloader", entries[0].LoggerName)
	assert.Equal(t, int64(3), entries[0].ContextMap()["episode"])
}

// TestConcurrentLogging tests that the context helpers are safe for concurrent workers.
func TestConcurrentLogging(t *testing.T) {
	t.Parallel()

	const workers = 8

	ctx, logs := newObservedContext(zapcore.InfoLevel)

	var wg sync.WaitGroup

	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			InfoKV(WithKV(ctx, "worker", i), "done")
		}()
	}

	wg.Wait()

	assert.Equal(t, workers, logs.Len())
}
