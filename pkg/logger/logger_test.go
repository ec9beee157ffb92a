package logger

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mockLogLevel int8 = 0 // zapcore.InfoLevel

func TestGetReturnsSameInstanceOnSubsequentCalls(t *testing.T) {
	logger1 := Get(mockLogLevel)
	logger2 := Get(mockLogLevel)
	require.NotNil(t, logger1)
	assert.Same(t, logger1, logger2)
}

func TestSetupAfterGetIgnoresNewOptions(t *testing.T) {
	first := Get(mockLogLevel)
	second, err := Setup(Options{Level: -4, Path: t.TempDir() + "/ignored.log"})
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestWithLoggerAddsLoggerToContext(t *testing.T) {
	logger := Get(mockLogLevel)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, ctx.Value(loggerContextKey{}))
}

func TestWithLoggerReturnsSameContextIfLoggerAlreadySet(t *testing.T) {
	logger := Get(mockLogLevel)
	ctx := context.WithValue(context.Background(), loggerContextKey{}, logger)
	assert.Equal(t, ctx, WithLogger(ctx, logger))
}

func TestWithLoggerReplacesLoggerIfDifferent(t *testing.T) {
	other := logr.Discard()
	ctx := context.WithValue(context.Background(), loggerContextKey{}, Get(mockLogLevel))
	got := WithLogger(ctx, &other).Value(loggerContextKey{})
	assert.Same(t, &other, got)
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	global := Get(mockLogLevel)
	assert.Same(t, global, FromContext(context.Background()))
}

func TestFromContextReturnsNoopLoggerIfNothingSet(t *testing.T) {
	orig := globalLogrLogger
	globalLogrLogger = nil
	defer func() { globalLogrLogger = orig }()

	assert.Same(t, &defaultNoopLogger, FromContext(context.Background()))
	assert.Same(t, &defaultNoopLogger, GetGlobalLogger())
}

func TestSyncDoesNotPanicWhenGlobalZapLoggerIsNil(t *testing.T) {
	orig := globalZapLogger
	globalZapLogger = nil
	defer func() { globalZapLogger = orig }()

	assert.NotPanics(t, Sync)
}

func TestWithValuesReturnsNewLogger(t *testing.T) {
	logger := Get(mockLogLevel)
	newLogger := WithValues(logger, "pass", 3)
	require.NotNil(t, newLogger)
	assert.NotSame(t, logger, newLogger)
}

func TestComponentHandlesNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		lgr := Component(nil, "list")
		lgr.V(1).Info("discarded")
	})
}
