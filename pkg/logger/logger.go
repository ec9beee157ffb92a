// Package logger wires a zap JSON core behind a logr.Logger for the CLI and
// hands library packages a logger through context.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"

	"github.com/oakwood-commons/kvlist/pkg/settings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerContextKey struct{}

const (
	CommitKey    = "commit"
	VersionKey   = "version"
	BuildTimeKey = "build_time"
	GoVersionKey = "go_version"
	TimeStampKey = "timestamp"
	MessageKey   = "message"
	ComponentKey = "component"
)

// Options control where Setup sends log entries.
type Options struct {
	// Level is a zapcore.Level value; negative values enable logr V-levels.
	Level int8
	// Path appends JSON entries to a file instead of stderr. Interactive
	// sessions should set this, since stderr shares the terminal with the UI.
	Path string
	// Discard drops every entry. Used when the UI owns the terminal and no
	// Path was given.
	Discard bool
}

var (
	once sync.Once

	globalZapLogger  *zap.Logger
	globalLogrLogger *logr.Logger
	setupErr         error
	logFile          *os.File

	defaultNoopLogger logr.Logger = logr.Discard()
)

// Setup initializes the global zap and logr loggers. Only the first call has
// an effect; later calls return the logger built by the first.
func Setup(opts Options) (*logr.Logger, error) {
	once.Do(func() {
		if opts.Discard && opts.Path == "" {
			globalLogrLogger = &defaultNoopLogger
			return
		}

		var sink io.Writer = os.Stderr
		if opts.Path != "" {
			f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				setupErr = fmt.Errorf("open log file: %w", err)
				globalLogrLogger = &defaultNoopLogger
				return
			}
			logFile = f
			sink = f
		}

		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderCfg.TimeKey = TimeStampKey
		encoderCfg.MessageKey = MessageKey

		goVersion := "unknown"
		if buildInfo, ok := debug.ReadBuildInfo(); ok {
			goVersion = buildInfo.GoVersion
		}
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.Lock(zapcore.AddSync(sink)),
			zap.NewAtomicLevelAt(zapcore.Level(opts.Level)),
		).With(
			[]zapcore.Field{
				zap.String(CommitKey, settings.VersionInformation.Commit),
				zap.String(VersionKey, settings.VersionInformation.BuildVersion),
				zap.String(BuildTimeKey, settings.VersionInformation.BuildTime),
				zap.String(GoVersionKey, goVersion),
			},
		)

		globalZapLogger = zap.New(core,
			zap.AddCaller(),
			zap.AddStacktrace(zap.ErrorLevel),
			zap.WithFatalHook(zapcore.WriteThenPanic),
		)

		gl := zapr.NewLogger(globalZapLogger)
		globalLogrLogger = &gl
	})
	if globalLogrLogger == nil {
		return &defaultNoopLogger, setupErr
	}
	return globalLogrLogger, setupErr
}

// Get initializes the global logger writing to stderr at the given level.
func Get(logLevel int8) *logr.Logger {
	lgr, _ := Setup(Options{Level: logLevel})
	return lgr
}

// WithLogger returns a context carrying log. The original context is returned
// when it already holds the same logger.
func WithLogger(ctx context.Context, log *logr.Logger) context.Context {
	if lp, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok && lp == log {
		return ctx
	}
	return context.WithValue(ctx, loggerContextKey{}, log)
}

// FromContext retrieves the logger stored by WithLogger, falling back to the
// global logger and then to a no-op logger.
func FromContext(ctx context.Context) *logr.Logger {
	if log, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok {
		return log
	}
	if globalLogrLogger != nil {
		return globalLogrLogger
	}
	return &defaultNoopLogger
}

// Sync flushes buffered entries and closes the log file, if any.
func Sync() {
	if globalZapLogger != nil {
		if err := globalZapLogger.Sync(); err != nil && !isIgnorableSyncError(err) {
			fmt.Fprintf(os.Stderr, "WARNING: failed to sync zap logger: %v\n", err)
		}
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// isIgnorableSyncError reports Sync errors that pipes and TTYs return routinely.
func isIgnorableSyncError(err error) bool {
	if errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.EIO) || errors.Is(err, syscall.EBADF) {
		return true
	}
	return strings.Contains(err.Error(), "The handle is invalid")
}

// GetGlobalLogger returns the global logger, or a no-op logger before Setup.
func GetGlobalLogger() *logr.Logger {
	if globalLogrLogger != nil {
		return globalLogrLogger
	}
	return &defaultNoopLogger
}

func GetNoopLogger() *logr.Logger {
	return &defaultNoopLogger
}

// WithValues returns a new logger with the key/value pairs attached.
func WithValues(lgr *logr.Logger, keysAndValues ...any) *logr.Logger {
	nlgr := lgr.WithValues(keysAndValues...)
	return &nlgr
}

// Component returns lgr named and tagged for one widget component, the form
// handed to the list and tree configs.
func Component(lgr *logr.Logger, name string) logr.Logger {
	if lgr == nil {
		return defaultNoopLogger
	}
	return lgr.WithName(name).WithValues(ComponentKey, name)
}
