// Package logger configures the process-wide zap logger and exposes it as a
// logr.Logger carried through context.
//
// Standard error belongs to the picker (it receives the chosen identifier),
// so log entries only go to an explicitly named file. Without one, logging
// is discarded.
package logger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"

	"github.com/oakwood-commons/seekx/pkg/settings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerContextKey struct{}

const (
	CommandKey   = "command"
	CommitKey    = "commit"
	VersionKey   = "version"
	BuildTimeKey = "build_time"
	GoVersionKey = "go_version"
	PIDKey       = "pid"
	TimeStampKey = "timestamp"
	MessageKey   = "message"
)

var (
	once sync.Once

	// globalZapLogger backs Sync.
	globalZapLogger *zap.Logger

	// globalLogrLogger is returned by FromContext when the context has none.
	globalLogrLogger *logr.Logger

	// setupErr is the sink error of the first Get call.
	setupErr error

	defaultNoopLogger logr.Logger = logr.Discard()
)

// Get initializes the global logger on its first call and returns it. Later
// calls return the same logger and error regardless of their arguments.
//
// logLevel is a zapcore level: -1 enables V(1) debug output. sinkPath names
// the file entries are appended to; "" discards everything. If the file
// cannot be opened the returned logger discards and the error is reported.
func Get(logLevel int8, sinkPath string) (*logr.Logger, error) {
	once.Do(func() {
		if sinkPath == "" {
			globalZapLogger = zap.NewNop()
			globalLogrLogger = &defaultNoopLogger
			return
		}

		sink, _, err := zap.Open(sinkPath)
		if err != nil {
			setupErr = fmt.Errorf("opening log file %s: %w", sinkPath, err)
			globalZapLogger = zap.NewNop()
			globalLogrLogger = &defaultNoopLogger
			return
		}

		globalZapLogger = newZapLogger(zapcore.Level(logLevel), sink)
		gl := zapr.NewLogger(globalZapLogger)
		globalLogrLogger = &gl
	})
	if globalLogrLogger == nil {
		return &defaultNoopLogger, setupErr
	}
	return globalLogrLogger, setupErr
}

// newZapLogger builds a JSON logger writing to sink, tagged with build
// metadata.
func newZapLogger(level zapcore.Level, sink zapcore.WriteSyncer) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.TimeKey = TimeStampKey
	encoderCfg.MessageKey = MessageKey

	goVersion := "unknown"
	if info, ok := debug.ReadBuildInfo(); ok {
		goVersion = info.GoVersion
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(sink),
		zap.NewAtomicLevelAt(level),
	).With([]zapcore.Field{
		zap.String(CommitKey, settings.VersionInformation.Commit),
		zap.String(VersionKey, settings.VersionInformation.BuildVersion),
		zap.String(BuildTimeKey, settings.VersionInformation.BuildTime),
		zap.String(GoVersionKey, goVersion),
		zap.Int(PIDKey, os.Getpid()),
	})

	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
		zap.WithFatalHook(zapcore.WriteThenPanic),
	)
}

// WithLogger returns a context carrying log. The original context is
// returned when it already carries the same logger.
func WithLogger(ctx context.Context, log *logr.Logger) context.Context {
	if lp, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok {
		if lp == log {
			return ctx
		}
	}
	return context.WithValue(ctx, loggerContextKey{}, log)
}

// FromContext returns the logger in ctx, else the global logger, else a
// no-op logger.
func FromContext(ctx context.Context) *logr.Logger {
	if log, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok {
		return log
	} else if log := globalLogrLogger; log != nil {
		return log
	}
	return &defaultNoopLogger
}

// Sync flushes buffered entries. Call it before the process exits.
func Sync() {
	if globalZapLogger != nil {
		if err := globalZapLogger.Sync(); err != nil {
			if isIgnorableSyncError(err) {
				return
			}
			fmt.Fprintf(os.Stderr, "WARNING: failed to sync zap logger: %v\n", err)
		}
	}
}

// isIgnorableSyncError reports Sync errors that pipes and terminals return
// routinely. Windows consoles wrap ERROR_INVALID_HANDLE in *os.PathError,
// hence the string match.
func isIgnorableSyncError(err error) bool {
	if errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.EIO) || errors.Is(err, syscall.EBADF) {
		return true
	}
	return strings.Contains(err.Error(), "The handle is invalid")
}

// GetNoopLogger returns a logger that discards everything.
func GetNoopLogger() *logr.Logger {
	return &defaultNoopLogger
}

// WithValues returns a copy of lgr with keysAndValues attached.
func WithValues(lgr *logr.Logger, keysAndValues ...any) *logr.Logger {
	nlgr := lgr.WithValues(keysAndValues...)
	return &nlgr
}
