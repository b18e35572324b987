// Package logging contains the zap based loggers used across the calibration pipeline.
package logging

import (
	"os"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// Logger is the logging interface handed to every pipeline stage.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Sublogger returns a logger named "<name>.<subname>" sharing this logger's outputs.
	Sublogger(subname string) Logger
	SetLevel(level Level)
	GetLevel() Level
	AsZap() *zap.SugaredLogger
	Sync() error
}

var (
	globalMu     sync.RWMutex
	globalLogger = NewDebugLogger("startup")
)

// ReplaceGlobal replaces the global loggers.
func ReplaceGlobal(logger Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// Global returns the global logger.
func Global() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// NewLoggerConfig returns the encoder config shared by every console logger.
func NewLoggerConfig() zapcore.EncoderConfig {
	// from https://github.com/uber-go/zap/blob/2314926ec34c23ee21f3dd4399438469668f8097/config.go#L135
	// but use the same keys as prod and color levels.
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// NewLogger returns a new logger that outputs Info+ logs to stdout.
func NewLogger(name string) Logger {
	level := NewAtomicLevelAt(INFO)
	return newImpl(name, level, newStdoutCore(level))
}

// NewDebugLogger returns a new logger that outputs Debug+ logs to stdout.
func NewDebugLogger(name string) Logger {
	level := NewAtomicLevelAt(DEBUG)
	return newImpl(name, level, newStdoutCore(level))
}

// NewBlankLogger returns a new logger that accepts Debug+ logs but writes them nowhere.
func NewBlankLogger(name string) Logger {
	return newImpl(name, NewAtomicLevelAt(DEBUG))
}

// NewTestLogger returns a new logger that outputs Debug+ logs through `tb.Log`.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in memory observer.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	level := NewAtomicLevelAt(DEBUG)
	testCore := zaptest.NewLogger(tb, zaptest.Level(level)).Core()
	observerCore, observedLogs := observer.New(level)
	return newImpl("", level, testCore, observerCore), observedLogs
}

func newStdoutCore(level AtomicLevel) zapcore.Core {
	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(NewLoggerConfig()),
		zapcore.Lock(zapcore.AddSync(os.Stdout)),
		level,
	)
}
