// Package logger provides structured logging for GoRegress using zap.
//
// Log output defaults to stderr so that reports written to stdout stay
// machine readable.
package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dbsmedya/goregress/internal/config"
)

// Logger wraps zap.SugaredLogger with regression context helpers.
type Logger struct {
	*zap.SugaredLogger
	base   *zap.Logger
	closer io.Closer
}

// New creates a Logger from configuration. A file output is opened in
// append mode and must be released with Close.
func New(cfg *config.LoggingConfig) (*Logger, error) {
	sink, closer, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	l := build(cfg, sink)
	l.closer = closer
	return l, nil
}

// NewWithWriter creates a Logger that writes to w, ignoring cfg.Output.
func NewWithWriter(cfg *config.LoggingConfig, w io.Writer) *Logger {
	return build(cfg, zapcore.AddSync(w))
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	base := zap.NewNop()
	return &Logger{SugaredLogger: base.Sugar(), base: base}
}

func build(cfg *config.LoggingConfig, sink zapcore.WriteSyncer) *Logger {
	core := zapcore.NewCore(buildEncoder(cfg.Format), sink, parseLevel(cfg.Level))
	base := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return &Logger{SugaredLogger: base.Sugar(), base: base}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func buildEncoder(format string) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}

	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

// openOutput resolves the configured destination. The returned closer is
// nil for the standard streams.
func openOutput(output string) (zapcore.WriteSyncer, io.Closer, error) {
	switch output {
	case "stderr", "":
		return zapcore.Lock(os.Stderr), nil, nil
	case "stdout":
		return zapcore.Lock(os.Stdout), nil, nil
	}

	file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", output, err)
	}
	return zapcore.Lock(file), file, nil
}

func (l *Logger) with(key string, value interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(key, value),
		base:          l.base,
		closer:        l.closer,
	}
}

// WithTest tags entries with the regression test name.
func (l *Logger) WithTest(testName string) *Logger {
	return l.with("test", testName)
}

// WithStage tags entries with a pipeline stage (align, compare, aggregate).
func (l *Logger) WithStage(stage string) *Logger {
	return l.with("stage", stage)
}

// WithColumn tags entries with a compared column.
func (l *Logger) WithColumn(column string) *Logger {
	return l.with("column", column)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.base.Sync()
}

// Close flushes and releases a file output. Sync errors on terminals are
// ignored since stdout and stderr cannot always be fsynced.
func (l *Logger) Close() error {
	_ = l.Sync()
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
