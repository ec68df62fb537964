// Package zaplogger backs the observability.Logger port with zap.
package zaplogger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shopflow-io/shopflow/internal/observability"
)

// New builds a production JSON logger on stdout. When LOG_FILE is set the
// output is mirrored there as well. Fixed fields (service, env) appear on
// every entry.
func New(fixed ...observability.Field) observability.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stdout"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	if path := os.Getenv("LOG_FILE"); path != "" {
		if err := touchLogFile(path); err != nil {
			panic(fmt.Errorf("prepare log file: %w", err))
		}
		cfg.OutputPaths = append(cfg.OutputPaths, path)
		cfg.ErrorOutputPaths = append(cfg.ErrorOutputPaths, path)
	}

	cfg.InitialFields = make(map[string]any, len(fixed))
	for _, f := range fixed {
		cfg.InitialFields[f.Key] = f.Value
	}

	zl, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return &zapLogger{zl: zl}
}

type zapLogger struct{ zl *zap.Logger }

func (l *zapLogger) With(fields ...observability.Field) observability.Logger {
	if len(fields) == 0 {
		return l
	}
	return &zapLogger{zl: l.zl.With(convert(fields)...)}
}

func (l *zapLogger) Debug(msg string, fields ...observability.Field) {
	l.zl.Debug(msg, convert(fields)...)
}

func (l *zapLogger) Info(msg string, fields ...observability.Field) {
	l.zl.Info(msg, convert(fields)...)
}

func (l *zapLogger) Warn(msg string, fields ...observability.Field) {
	l.zl.Warn(msg, convert(fields)...)
}

func (l *zapLogger) Error(msg string, fields ...observability.Field) {
	l.zl.Error(msg, convert(fields)...)
}

// Sync flushes buffered entries; main defers it for shutdown.
func (l *zapLogger) Sync() error { return l.zl.Sync() }

func convert(fields []observability.Field) []zap.Field {
	zf := make([]zap.Field, len(fields))
	for i, f := range fields {
		zf[i] = zap.Any(f.Key, f.Value)
	}
	return zf
}

func touchLogFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}
