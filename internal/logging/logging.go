// Package logging builds the zap loggers injected into pipeline components.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Structured field keys shared across components
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldBatchID   = "batch_id"
	FieldFile      = "file"
	FieldProvider  = "llm_provider"
	FieldModel     = "llm_model"
)

// Config selects the log level and encoding
type Config struct {
	Level  string
	Format string // json or console
}

// New builds a logger writing to stderr so stdout stays free for command output
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	encoding := "console"
	if strings.EqualFold(cfg.Format, "json") {
		encoding = "json"
	}

	zcfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:   "msg",
			LevelKey:     "level",
			EncodeLevel:  zapcore.LowercaseLevelEncoder,
			TimeKey:      "time",
			EncodeTime:   zapcore.RFC3339TimeEncoder,
			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}
	return zcfg.Build()
}

// OrNop returns logger, or a no-op logger when it is nil
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Component names the component emitting the logs
func Component(logger *zap.Logger, name string) *zap.Logger {
	return OrNop(logger).With(zap.String(FieldComponent, name))
}

// WithBatch attaches the batch id
func WithBatch(logger *zap.Logger, batchID string) *zap.Logger {
	return OrNop(logger).With(zap.String(FieldBatchID, batchID))
}

// Degraded logs a component falling back to its degraded output
func Degraded(logger *zap.Logger, operation string, err error, fields ...zap.Field) {
	fields = append([]zap.Field{zap.String(FieldOperation, operation), zap.Bool("degraded", true), zap.Error(err)}, fields...)
	OrNop(logger).Warn("using degraded result", fields...)
}

// Truncate shortens s to limit runes, appending an ellipsis when truncated
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
