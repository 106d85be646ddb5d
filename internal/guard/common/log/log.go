// Package log is the Crypto Guard logging facade. Callers log with a flat
// field map and a message; the zap backend is an implementation detail.
package log

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the Crypto Guard logging interface.
type Logger interface {
	Info(fields map[string]any, msg string)
	Error(fields map[string]any, msg string)
	Debug(fields map[string]any, msg string)
	Warn(fields map[string]any, msg string)
	Panic(fields map[string]any, msg string)
	Fatal(fields map[string]any, msg string)

	// With returns a child logger that attaches fields to every entry.
	With(fields map[string]any) Logger
}

type holder struct{ l Logger }

var global atomic.Pointer[holder]

func init() {
	global.Store(&holder{l: newZapLogger(false, zapcore.InfoLevel)})
}

// SetLogger replaces the global logger instance.
func SetLogger(l Logger) {
	global.Store(&holder{l: l})
}

// GetLogger returns the current global logger instance.
func GetLogger() Logger {
	return global.Load().l
}

// Configure sets up the global logger for the given environment and level.
// Any env other than "prod" selects the human readable development encoder.
func Configure(env, level string) error {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	SetLogger(newZapLogger(env != "prod", lvl))
	return nil
}

func Info(fields map[string]any, msg string)  { GetLogger().Info(fields, msg) }
func Error(fields map[string]any, msg string) { GetLogger().Error(fields, msg) }
func Debug(fields map[string]any, msg string) { GetLogger().Debug(fields, msg) }
func Warn(fields map[string]any, msg string)  { GetLogger().Warn(fields, msg) }
func Panic(fields map[string]any, msg string) { GetLogger().Panic(fields, msg) }
func Fatal(fields map[string]any, msg string) { GetLogger().Fatal(fields, msg) }

// zapLogger adapts zap to Logger. Fields are only converted when the level
// is enabled, which keeps per-request debug logging cheap in production.
type zapLogger struct {
	base *zap.Logger
}

func newZapLogger(dev bool, level zapcore.Level) Logger {
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "msg"

	base, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
	}
	return &zapLogger{base: base}
}

func (l *zapLogger) write(lvl zapcore.Level, fields map[string]any, msg string) {
	if ce := l.base.Check(lvl, msg); ce != nil {
		ce.Write(zapFields(fields)...)
	}
}

func (l *zapLogger) Debug(fields map[string]any, msg string) { l.write(zapcore.DebugLevel, fields, msg) }
func (l *zapLogger) Info(fields map[string]any, msg string)  { l.write(zapcore.InfoLevel, fields, msg) }
func (l *zapLogger) Warn(fields map[string]any, msg string)  { l.write(zapcore.WarnLevel, fields, msg) }
func (l *zapLogger) Error(fields map[string]any, msg string) { l.write(zapcore.ErrorLevel, fields, msg) }
func (l *zapLogger) Panic(fields map[string]any, msg string) { l.write(zapcore.PanicLevel, fields, msg) }
func (l *zapLogger) Fatal(fields map[string]any, msg string) { l.write(zapcore.FatalLevel, fields, msg) }

func (l *zapLogger) With(fields map[string]any) Logger {
	return &zapLogger{base: l.base.With(zapFields(fields)...)}
}

// zapFields converts the field map into zap fields. Errors are logged with
// their message so the JSON encoder does not render them as empty objects.
func zapFields(m map[string]any) []zap.Field {
	fields := make([]zap.Field, 0, len(m))
	for k, v := range m {
		if err, ok := v.(error); ok {
			fields = append(fields, zap.String(k, err.Error()))
			continue
		}
		fields = append(fields, zap.Any(k, v))
	}
	return fields
}

// noopLogger discards all log messages.
type noopLogger struct{}

func (n *noopLogger) Info(map[string]any, string)  {}
func (n *noopLogger) Error(map[string]any, string) {}
func (n *noopLogger) Debug(map[string]any, string) {}
func (n *noopLogger) Warn(map[string]any, string)  {}
func (n *noopLogger) Panic(map[string]any, string) {}
func (n *noopLogger) Fatal(map[string]any, string) {}

func (n *noopLogger) With(map[string]any) Logger { return n }

// NewNoopLogger returns a Logger that discards all log messages.
func NewNoopLogger() Logger {
	return &noopLogger{}
}
