// Package logging wraps go.uber.org/zap with the handful of conventions
// the rest of this module relies on: JSON or console encoding chosen by
// config, and a small set of well-known correlation fields (shard id,
// procedure name, fan-out id) attached via context instead of ad hoc
// zap.Field calls scattered across call sites.
package logging

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects the zap encoder.
type Format string

const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

// Level is the minimum severity a Logger emits.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Config controls how NewLogger builds its zap.Logger.
type Config struct {
	Level        Level
	Format       Format
	OutputPaths  []string
	EnableCaller bool
	EnableStack  bool
}

// Logger embeds *zap.Logger so every zap method (Info, With, Sync, ...) is
// available directly; the extra behavior this type adds is WithContext.
type Logger struct {
	*zap.Logger
}

// NewLogger builds a Logger from cfg, defaulting to info/JSON/stdout.
func NewLogger(cfg Config) (*Logger, error) {
	if cfg.Level == "" {
		cfg.Level = LevelInfo
	}
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	if len(cfg.OutputPaths) == 0 {
		cfg.OutputPaths = []string{"stdout"}
	}

	var level zapcore.Level
	switch cfg.Level {
	case LevelDebug:
		level = zapcore.DebugLevel
	case LevelWarn:
		level = zapcore.WarnLevel
	case LevelError:
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == FormatJSON {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Format == FormatConsole,
		Encoding:          string(cfg.Format),
		EncoderConfig:     encoderConfig,
		OutputPaths:       cfg.OutputPaths,
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: !cfg.EnableStack,
		DisableCaller:     !cfg.EnableCaller,
	}

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: failed to build logger: %w", err)
	}
	return &Logger{Logger: zapLogger}, nil
}

type contextKey string

const (
	shardIDKey     contextKey = "shard_id"
	procedureKey   contextKey = "procedure"
	fanOutIDKey    contextKey = "fanout_id"
)

// WithFanOut stashes fan-out correlation fields on ctx for WithContext to
// pick up at every log call inside that operation's goroutines.
func WithFanOut(ctx context.Context, fanOutID, procedure string) context.Context {
	ctx = context.WithValue(ctx, fanOutIDKey, fanOutID)
	return context.WithValue(ctx, procedureKey, procedure)
}

// WithShard stashes the target shard id on ctx for WithContext to pick up.
func WithShard(ctx context.Context, shardID uint16) context.Context {
	return context.WithValue(ctx, shardIDKey, shardID)
}

// WithContext returns a *zap.Logger carrying whatever correlation fields
// ctx holds, so callers don't have to thread shard id / procedure / fan-out
// id through every log call by hand.
func (l *Logger) WithContext(ctx context.Context) *zap.Logger {
	var fields []zap.Field
	if v := ctx.Value(fanOutIDKey); v != nil {
		fields = append(fields, zap.String("fanout_id", v.(string)))
	}
	if v := ctx.Value(procedureKey); v != nil {
		fields = append(fields, zap.String("procedure", v.(string)))
	}
	if v := ctx.Value(shardIDKey); v != nil {
		fields = append(fields, zap.Uint16("shard_id", v.(uint16)))
	}
	if len(fields) == 0 {
		return l.Logger
	}
	return l.Logger.With(fields...)
}
