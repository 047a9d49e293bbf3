// Package logging builds the structured zap logger shared by every command.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultLevel = "info"

// Options configures New.
type Options struct {
	// Level is a zap level name. LOG_LEVEL in the environment wins over it.
	Level string
	// Path is the log file. Empty logs to stdout.
	Path string
}

// New constructs a zap logger emitting JSON lines.
func New(opts Options) (*zap.Logger, error) {
	level, err := resolveLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	output := "stdout"
	if path := strings.TrimSpace(opts.Path); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		output = path
	}

	encoderCfg := zapcore.EncoderConfig{
		MessageKey: "message",
		TimeKey:    "timestamp",
		LevelKey:   "severity",
		NameKey:    "logger",
		EncodeTime: zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(strings.ToUpper(level.String()))
		},
		EncodeDuration: zapcore.StringDurationEncoder,
		CallerKey:      "caller",
		EncodeCaller:   zapcore.ShortCallerEncoder,
		StacktraceKey:  "stacktrace",
	}

	cfg := zap.Config{
		Level:             level,
		Encoding:          "json",
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{output},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

func resolveLevel(configured string) (zap.AtomicLevel, error) {
	level := zap.NewAtomicLevel()
	if env := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))); env != "" {
		if err := level.UnmarshalText([]byte(env)); err == nil {
			return level, nil
		}
	}
	name := strings.ToLower(strings.TrimSpace(configured))
	if name == "" {
		name = defaultLevel
	}
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return level, fmt.Errorf("log level %q: %w", configured, err)
	}
	return level, nil
}
