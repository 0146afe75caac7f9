package logger

import (
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the global logger instance
var Log *zap.Logger

type options struct {
	filePath     string
	maxAge       time.Duration
	rotationTime time.Duration
	level        string
}

// Option customizes Init
type Option func(*options)

// WithFile mirrors every entry as JSON into a daily rotated file.
// The active file is reachable through a symlink at path.
func WithFile(path string) Option {
	return func(o *options) {
		o.filePath = path
	}
}

// WithRetention sets how long rotated files are kept
func WithRetention(maxAge time.Duration) Option {
	return func(o *options) {
		o.maxAge = maxAge
	}
}

// WithLevel overrides the default level ("debug", "info", "warn", "error")
func WithLevel(level string) Option {
	return func(o *options) {
		o.level = level
	}
}

// Init initializes the global logger
// isDevelopment: true for colorful console output, false for JSON structured logging
func Init(isDevelopment bool, opts ...Option) error {
	o := options{
		maxAge:       7 * 24 * time.Hour,
		rotationTime: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var config zap.Config
	if isDevelopment {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	if o.level != "" {
		config.Level = zap.NewAtomicLevelAt(levelFromString(o.level))
	}

	buildOpts := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	}

	if o.filePath != "" {
		writer, err := rotatelogs.New(
			o.filePath+".%Y%m%d",
			rotatelogs.WithLinkName(o.filePath),
			rotatelogs.WithMaxAge(o.maxAge),
			rotatelogs.WithRotationTime(o.rotationTime),
		)
		if err != nil {
			return err
		}

		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(writer), config.Level)

		buildOpts = append(buildOpts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore)
		}))
	}

	l, err := config.Build(buildOpts...)
	if err != nil {
		return err
	}
	Log = l

	return nil
}

func levelFromString(l string) zapcore.Level {
	switch l {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sync flushes any buffered log entries
// Should be called before application exits
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
