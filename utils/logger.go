package utils

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides structured JSON logging for the server and the fill engine.
type Logger struct {
	z *zap.Logger
}

// NewLogger builds a JSON logger. Development environments log at debug level
// with human-readable timestamps.
func NewLogger(environment string) *Logger {
	cfg := zap.NewProductionConfig()
	if environment == "development" {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.MessageKey = "message"

	z, err := cfg.Build()
	if err != nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// Zap exposes the underlying logger for components that take *zap.Logger.
func (l *Logger) Zap() *zap.Logger {
	return l.z
}

// Named returns a child logger scoped to a component.
func (l *Logger) Named(name string) *zap.Logger {
	return l.z.Named(name)
}

func (l *Logger) Info(message string, fields ...zap.Field) {
	l.z.Info(message, fields...)
}

func (l *Logger) Warn(message string, fields ...zap.Field) {
	l.z.Warn(message, fields...)
}

func (l *Logger) Error(message string, err error, fields ...zap.Field) {
	l.z.Error(message, append(fields, zap.Error(err))...)
}

func (l *Logger) Debug(message string, fields ...zap.Field) {
	l.z.Debug(message, fields...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() {
	_ = l.z.Sync()
}

// Global logger instance
var GlobalLogger = NewLogger(os.Getenv("ENVIRONMENT"))

func LogInfo(message string, fields ...zap.Field) {
	GlobalLogger.Info(message, fields...)
}

func LogWarn(message string, fields ...zap.Field) {
	GlobalLogger.Warn(message, fields...)
}

func LogError(message string, err error, fields ...zap.Field) {
	GlobalLogger.Error(message, err, fields...)
}

func LogDebug(message string, fields ...zap.Field) {
	GlobalLogger.Debug(message, fields...)
}
