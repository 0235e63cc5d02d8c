package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerConfig struct {
	Debug bool
}

func NewLogger(cfg *LoggerConfig) (*zap.Logger, error) {
	mergedConfig := zap.NewProductionConfig()
	mergedConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	mergedConfig.EncoderConfig.TimeKey = "time"

	if cfg != nil && cfg.Debug {
		mergedConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		mergedConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return mergedConfig.Build()
}
