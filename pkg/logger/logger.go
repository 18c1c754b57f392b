package logger

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New. production json logger, level taken from LOG_LEVEL (default info).
func New() (*zap.Logger, error) {
	viper.SetDefault("LOG_LEVEL", "info")

	level, err := zapcore.ParseLevel(viper.GetString("LOG_LEVEL"))
	if err != nil {
		level = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.TimeKey = "time"

	return cfg.Build()
}
