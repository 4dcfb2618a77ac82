package util

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// InitLogger initializes the global logger. level overrides the environment's
// default level (info in production, debug otherwise) when set.
func InitLogger(env, level string) error {
	config, err := loggerConfig(env, level)
	if err != nil {
		return err
	}

	logger, err = config.Build(zap.Fields(zap.String("service", ServiceName)))
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(logger)
	return nil
}

func loggerConfig(env, level string) (zap.Config, error) {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return config, err
		}
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	return config, nil
}

// SetLogger replaces the global logger, e.g. with zaptest or zap.NewNop in tests
func SetLogger(l *zap.Logger) {
	logger = l
	zap.ReplaceGlobals(l)
}

// GetLogger returns the global logger
func GetLogger() *zap.Logger {
	if logger == nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

// SyncLogger flushes any buffered log entries
func SyncLogger() {
	if logger != nil {
		_ = logger.Sync()
	}
}
