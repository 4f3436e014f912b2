// Package logging builds the zap logger used by the recordkit CLI.
package logging

import (
	"go.uber.org/zap"

	"github.com/conduit-lang/recordkit/internal/config"
)

// New builds a logger from cfg. Development loggers write console output
// with caller and stack information; production loggers write JSON.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := cfg.ZapLevel()
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}

// OrNop is like New but falls back to a no-op logger when cfg is invalid
func OrNop(cfg config.LogConfig) *zap.Logger {
	logger, err := New(cfg)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
