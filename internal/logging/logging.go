// Package logging builds the process-wide zap logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects level, encoding and development mode.
type Config struct {
	Level       string
	Development bool
	Encoding    string // "json" or "console"
}

// New builds a logger from cfg. Empty fields fall back to info level and the
// production JSON encoder.
func New(cfg Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	switch cfg.Encoding {
	case "":
	case "json", "console":
		zcfg.Encoding = cfg.Encoding
	default:
		return nil, fmt.Errorf("unknown log encoding %q", cfg.Encoding)
	}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}
