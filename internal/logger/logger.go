package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/byshoes/byshoes/internal/version"
)

// Config selects the format and level of the process logger.
type Config struct {
	Env     string // prod: JSON; local, dev, docker: console
	Level   string // debug, info, warn, error; empty keeps the env default
	Command string // serve, parse
}

// New builds the process logger. Every entry carries the service, its version and the
// running command. Crawl runs ("parse") disable sampling so each skipped record is logged.
func New(cfg Config) (*zap.Logger, error) {
	zcfg, err := zapConfig(cfg)
	if err != nil {
		return nil, err
	}
	l, err := zcfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

func zapConfig(cfg Config) (zap.Config, error) {
	var zcfg zap.Config
	switch cfg.Env {
	case "prod":
		zcfg = zap.NewProductionConfig()
	case "local", "dev", "docker":
		zcfg = zap.NewDevelopmentConfig()
	default:
		return zap.Config{}, fmt.Errorf("unknown environment %q for logger", cfg.Env)
	}

	if cfg.Level != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return zap.Config{}, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	zcfg.InitialFields = map[string]any{
		"service": "byshoes",
		"version": version.Version,
	}
	if cfg.Command != "" {
		zcfg.InitialFields["command"] = cfg.Command
	}
	if cfg.Command == "parse" {
		zcfg.Sampling = nil
	}
	return zcfg, nil
}
