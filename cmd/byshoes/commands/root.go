// Package commands holds the byshoes command line: the HTTP API and the crawler.
package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/byshoes/byshoes/internal/config"
	"github.com/byshoes/byshoes/internal/db"
	"github.com/byshoes/byshoes/internal/db/memory"
	dbMongo "github.com/byshoes/byshoes/internal/db/mongo"
	logpkg "github.com/byshoes/byshoes/internal/logger"
	"github.com/byshoes/byshoes/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "byshoes",
	Short:         "byshoes serves and refreshes a catalog of sneakers scraped from Belarusian shops.",
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var envFlag *string

func init() {
	envFlag = rootCmd.PersistentFlags().String("env", "", "Config environment (local, dev, prod). Defaults to $ENV or local.")
}

// ExecuteContext runs the root command and exits non-zero on failure.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the process logger for command.
func bootstrap(command string) (config.Config, *zap.Logger, string, error) {
	env := *envFlag
	if env == "" {
		env = config.GetEnv()
	}

	cfg, err := config.Load(env)
	if err != nil {
		return config.Config{}, nil, "", fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(logpkg.Config{Env: env, Level: cfg.Logging.Level, Command: command})
	if err != nil {
		return config.Config{}, nil, "", fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, env, nil
}

// openStore creates the product store for the configured driver and waits for it.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case "mongo":
		store, err = dbMongo.NewStore(dbMongo.Config{
			URI:          cfg.URI,
			Database:     cfg.Database,
			Collection:   cfg.Collection,
			QueryTimeout: time.Duration(cfg.QueryTimeoutSec) * time.Second,
		})
	case "memory":
		store = memory.NewStore()
	default:
		err = fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		_ = store.Close(context.Background())
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	return store, nil
}
