package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dbRedis "github.com/byshoes/byshoes/internal/db/redis"
	filtermongo "github.com/byshoes/byshoes/internal/filter/mongo"
	"github.com/byshoes/byshoes/internal/metrics"
	"github.com/byshoes/byshoes/internal/repository/noveltycache"
	productrepo "github.com/byshoes/byshoes/internal/repository/product"
	chiTransport "github.com/byshoes/byshoes/internal/transport/chi"
	healthuc "github.com/byshoes/byshoes/internal/usecase/health"
	noveltyuc "github.com/byshoes/byshoes/internal/usecase/novelty"
	productuc "github.com/byshoes/byshoes/internal/usecase/product"
	"github.com/byshoes/byshoes/internal/version"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the catalog HTTP API.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	cfg, logger, env, err := bootstrap("serve")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting byshoes API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("cache", cfg.Cache.Enabled()),
	)

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(context.Background()) }()
	logger.Info("Connected to database")

	novelty := noveltyuc.New(store)

	// A nil interface, not a typed nil pointer, disables the cache probe.
	var cachePinger healthuc.Pinger
	if cfg.Cache.Enabled() {
		kv, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			return fmt.Errorf("create cache: %w", err)
		}
		defer kv.Close()

		metrics.RegisterCacheMetrics()
		ttl := time.Duration(cfg.Cache.NoveltyTTLSec) * time.Second
		novelty = novelty.WithCache(noveltycache.New(kv, ttl, metrics.NoveltyCacheTotal, logger))
		cachePinger = kv
		logger.Info("Novelty cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	products := productuc.New(
		productrepo.New(store),
		novelty,
		productuc.NewFilters(filtermongo.New()),
		productuc.NewOrdering(),
	).WithPagination(cfg.Pagination.DefaultPageSize, cfg.Pagination.MaxPageSize)

	server := chiTransport.NewServer(products, healthuc.New(store, cachePinger))

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case <-ctx.Done():
		logger.Info("Context cancelled")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
