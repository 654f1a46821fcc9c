package commands

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/byshoes/byshoes/internal/config"
	"github.com/byshoes/byshoes/internal/crawler"
	"github.com/byshoes/byshoes/internal/crawler/allstars"
	"github.com/byshoes/byshoes/internal/crawler/multisports"
	domproduct "github.com/byshoes/byshoes/internal/domain/product"
	logpkg "github.com/byshoes/byshoes/internal/logger"
	"github.com/byshoes/byshoes/internal/metrics"
	productrepo "github.com/byshoes/byshoes/internal/repository/product"
	"github.com/byshoes/byshoes/internal/usecase/ingest"
)

var parseSites *[]string

func init() {
	parseSites = parseCmd.Flags().StringSlice("site", domproduct.Sites(), "Sites to crawl.")
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse [--site allstars,multisports]",
	Short: "Crawls the shops and stores the results as a new catalog version.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return parse(cmd.Context(), *parseSites)
	},
}

func parse(ctx context.Context, sites []string) error {
	cfg, logger, env, err := bootstrap("parse")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	crawlers, err := buildCrawlers(cfg.Crawler, sites)
	if err != nil {
		return err
	}

	logger.Info("Starting crawl",
		zap.String("env", env),
		zap.Strings("sites", sites),
		zap.Float64("rate", cfg.Crawler.Rate),
		zap.Int("concurrency", cfg.Crawler.Concurrency),
	)

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(context.Background()) }()

	metrics.RegisterCrawlMetrics()
	svc := ingest.New(store, productrepo.New(store), crawlers...).
		WithBatchSize(cfg.Crawler.BatchSize).
		WithMetrics(metrics.CrawlRecordsTotal)

	report, err := svc.Run(logpkg.ContextWithLogger(ctx, logger))
	for _, s := range report.Sites {
		logger.Info("Site crawled",
			zap.String("site", string(s.Site)),
			zap.Int("stored", s.Stored),
			zap.Int("skipped", s.Skipped),
			zap.Error(s.Err),
		)
	}
	if err != nil {
		return fmt.Errorf("crawl version %d: %w", report.Version, err)
	}

	logger.Info("Crawl finished", zap.Int("version", report.Version))
	return nil
}

// buildCrawlers creates one crawler per requested site, in the order given.
func buildCrawlers(cfg config.CrawlerConfig, sites []string) ([]ingest.Crawler, error) {
	if len(sites) == 0 {
		return nil, fmt.Errorf("no sites to crawl")
	}

	out := make([]ingest.Crawler, 0, len(sites))
	var seen []string
	for _, name := range sites {
		if slices.Contains(seen, name) {
			continue
		}
		seen = append(seen, name)
		siteCfg := cfg.Sites[name]

		var (
			site    crawler.Site
			baseURL string
		)
		switch domproduct.Site(name) {
		case domproduct.SiteAllstars:
			site, baseURL = allstars.New(siteCfg.StartPaths...), allstars.BaseURL
		case domproduct.SiteMultisports:
			site, baseURL = multisports.New(siteCfg.StartPaths...), multisports.BaseURL
		default:
			return nil, fmt.Errorf("unknown site %q, want one of %v", name, domproduct.Sites())
		}
		if siteCfg.BaseURL != "" {
			baseURL = siteCfg.BaseURL
		}

		fetcher := crawler.NewFetcher(name, crawler.FetchConfig{
			BaseURL:    baseURL,
			Timeout:    cfg.RequestTimeout,
			MaxRetries: cfg.MaxRetries,
			MinBackoff: cfg.MinBackoff,
			MaxBackoff: cfg.MaxBackoff,
			Rate:       cfg.Rate,
			Burst:      cfg.Burst,
		}, metrics.CrawlPagesTotal, metrics.CrawlRetriesTotal)

		out = append(out, crawler.New(site, fetcher, cfg.Concurrency))
	}
	return out, nil
}
