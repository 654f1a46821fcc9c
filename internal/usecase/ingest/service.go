// Package ingest runs a crawl and stores its records as the next catalog version.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	domproduct "github.com/byshoes/byshoes/internal/domain/product"
	"github.com/byshoes/byshoes/internal/logger"
)

const defaultBatchSize = 100

// SiteReport is the outcome of one site in a run.
type SiteReport struct {
	Site    domproduct.Site
	Stored  int
	Skipped int
	Err     error
}

// Report is the outcome of a run.
type Report struct {
	Version int
	Sites   []SiteReport
}

// Failed returns the sites whose crawl or insert failed.
func (r Report) Failed() []domproduct.Site {
	var out []domproduct.Site
	for _, s := range r.Sites {
		if s.Err != nil {
			out = append(out, s.Site)
		}
	}
	return out
}

// Service runs crawl passes.
type Service struct {
	versions  versionSource
	store     writer
	crawlers  []Crawler
	batchSize int
	records   *prometheus.CounterVec
	now       func() time.Time
	newID     func() string
}

// New creates an ingest service over the given crawlers.
func New(versions versionSource, store writer, crawlers ...Crawler) *Service {
	return &Service{
		versions:  versions,
		store:     store,
		crawlers:  crawlers,
		batchSize: defaultBatchSize,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// WithBatchSize sets how many records go into one insert.
func (s *Service) WithBatchSize(n int) *Service {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// WithMetrics enables per-site record counters labeled "stored" and "skipped".
func (s *Service) WithMetrics(records *prometheus.CounterVec) *Service {
	s.records = records
	return s
}

// Run crawls every site and stores the records as version max+1.
// A failing site does not stop the others; the returned error joins all site failures.
// Once every site is done the version is marked complete, unless ctx was cancelled.
func (s *Service) Run(ctx context.Context) (Report, error) {
	current, err := s.versions.MaxVersion(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("resolve version: %w", err)
	}
	report := Report{Version: current + 1}
	ctx, log := logger.With(ctx, zap.Int("version", report.Version))
	log.Info("Crawl run started", zap.Int("sites", len(s.crawlers)))

	var errs []error
	for _, c := range s.crawlers {
		site := s.runSite(ctx, c, report.Version)
		report.Sites = append(report.Sites, site)
		if site.Err != nil {
			errs = append(errs, fmt.Errorf("site %s: %w", site.Site, site.Err))
		}
		if ctx.Err() != nil {
			break
		}
	}

	if ctx.Err() != nil {
		errs = append(errs, fmt.Errorf("crawl run interrupted: %w", ctx.Err()))
	} else if err := s.store.Complete(ctx, report.Version); err != nil {
		errs = append(errs, fmt.Errorf("complete version: %w", err))
	}

	log.Info("Crawl run finished", zap.Int("failed_sites", len(report.Failed())))
	return report, errors.Join(errs...)
}

func (s *Service) runSite(ctx context.Context, c Crawler, version int) SiteReport {
	site := c.Site()
	ctx, log := logger.With(ctx, zap.String("site", string(site)))
	log.Info("Site crawl started")
	report := SiteReport{Site: site}

	res, err := c.Crawl(ctx)
	if err != nil {
		log.Error("Site crawl failed", zap.Error(err))
		report.Err = err
		return report
	}
	report.Skipped = res.Skipped

	batch := make([]domproduct.Product, 0, s.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.store.Insert(ctx, batch); err != nil {
			return err
		}
		report.Stored += len(batch)
		batch = make([]domproduct.Product, 0, s.batchSize)
		return nil
	}

	for _, p := range res.Products {
		s.stamp(&p, site, version)
		if err := p.Validate(); err != nil {
			log.Warn("Record skipped", zap.String("article", p.Article), zap.String("link", p.Link), zap.Error(err))
			report.Skipped++
			continue
		}
		batch = append(batch, p)
		if len(batch) == s.batchSize {
			if err := flush(); err != nil {
				report.Err = err
				break
			}
		}
	}
	if report.Err == nil {
		report.Err = flush()
	}

	s.count(site, "stored", report.Stored)
	s.count(site, "skipped", report.Skipped)
	if report.Err != nil {
		log.Error("Site records not stored", zap.Int("stored", report.Stored), zap.Error(report.Err))
		return report
	}
	log.Info("Site crawl finished", zap.Int("stored", report.Stored), zap.Int("skipped", report.Skipped))
	return report
}

// stamp assigns the storage identity of a freshly scraped record.
func (s *Service) stamp(p *domproduct.Product, site domproduct.Site, version int) {
	p.ID = s.newID()
	p.Parsed = s.now()
	p.Version = version
	if p.Site == "" {
		p.Site = site
	}
	p.Normalize()
}

func (s *Service) count(site domproduct.Site, result string, n int) {
	if s.records != nil && n > 0 {
		s.records.WithLabelValues(string(site), result).Add(float64(n))
	}
}
