package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/byshoes/byshoes/internal/domain"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// FetchConfig controls pacing and retries of one site's HTTP client.
type FetchConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	MinBackoff time.Duration
	MaxBackoff time.Duration
	Rate       float64 // requests per second, 0 = unlimited
	Burst      int
}

// Fetcher downloads and parses HTML pages of a single site.
type Fetcher struct {
	site    string
	baseURL string
	http    *resty.Client
	pages   *prometheus.CounterVec
}

// NewFetcher builds a paced, retrying client for site.
// Any non-200 answer or transport error is retried with exponential backoff
// up to cfg.MaxRetries times. pages and retries may be nil.
func NewFetcher(site string, cfg FetchConfig, pages, retries *prometheus.CounterVec) *Fetcher {
	httpClient := resty.New()
	httpClient.SetBaseURL(cfg.BaseURL)
	httpClient.SetHeader("user-agent", userAgent)
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}
	httpClient.SetRetryCount(cfg.MaxRetries)
	if cfg.MinBackoff > 0 {
		httpClient.SetRetryWaitTime(cfg.MinBackoff)
	}
	if cfg.MaxBackoff > 0 {
		httpClient.SetRetryMaxWaitTime(cfg.MaxBackoff)
	}
	httpClient.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() != http.StatusOK
	})
	if retries != nil {
		httpClient.AddRetryHook(func(_ *resty.Response, _ error) {
			retries.WithLabelValues(site).Inc()
		})
	}

	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(limit, burst)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	return &Fetcher{site: site, baseURL: cfg.BaseURL, http: httpClient, pages: pages}
}

// BaseURL returns the site root the fetcher resolves paths against.
func (f *Fetcher) BaseURL() string { return f.baseURL }

// Document fetches path and parses it as HTML. Exhausted retries surface as domain.ErrFetchFailed.
func (f *Fetcher) Document(ctx context.Context, path string) (*goquery.Document, error) {
	res, err := f.http.R().SetContext(ctx).Get(path)
	if err != nil {
		f.count("error")
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("fetch %s: %w: %w", path, domain.ErrFetchFailed, err)
	}
	if res.StatusCode() != http.StatusOK {
		f.count("error")
		return nil, fmt.Errorf("fetch %s: status %d: %w", path, res.StatusCode(), domain.ErrFetchFailed)
	}
	f.count("ok")

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

func (f *Fetcher) count(status string) {
	if f.pages != nil {
		f.pages.WithLabelValues(f.site, status).Inc()
	}
}
