package metrics

import "github.com/prometheus/client_golang/prometheus"

// Novelty cache and crawl Prometheus metrics.
var (
	NoveltyCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "byshoes",
			Name:      "novelty_cache_total",
			Help:      "Novelty set cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	CrawlPagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "byshoes",
			Name:      "crawl_pages_total",
			Help:      "Pages fetched by the crawler",
		},
		[]string{"site", "status"}, // "ok" / "error"
	)

	CrawlRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "byshoes",
			Name:      "crawl_retries_total",
			Help:      "Fetch retries issued by the crawler",
		},
		[]string{"site"},
	)

	CrawlRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "byshoes",
			Name:      "crawl_records_total",
			Help:      "Scraped records by outcome",
		},
		[]string{"site", "result"}, // "stored" / "skipped"
	)
)

var (
	cacheMetricsRegistered bool
	crawlMetricsRegistered bool
)

// RegisterCacheMetrics registers the novelty cache metrics. Must be called once from main.
func RegisterCacheMetrics() {
	if cacheMetricsRegistered {
		return
	}
	prometheus.MustRegister(NoveltyCacheTotal)
	cacheMetricsRegistered = true
}

// RegisterCrawlMetrics registers the crawler metrics. Must be called once from main.
func RegisterCrawlMetrics() {
	if crawlMetricsRegistered {
		return
	}
	prometheus.MustRegister(CrawlPagesTotal)
	prometheus.MustRegister(CrawlRetriesTotal)
	prometheus.MustRegister(CrawlRecordsTotal)
	crawlMetricsRegistered = true
}
