package ingest

import (
	"context"

	"github.com/byshoes/byshoes/internal/crawler"
	domproduct "github.com/byshoes/byshoes/internal/domain/product"
)

// Crawler scrapes one site.
type Crawler interface {
	Site() domproduct.Site
	Crawl(ctx context.Context) (crawler.Result, error)
}

// versionSource is the consumer interface for the current max version (ISP).
type versionSource interface {
	MaxVersion(ctx context.Context) (int, error)
}

// writer stores batches of records and marks the run finished.
type writer interface {
	Insert(ctx context.Context, products []domproduct.Product) error
	Complete(ctx context.Context, version int) error
}
