package db

import (
	"context"
	"time"

	"github.com/byshoes/byshoes/internal/domain/product"
	"github.com/byshoes/byshoes/internal/filter"
)

// Store is the product database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	ProductReader
	ProductWriter
	VersionReader
	RunRecorder
	StatsReader
	Close(ctx context.Context) error
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SortField is one sort key; Direction is 1 (ascending) or -1 (descending).
type SortField struct {
	Field     string
	Direction int
}

// FindQuery is a windowed filtered read. Limit 0 means unbounded.
type FindQuery struct {
	Filter filter.Query
	Sort   []SortField
	Skip   int64
	Limit  int64
}

// ProductReader reads product records.
type ProductReader interface {
	Find(ctx context.Context, q FindQuery) ([]product.Product, error)
	Count(ctx context.Context, f filter.Query) (int64, error)
	FindByID(ctx context.Context, id string) (product.Product, error)
}

// ProductWriter appends product records. Records are never updated or deleted.
type ProductWriter interface {
	InsertMany(ctx context.Context, products []product.Product) error
}

// VersionReader answers the crawl-run questions the novelty engine asks.
type VersionReader interface {
	// MaxVersion returns the highest version, 0 for an empty store.
	MaxVersion(ctx context.Context) (int, error)
	// NaturalKeys returns the distinct site+article keys present at version.
	NaturalKeys(ctx context.Context, version int) ([]string, error)
	// IDsByNaturalKey resolves keys at version to record ids, the last inserted record winning.
	IDsByNaturalKey(ctx context.Context, version int, keys []string) ([]string, error)
}

// RunRecorder marks crawl runs as finished. A version is complete once no more
// records will be inserted under it.
type RunRecorder interface {
	CompleteVersion(ctx context.Context, version int) error
	// CompletedVersion returns the highest complete version, 0 when none.
	CompletedVersion(ctx context.Context) (int, error)
}

// StatsReader aggregates the filter statistics of the records matching f.
type StatsReader interface {
	FilterStats(ctx context.Context, f filter.Query) (product.FilterStats, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
