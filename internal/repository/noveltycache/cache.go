// Package noveltycache stores the novelty id set of a version in a key-value store.
package noveltycache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/byshoes/byshoes/internal/db"
	"github.com/byshoes/byshoes/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "newest:"

// store is the consumer interface for the novelty cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache keeps novelty sets keyed by version. Callers store only versions whose
// crawl run has completed, so an entry is final; the TTL only bounds memory.
type Cache struct {
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Get returns the cached novelty ids of version. Errors are logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, version int) ([]string, bool) {
	key := cacheKey(version)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached novelty set", zap.String("key", key), zap.Error(err))
		}
		c.incCache("miss")
		return nil, false
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		c.logger.Warn("Failed to parse cached novelty set", zap.String("key", key), zap.Error(err))
		c.incCache("miss")
		return nil, false
	}
	if ids == nil {
		ids = []string{}
	}
	c.incCache("hit")
	return ids, true
}

// Put stores the novelty ids of version. Failures are logged, never returned.
func (c *Cache) Put(ctx context.Context, version int, ids []string) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		c.logger.Warn("Failed to encode novelty set", zap.Int("version", version), zap.Error(err))
		return
	}
	key := cacheKey(version)
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache novelty set", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(version int) string {
	return cacheKeyPrefix + strconv.Itoa(version)
}
