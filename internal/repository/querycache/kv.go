package querycache

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/crindex/internal/db"
)

// DefaultKeyPrefix namespaces query-result keys in a shared store.
const DefaultKeyPrefix = "crindex:query:"

// store is the consumer interface for the shared query cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// KV caches query results in a key-value store shared between instances.
// Store failures degrade to cache misses.
type KV struct {
	store      store
	prefix     string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// NewKV creates a store-backed cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func NewKV(s store, prefix string, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *KV {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &KV{store: s, prefix: prefix, cacheTotal: cacheTotal, logger: logger}
}

// Get returns a cached value.
func (c *KV) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.store.Get(ctx, c.prefix+key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read cached query result", zap.String("key", key), zap.Error(err))
		}
		incCache(c.cacheTotal, "miss")
		return nil, false
	}
	if len(data) == 0 {
		incCache(c.cacheTotal, "miss")
		return nil, false
	}
	incCache(c.cacheTotal, "hit")
	return data, true
}

// Put stores a value for ttl. Non-positive lifetimes are not cached.
func (c *KV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.store.SetWithTTL(ctx, c.prefix+key, value, ttl); err != nil {
		c.logger.Warn("Failed to cache query result", zap.String("key", key), zap.Error(err))
	}
}

func incCache(counter *prometheus.CounterVec, result string) {
	if counter != nil {
		counter.WithLabelValues(result).Inc()
	}
}
