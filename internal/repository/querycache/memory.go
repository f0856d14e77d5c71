package querycache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultNumCounters = 1e5
	defaultMaxCost     = 64 << 20 // bytes
	defaultBufferItems = 64
)

// MemoryConfig configures the in-process cache.
type MemoryConfig struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
}

func (c MemoryConfig) withDefaults() MemoryConfig {
	if c.NumCounters <= 0 {
		c.NumCounters = defaultNumCounters
	}
	if c.MaxCost <= 0 {
		c.MaxCost = defaultMaxCost
	}
	if c.BufferItems <= 0 {
		c.BufferItems = defaultBufferItems
	}
	return c
}

// Memory caches query results in process memory. Cost is the value size in bytes.
type Memory struct {
	cache      *ristretto.Cache
	cacheTotal *prometheus.CounterVec
}

// NewMemory creates an in-process cache.
func NewMemory(cfg MemoryConfig, cacheTotal *prometheus.CounterVec) (*Memory, error) {
	cfg = cfg.withDefaults()
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("create memory cache: %w", err)
	}
	return &Memory{cache: cache, cacheTotal: cacheTotal}, nil
}

// Get returns a cached value.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.cache.Get(key)
	if !ok {
		incCache(m.cacheTotal, "miss")
		return nil, false
	}
	data, ok := v.([]byte)
	if !ok {
		incCache(m.cacheTotal, "miss")
		return nil, false
	}
	incCache(m.cacheTotal, "hit")
	return data, true
}

// Put stores a value for ttl. Non-positive lifetimes are not cached.
func (m *Memory) Put(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.cache.SetWithTTL(key, value, int64(len(value)), ttl)
	m.cache.Wait()
}

// Close stops the cache's background goroutines.
func (m *Memory) Close() {
	m.cache.Close()
}
