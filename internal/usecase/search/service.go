package search

import (
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crindex/internal/domain/node"
	"github.com/kailas-cloud/crindex/internal/domain/search/request"
)

// DefaultCacheTTL is used for cached results when no visibility change is scheduled.
const DefaultCacheTTL = 5 * time.Minute

// Config tunes the search service.
type Config struct {
	DefaultCacheTTL time.Duration
}

// Service creates query builders bound to the engine and the content tree.
type Service struct {
	searcher   Searcher
	nodes      NodeResolver
	names      IndexNamer
	ids        IdentifierGenerator
	cache      Cache
	errs       ErrorLog
	defaultTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a search service. cache may be nil to disable result caching.
func New(
	searcher Searcher, nodes NodeResolver, names IndexNamer, ids IdentifierGenerator,
	cache Cache, errs ErrorLog, cfg Config, logger *zap.Logger,
) *Service {
	ttl := cfg.DefaultCacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		searcher:   searcher,
		nodes:      nodes,
		names:      names,
		ids:        ids,
		cache:      cache,
		errs:       errs,
		defaultTTL: ttl,
		logger:     logger,
		now:        time.Now,
	}
}

// Builder returns an empty query builder matching all visible documents.
func (s *Service) Builder() *Builder {
	return &Builder{svc: s, req: request.New()}
}

// Query returns a builder restricted to anchor and its descendants in the
// anchor's workspace chain.
func (s *Service) Query(anchor *node.Node) *Builder {
	return s.Builder().Query(anchor)
}
