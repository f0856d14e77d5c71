package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crindex/internal/domain/node"
	"github.com/kailas-cloud/crindex/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/crindex/internal/logger"
	"github.com/kailas-cloud/crindex/internal/metrics"
)

// Query operation labels.
const (
	opSearch        = "search"
	opCount         = "count"
	opCacheLifetime = "cache_lifetime"
)

// Result is a reconciled search result.
type Result struct {
	Nodes        []*node.Node
	Total        int
	Aggregations map[string]any
	Suggestions  map[string]any
}

// Execute runs the request and maps the hits back to nodes. Engine failures
// are logged under a reference code and yield an empty result.
func (b *Builder) Execute(ctx context.Context) (*Result, error) {
	if b.err != nil {
		return nil, b.err
	}
	index, err := b.index()
	if err != nil {
		return nil, err
	}
	raw, ok := b.search(ctx, index, b.req.Map(), opSearch)
	if !ok {
		return b.reconcile(ctx, result.Empty()), nil
	}
	return b.decode(ctx, index, raw), nil
}

// ExecuteCached is Execute backed by the service cache. Responses are cached
// until the next scheduled visibility change among the matched documents, or
// for the default TTL when none is scheduled.
func (b *Builder) ExecuteCached(ctx context.Context) (*Result, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.svc.cache == nil {
		return b.Execute(ctx)
	}
	index, err := b.index()
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(b.req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	key := cacheKey(index, body)

	if raw, ok := b.svc.cache.Get(ctx, key); ok {
		return b.decode(ctx, index, raw), nil
	}

	raw, ok := b.search(ctx, index, b.req.Map(), opSearch)
	if !ok {
		return b.reconcile(ctx, result.Empty()), nil
	}
	resp, err := result.Decode(raw)
	if err != nil {
		b.fail(ctx, opSearch, index, err)
		return b.reconcile(ctx, result.Empty()), nil
	}
	ttl, err := b.CacheLifetime(ctx)
	switch {
	case err != nil:
		b.logger(ctx).Warn("Cache lifetime unknown, result not cached", zap.Error(err))
	case ttl == 0:
		b.svc.cache.Put(ctx, key, raw, b.svc.defaultTTL)
	default:
		b.svc.cache.Put(ctx, key, raw, ttl)
	}
	return b.reconcile(ctx, resp), nil
}

// Count returns the number of matching documents. Engine failures are logged
// under a reference code and count as zero.
func (b *Builder) Count(ctx context.Context) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	index, err := b.index()
	if err != nil {
		return 0, err
	}
	body := b.req.CountMap()
	b.logRequest(ctx, body)

	start := time.Now()
	n, err := b.svc.searcher.Count(ctx, index, body)
	metrics.QueryDuration.WithLabelValues(opCount).Observe(time.Since(start).Seconds())
	if err != nil {
		b.fail(ctx, opCount, index, err)
		return 0, nil
	}
	return n, nil
}

func (b *Builder) index() (string, error) {
	var dims node.Dimensions
	if b.anchor != nil {
		dims = b.anchor.Dimensions()
	}
	return b.svc.names.IndexName(dims)
}

// search runs body and reports whether a response was obtained.
func (b *Builder) search(ctx context.Context, index string, body map[string]any, op string) ([]byte, bool) {
	b.logRequest(ctx, body)

	start := time.Now()
	raw, err := b.svc.searcher.Search(ctx, index, body)
	metrics.QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		b.fail(ctx, op, index, err)
		return nil, false
	}
	return raw, true
}

func (b *Builder) decode(ctx context.Context, index string, raw []byte) *Result {
	resp, err := result.Decode(raw)
	if err != nil {
		b.fail(ctx, opSearch, index, err)
		resp = result.Empty()
	}
	return b.reconcile(ctx, resp)
}

func (b *Builder) reconcile(ctx context.Context, resp *result.Response) *Result {
	workspace := node.LiveWorkspace
	var dims node.Dimensions
	if b.anchor != nil {
		workspace = b.anchor.WorkspaceName()
		dims = b.anchor.Dimensions()
	}
	rec := Reconcile(resp.Hits, b.limit, func(path string) (*node.Node, error) {
		return b.svc.nodes.NodeByPath(ctx, path, workspace, dims)
	})
	b.hits.replace(rec.Hits)

	if len(rec.Unresolved) > 0 {
		metrics.UnresolvedHitsTotal.Add(float64(len(rec.Unresolved)))
		b.logger(ctx).Warn("Search hits could not be resolved to nodes",
			zap.String("workspace", workspace),
			zap.Strings("paths", rec.Unresolved),
		)
	}
	return &Result{
		Nodes:        rec.Nodes,
		Total:        resp.Total,
		Aggregations: resp.Aggregations,
		Suggestions:  resp.Suggest,
	}
}

// logger returns the request-scoped logger when ctx carries one.
func (b *Builder) logger(ctx context.Context) *zap.Logger {
	return logpkg.FromContextOr(ctx, b.svc.logger)
}

func (b *Builder) logRequest(ctx context.Context, body map[string]any) {
	if !b.log {
		return
	}
	data, err := json.Marshal(body)
	if err != nil {
		b.logger(ctx).Warn("Failed to encode request for logging", zap.Error(err))
		return
	}
	b.logger(ctx).Info("Search request", zap.ByteString("request", data))
}

// fail records a query failure in the error log and logs its reference code.
func (b *Builder) fail(ctx context.Context, op, index string, err error) {
	metrics.QueryFailuresTotal.WithLabelValues(op).Inc()
	ref, lerr := b.svc.errs.Log("search query failed", err, map[string]any{
		"op":      op,
		"index":   index,
		"request": b.req.Map(),
	})
	if lerr != nil {
		b.logger(ctx).Warn("Failed to persist query error", zap.Error(lerr))
	}
	b.logger(ctx).Error("Search query failed, returning empty result",
		zap.String("op", op),
		zap.String("index", index),
		zap.String("reference", ref),
		zap.Error(err),
	)
}

func cacheKey(index string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(index))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
