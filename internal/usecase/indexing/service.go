package indexing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crindex/internal/domain/bulk"
	"github.com/kailas-cloud/crindex/internal/domain/fulltext"
	"github.com/kailas-cloud/crindex/internal/domain/node"
	"github.com/kailas-cloud/crindex/internal/metrics"
)

// Change is one content change to mirror into the index. TargetWorkspace
// overrides the node's workspace, e.g. when publishing; empty keeps it.
type Change struct {
	Node            *node.Node
	TargetWorkspace string
}

// Config tunes the indexing service.
type Config struct {
	TopLevelContainers []string
	RetryOnConflict    int
}

// Service turns content changes into bulk operations and submits them.
type Service struct {
	fulltext *FulltextBuilder
	names    IndexNamer
	ids      IdentifierGenerator
	bulker   Bulker
	retry    int
	logger   *zap.Logger
}

// New creates an indexing service.
func New(tree Tree, bulker Bulker, names IndexNamer, ids IdentifierGenerator, cfg Config, logger *zap.Logger) *Service {
	containers := cfg.TopLevelContainers
	if containers == nil {
		containers = DefaultTopLevelContainers
	}
	retry := cfg.RetryOnConflict
	if retry <= 0 {
		retry = bulk.DefaultRetryOnConflict
	}
	resolver := NewRootResolver(tree, containers, logger)
	return &Service{
		fulltext: NewFulltextBuilder(resolver, names, ids, retry, logger),
		names:    names,
		ids:      ids,
		bulker:   bulker,
		retry:    retry,
		logger:   logger,
	}
}

// Operations builds the bulk operations for changes in order. Each change
// yields its document write followed by its fulltext part update, if any.
func (s *Service) Operations(ctx context.Context, changes []Change) ([]bulk.Operation, error) {
	ops := make([]bulk.Operation, 0, 2*len(changes))
	for _, c := range changes {
		if c.Node == nil {
			continue
		}
		n := c.Node

		index, err := s.names.IndexName(n.Dimensions())
		if err != nil {
			return nil, err
		}
		ops = append(ops, documentOperation(index, s.ids.DocumentID(n, c.TargetWorkspace), n, c.TargetWorkspace, s.retry))

		op, ok, err := s.fulltext.Operation(ctx, n, fulltext.Extract(n), c.TargetWorkspace)
		if err != nil {
			return nil, fmt.Errorf("fulltext of %s: %w", n.Path(), err)
		}
		if ok {
			ops = append(ops, op)
		}
	}
	return ops, nil
}

// Index builds and submits the operations for changes. It returns one result
// per submitted operation in order. A batch that cannot be submitted fails
// every entry; an error is returned only when operations cannot be built.
func (s *Service) Index(ctx context.Context, changes []Change) ([]bulk.Result, error) {
	ops, err := s.Operations(ctx, changes)
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, nil
	}

	results, err := s.bulker.Bulk(ctx, ops)
	if err != nil {
		metrics.BulkRequestsTotal.WithLabelValues("error").Inc()
		s.logger.Error("Bulk submission failed", zap.Int("operations", len(ops)), zap.Error(err))
		results = bulk.FailAll(ops, fmt.Errorf("submit bulk: %w", err))
	} else {
		metrics.BulkRequestsTotal.WithLabelValues("ok").Inc()
	}

	for _, r := range results {
		metrics.BulkEntriesTotal.WithLabelValues(string(r.Action()), string(r.Status())).Inc()
	}
	if failed := bulk.Failed(results); failed > 0 {
		s.logger.Warn("Bulk entries failed", zap.Int("failed", failed), zap.Int("total", len(results)))
	}
	return results, nil
}
