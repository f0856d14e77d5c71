package indexing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crindex/internal/domain/bulk"
	"github.com/kailas-cloud/crindex/internal/domain/fulltext"
	"github.com/kailas-cloud/crindex/internal/domain/node"
)

// FulltextBuilder turns a node's fulltext contribution into a merge-update
// of its fulltext root's document.
type FulltextBuilder struct {
	resolver *RootResolver
	names    IndexNamer
	ids      IdentifierGenerator
	retry    int
	logger   *zap.Logger
}

// NewFulltextBuilder creates a builder. retryOnConflict <= 0 uses bulk.DefaultRetryOnConflict.
func NewFulltextBuilder(
	resolver *RootResolver, names IndexNamer, ids IdentifierGenerator,
	retryOnConflict int, logger *zap.Logger,
) *FulltextBuilder {
	if retryOnConflict <= 0 {
		retryOnConflict = bulk.DefaultRetryOnConflict
	}
	return &FulltextBuilder{resolver: resolver, names: names, ids: ids, retry: retryOnConflict, logger: logger}
}

// Operation returns the update that records text as n's part of its fulltext
// root. ok is false when there is nothing to write: no root, or a removed root.
func (b *FulltextBuilder) Operation(
	ctx context.Context, n *node.Node, text fulltext.Text, targetWorkspace string,
) (op bulk.Operation, ok bool, err error) {
	root, err := b.resolver.Resolve(ctx, n)
	if err != nil {
		return bulk.Operation{}, false, fmt.Errorf("resolve fulltext root: %w", err)
	}
	if root == nil {
		return bulk.Operation{}, false, nil
	}
	if root.IsRemoved() {
		b.logger.Debug("Fulltext root removed, skipping part update",
			zap.String("root", root.Path()),
			zap.String("contributor", n.Path()),
		)
		return bulk.Operation{}, false, nil
	}

	index, err := b.names.IndexName(root.Dimensions())
	if err != nil {
		return bulk.Operation{}, false, err
	}

	update := fulltext.NewUpdate(n.Identifier(), text, n.IsRemoved(), n.IsHidden())
	id := b.ids.DocumentID(root, targetWorkspace)
	return bulk.NewUpdate(index, id, fulltext.NewPartMerge(update), b.retry), true, nil
}
