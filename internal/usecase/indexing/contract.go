package indexing

import (
	"context"

	"github.com/kailas-cloud/crindex/internal/domain/bulk"
	"github.com/kailas-cloud/crindex/internal/domain/node"
)

// Tree is the consumer interface for content tree navigation (ISP).
type Tree interface {
	// Parent returns the parent of n, or nil when n has none.
	Parent(ctx context.Context, n *node.Node) (*node.Node, error)
}

// Bulker submits ordered write batches to the search engine.
type Bulker interface {
	Bulk(ctx context.Context, ops []bulk.Operation) ([]bulk.Result, error)
}

// IndexNamer maps a dimension combination to an index name.
type IndexNamer interface {
	IndexName(dims node.Dimensions) (string, error)
}

// IdentifierGenerator derives the document identifier of a node in a workspace.
type IdentifierGenerator interface {
	DocumentID(n *node.Node, workspace string) string
}
