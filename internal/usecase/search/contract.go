package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/crindex/internal/domain/node"
)

// Searcher runs raw requests against the engine.
type Searcher interface {
	Search(ctx context.Context, index string, body map[string]any) ([]byte, error)
	Count(ctx context.Context, index string, body map[string]any) (int, error)
}

// NodeResolver maps an indexed node path back to a content node in a
// workspace and dimension context.
type NodeResolver interface {
	NodeByPath(ctx context.Context, path, workspace string, dims node.Dimensions) (*node.Node, error)
}

// IndexNamer maps a dimension combination to an index name.
type IndexNamer interface {
	IndexName(dims node.Dimensions) (string, error)
}

// IdentifierGenerator derives the document identifier of a node.
type IdentifierGenerator interface {
	DocumentID(n *node.Node, workspace string) string
}

// Cache stores raw engine responses. Implementations degrade failures to misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// ErrorLog persists failure details and returns a reference code.
type ErrorLog interface {
	Log(message string, err error, context map[string]any) (string, error)
}
