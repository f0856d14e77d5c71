package engine

import (
	"context"

	"github.com/kailas-cloud/crindex/internal/domain/bulk"
)

// Bulker submits an ordered batch of write operations. The returned results
// have one entry per operation in input order. A non-nil error means the
// batch as a whole could not be submitted.
type Bulker interface {
	Bulk(ctx context.Context, ops []bulk.Operation) ([]bulk.Result, error)
}

// Searcher runs search and count requests against one index.
type Searcher interface {
	Search(ctx context.Context, index string, body map[string]any) ([]byte, error)
	Count(ctx context.Context, index string, body map[string]any) (int, error)
}

// Pinger checks engine connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
