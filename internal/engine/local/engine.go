package local

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/crindex/internal/domain"
	"github.com/kailas-cloud/crindex/internal/domain/bulk"
	"github.com/kailas-cloud/crindex/internal/engine"
)

// Compile-time checks.
var (
	_ engine.Bulker = (*Engine)(nil)
	_ engine.Pinger = (*Engine)(nil)
)

type storedDoc struct {
	source map[string]any
	seqNo  int64
}

// Engine is an in-process document store that executes merges with the same
// optimistic concurrency contract as a remote engine: read, merge, then
// compare-and-swap on the sequence number, retrying up to the operation's
// retry bound.
type Engine struct {
	mu      sync.Mutex
	indices map[string]map[string]storedDoc
	seqNo   int64

	// beforeCommit runs between merge and compare-and-swap; tests use it to inject races.
	beforeCommit func(index, id string)
}

// New creates an empty engine.
func New() *Engine {
	return &Engine{indices: make(map[string]map[string]storedDoc)}
}

// Ping always succeeds.
func (e *Engine) Ping(context.Context) error { return nil }

// Bulk applies operations in order. Entry failures never stop the batch.
func (e *Engine) Bulk(ctx context.Context, ops []bulk.Operation) ([]bulk.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, engine.Transport(engine.OpBulk, 0, err)
	}

	results := make([]bulk.Result, len(ops))
	for i, op := range ops {
		switch op.Action() {
		case bulk.ActionIndex:
			e.put(op.Index(), op.ID(), cloneSource(op.Body()))
			results[i] = bulk.NewOK(op.Action(), op.ID())
		case bulk.ActionDelete:
			e.remove(op.Index(), op.ID())
			results[i] = bulk.NewOK(op.Action(), op.ID())
		case bulk.ActionUpdate:
			results[i] = e.update(op)
		default:
			results[i] = bulk.NewError(op.Action(), op.ID(),
				domain.NewConfigurationError("unsupported bulk action %q", op.Action()))
		}
	}
	return results, nil
}

func (e *Engine) update(op bulk.Operation) bulk.Result {
	attempts := 1 + op.RetryOnConflict()
	for attempt := 0; attempt < attempts; attempt++ {
		existing, seqNo, found := e.snapshot(op.Index(), op.ID())

		var next map[string]any
		if found {
			merged, err := op.Merge().Apply(existing)
			if err != nil {
				return bulk.NewError(op.Action(), op.ID(), fmt.Errorf("apply merge: %w", err))
			}
			next = merged
		} else {
			next = cloneSource(op.Merge().Upsert())
		}

		if e.beforeCommit != nil {
			e.beforeCommit(op.Index(), op.ID())
		}
		if e.compareAndSwap(op.Index(), op.ID(), seqNo, found, next) {
			return bulk.NewOK(op.Action(), op.ID())
		}
	}
	return bulk.NewError(op.Action(), op.ID(), engine.Conflict(engine.OpBulk,
		&domain.ConflictError{DocumentID: op.ID(), Attempts: attempts}))
}

// Get returns a copy of a stored document source.
func (e *Engine) Get(index, id string) (map[string]any, bool) {
	src, _, ok := e.snapshot(index, id)
	return src, ok
}

// Len returns the number of documents in an index.
func (e *Engine) Len(index string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.indices[index])
}

func (e *Engine) snapshot(index, id string) (map[string]any, int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.indices[index][id]
	if !ok {
		return nil, 0, false
	}
	return cloneSource(d.source), d.seqNo, true
}

func (e *Engine) put(index, id string, source map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.putLocked(index, id, source)
}

func (e *Engine) putLocked(index, id string, source map[string]any) {
	docs, ok := e.indices[index]
	if !ok {
		docs = make(map[string]storedDoc)
		e.indices[index] = docs
	}
	e.seqNo++
	docs[id] = storedDoc{source: source, seqNo: e.seqNo}
}

func (e *Engine) remove(index, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.indices[index], id)
}

func (e *Engine) compareAndSwap(index, id string, seqNo int64, existed bool, source map[string]any) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur, ok := e.indices[index][id]
	if ok != existed || (ok && cur.seqNo != seqNo) {
		return false
	}
	e.putLocked(index, id, source)
	return true
}

// cloneSource copies the top level of a source; merges never mutate nested values in place.
func cloneSource(src map[string]any) map[string]any {
	if src == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
