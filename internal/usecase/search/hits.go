package search

import (
	"sync"

	"github.com/kailas-cloud/crindex/internal/domain/node"
	"github.com/kailas-cloud/crindex/internal/domain/search/result"
)

// hitIndex keeps the raw hit of each node returned by the last execution.
type hitIndex struct {
	mu     sync.RWMutex
	byNode map[string]result.Hit
}

func (h *hitIndex) replace(hits map[string]result.Hit) {
	h.mu.Lock()
	h.byNode = hits
	h.mu.Unlock()
}

func (h *hitIndex) get(identifier string) (result.Hit, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	hit, ok := h.byNode[identifier]
	return hit, ok
}

// HitForNode returns the raw engine hit n was resolved from in the last execution.
func (b *Builder) HitForNode(n *node.Node) (result.Hit, bool) {
	return b.hits.get(n.Identifier())
}

// SortValuesForNode returns the sort values of n's hit, or nil.
func (b *Builder) SortValuesForNode(n *node.Node) []any {
	hit, ok := b.HitForNode(n)
	if !ok {
		return nil
	}
	return hit.Sort()
}

// HitValue returns the value at a dotted path inside n's hit, e.g. "highlight.cr_fulltext.text".
func (b *Builder) HitValue(n *node.Node, path string) (any, bool) {
	hit, ok := b.HitForNode(n)
	if !ok {
		return nil, false
	}
	return hit.Value(path)
}
