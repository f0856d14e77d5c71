package search

import (
	"github.com/kailas-cloud/crindex/internal/domain/node"
	"github.com/kailas-cloud/crindex/internal/domain/search/result"
)

// ResolveFunc maps a node path from a hit to a content node.
type ResolveFunc func(path string) (*node.Node, error)

// Reconciled is the outcome of mapping engine hits back to nodes.
type Reconciled struct {
	Nodes      []*node.Node
	Hits       map[string]result.Hit // keyed by node identifier
	Unresolved []string              // node paths, or hit ids for hits without a path
}

// Reconcile walks hits in engine order and returns at most limit distinct
// nodes (no bound when limit <= 0). Each workspace layer may hold its own copy
// of a node, so the first hit per node identifier wins and later ones are
// skipped. Hits that do not resolve to a live node are reported, not returned.
//
// Reconcile does not filter nodes whose match came from a layer that another
// layer overrides; callers overfetch by workspace depth instead.
func Reconcile(hits []result.Hit, limit int, resolve ResolveFunc) Reconciled {
	out := Reconciled{Hits: make(map[string]result.Hit)}
	for _, h := range hits {
		if limit > 0 && len(out.Nodes) >= limit {
			break
		}
		path, ok := h.NodePath()
		if !ok {
			out.Unresolved = append(out.Unresolved, h.ID())
			continue
		}
		n, err := resolve(path)
		if err != nil || n == nil || n.IsRemoved() {
			out.Unresolved = append(out.Unresolved, path)
			continue
		}
		if _, seen := out.Hits[n.Identifier()]; seen {
			continue
		}
		out.Hits[n.Identifier()] = h
		out.Nodes = append(out.Nodes, n)
	}
	return out
}
