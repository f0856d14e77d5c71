package indexing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crindex/internal/domain/node"
)

// DefaultTopLevelContainers are paths above any fulltext root by construction.
var DefaultTopLevelContainers = []string{"/sites"}

// RootResolver finds the fulltext root a node contributes to.
type RootResolver struct {
	tree   Tree
	silent map[string]struct{}
	logger *zap.Logger
}

// NewRootResolver creates a resolver. No warning is logged for the repository
// root or for the given top-level containers when they have no fulltext root.
func NewRootResolver(tree Tree, topLevelContainers []string, logger *zap.Logger) *RootResolver {
	silent := map[string]struct{}{node.RootPath: {}}
	for _, p := range topLevelContainers {
		silent[p] = struct{}{}
	}
	return &RootResolver{tree: tree, silent: silent, logger: logger}
}

// Resolve returns n if its type is a fulltext root, otherwise the closest
// ancestor that is. It returns nil when the ancestor chain has none.
func (r *RootResolver) Resolve(ctx context.Context, n *node.Node) (*node.Node, error) {
	for cur := n; cur != nil; {
		if cur.Type().IsFulltextRoot() {
			return cur, nil
		}
		parent, err := r.tree.Parent(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("parent of %s: %w", cur.Path(), err)
		}
		cur = parent
	}

	if _, ok := r.silent[n.Path()]; !ok {
		r.logger.Warn("No fulltext root found",
			zap.String("path", n.Path()),
			zap.String("identifier", n.Identifier()),
			zap.String("workspace", n.WorkspaceName()),
		)
	}
	return nil, nil
}
