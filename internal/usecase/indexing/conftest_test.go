package indexing

import (
	"context"

	"github.com/kailas-cloud/crindex/internal/domain/bulk"
	"github.com/kailas-cloud/crindex/internal/domain/node"
)

// --- Mocks ---

type mockTree struct {
	byPath map[string]*node.Node
	err    error
	calls  int
}

func newMockTree(nodes ...*node.Node) *mockTree {
	t := &mockTree{byPath: make(map[string]*node.Node, len(nodes))}
	for _, n := range nodes {
		t.byPath[n.Path()] = n
	}
	return t
}

func (m *mockTree) Parent(_ context.Context, n *node.Node) (*node.Node, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if n.IsRoot() {
		return nil, nil
	}
	return m.byPath[n.ParentPath()], nil
}

type mockBulker struct {
	bulkFn func(ctx context.Context, ops []bulk.Operation) ([]bulk.Result, error)
	ops    []bulk.Operation
}

func (m *mockBulker) Bulk(ctx context.Context, ops []bulk.Operation) ([]bulk.Result, error) {
	m.ops = append(m.ops, ops...)
	if m.bulkFn != nil {
		return m.bulkFn(ctx, ops)
	}
	results := make([]bulk.Result, len(ops))
	for i, op := range ops {
		results[i] = bulk.NewOK(op.Action(), op.ID())
	}
	return results, nil
}

// --- Fixtures ---

var (
	live      = node.NewWorkspace("live", nil)
	plainType = node.NewType("Content", nil, false, map[string]string{"text": "text"})
	rootType  = node.NewType("Page", []string{"Document"}, true, map[string]string{"title": "h1"})
)

func contentTree() (root, sites, page, text *node.Node) {
	root = node.New("root", "/", live, plainType)
	sites = node.New("sites", "/sites", live, plainType)
	page = node.New("page", "/sites/home", live, rootType, node.WithProperties(map[string]any{"title": "Home"}))
	text = node.New("text", "/sites/home/main/text", live, plainType,
		node.WithProperties(map[string]any{"text": "<p>Foo</p>"}))
	return root, sites, page, text
}
