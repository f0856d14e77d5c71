package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crindex/internal/domain"
	"github.com/kailas-cloud/crindex/internal/domain/node"
)

// --- Mocks ---

type mockSearcher struct {
	mu       sync.Mutex
	searchFn func(ctx context.Context, index string, body map[string]any) ([]byte, error)
	countFn  func(ctx context.Context, index string, body map[string]any) (int, error)
	bodies   []map[string]any
	indexes  []string
}

func (m *mockSearcher) Search(ctx context.Context, index string, body map[string]any) ([]byte, error) {
	m.mu.Lock()
	m.bodies = append(m.bodies, body)
	m.indexes = append(m.indexes, index)
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, index, body)
	}
	return []byte(`{"hits":{"total":{"value":0},"hits":[]}}`), nil
}

func (m *mockSearcher) Count(ctx context.Context, index string, body map[string]any) (int, error) {
	m.mu.Lock()
	m.bodies = append(m.bodies, body)
	m.mu.Unlock()
	if m.countFn != nil {
		return m.countFn(ctx, index, body)
	}
	return 0, nil
}

func (m *mockSearcher) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bodies)
}

type mockNodes struct {
	byPath map[string]*node.Node
}

func (m *mockNodes) NodeByPath(_ context.Context, path, _ string, _ node.Dimensions) (*node.Node, error) {
	if n, ok := m.byPath[path]; ok {
		return n, nil
	}
	return nil, fmt.Errorf("node %s: %w", path, domain.ErrNotFound)
}

type mockNamer struct {
	err error
}

func (m mockNamer) IndexName(dims node.Dimensions) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "crindex-" + dims.Hash(), nil
}

type mockIDs struct{}

func (mockIDs) DocumentID(n *node.Node, _ string) string { return "doc-" + n.Identifier() }

type cacheEntry struct {
	value []byte
	ttl   time.Duration
}

type mockCache struct {
	entries map[string]cacheEntry
}

func newMockCache() *mockCache { return &mockCache{entries: map[string]cacheEntry{}} }

func (m *mockCache) Get(_ context.Context, key string) ([]byte, bool) {
	e, ok := m.entries[key]
	return e.value, ok
}

func (m *mockCache) Put(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.entries[key] = cacheEntry{value: value, ttl: ttl}
}

type mockErrorLog struct {
	errs []error
}

func (m *mockErrorLog) Log(_ string, err error, _ map[string]any) (string, error) {
	m.errs = append(m.errs, err)
	return "20260101000000-abcdef", nil
}

// --- Fixtures ---

var (
	liveWS  = node.NewWorkspace("live", nil)
	stageWS = node.NewWorkspace("stage", liveWS)
	userWS  = node.NewWorkspace("user-admin", stageWS)
	docType = node.NewType("Page", nil, true, nil)
)

func newTestService(s Searcher, nodes NodeResolver, cache Cache, errs ErrorLog) *Service {
	svc := New(s, nodes, mockNamer{}, mockIDs{}, cache, errs, Config{}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func hitJSON(id, path string) map[string]any {
	return map[string]any{
		"_id":    id,
		"_index": "crindex-test",
		"_score": 1.0,
		"fields": map[string]any{"cr_path": []any{path}},
		"sort":   []any{id},
	}
}

func responseJSON(total int, hits ...map[string]any) []byte {
	list := make([]any, len(hits))
	for i, h := range hits {
		list[i] = h
	}
	data, _ := json.Marshal(map[string]any{
		"hits": map[string]any{"total": map[string]any{"value": total}, "hits": list},
	})
	return data
}
