package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/crindex/internal/domain"
	"github.com/kailas-cloud/crindex/internal/domain/node"
	"github.com/kailas-cloud/crindex/internal/engine/local"
	"github.com/kailas-cloud/crindex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/crindex/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/crindex/internal/usecase/search"
)

// --- Mocks ---

type fakeTree struct {
	byPath map[string]*node.Node
}

func newFakeTree(nodes ...*node.Node) *fakeTree {
	t := &fakeTree{byPath: map[string]*node.Node{}}
	for _, n := range nodes {
		t.byPath[n.Path()] = n
	}
	return t
}

func (f *fakeTree) NodeByIdentifier(_ context.Context, id, _ string, _ node.Dimensions) (*node.Node, error) {
	for _, n := range f.byPath {
		if n.Identifier() == id {
			return n, nil
		}
	}
	return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
}

func (f *fakeTree) NodeByPath(_ context.Context, path, _ string, _ node.Dimensions) (*node.Node, error) {
	if n, ok := f.byPath[path]; ok {
		return n, nil
	}
	return nil, fmt.Errorf("node %s: %w", path, domain.ErrNotFound)
}

func (f *fakeTree) Parent(_ context.Context, n *node.Node) (*node.Node, error) {
	if n.IsRoot() {
		return nil, nil
	}
	return f.byPath[n.ParentPath()], nil
}

type fakeSearcher struct {
	response []byte
	count    int
	err      error
	bodies   []map[string]any
}

func (f *fakeSearcher) Search(_ context.Context, _ string, body map[string]any) ([]byte, error) {
	f.bodies = append(f.bodies, body)
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeSearcher) Count(_ context.Context, _ string, body map[string]any) (int, error) {
	f.bodies = append(f.bodies, body)
	return f.count, f.err
}

type fakeErrorLog struct{}

func (fakeErrorLog) Log(string, error, map[string]any) (string, error) { return "ref", nil }

type fakeHealth struct {
	report health.Report
}

func (f fakeHealth) Check(context.Context) health.Report { return f.report }

// --- Fixtures ---

var (
	live     = node.NewWorkspace("live", nil)
	pageType = node.NewType("Page", nil, true, map[string]string{"title": "h1"})
	textType = node.NewType("Text", nil, false, map[string]string{"text": "text"})
)

type testEnv struct {
	router   http.Handler
	engine   *local.Engine
	searcher *fakeSearcher
}

func newTestEnv(t *testing.T, report health.Report) *testEnv {
	t.Helper()
	tree := newFakeTree(
		node.New("root", "/", live, textType),
		node.New("sites", "/sites", live, textType),
		node.New("home", "/sites/home", live, pageType, node.WithProperties(map[string]any{"title": "Home"})),
		node.New("text", "/sites/home/text", live, textType, node.WithProperties(map[string]any{"text": "Foo"})),
	)
	engine := local.New()
	names := indexinguc.NewPrefixNamer("crindex")
	ids := indexinguc.HashIdentifiers{}
	indexer := indexinguc.New(tree, engine, names, ids, indexinguc.Config{}, zap.NewNop())

	searcher := &fakeSearcher{response: []byte(`{"hits":{"total":{"value":0},"hits":[]}}`)}
	search := searchuc.New(searcher, tree, names, ids, nil, fakeErrorLog{}, searchuc.Config{}, zap.NewNop())

	srv := NewServer(indexer, search, tree, fakeHealth{report: report}, zap.NewNop())
	r := chi.NewRouter()
	srv.Routes(r)
	return &testEnv{router: r, engine: engine, searcher: searcher}
}

func healthy() health.Report {
	return health.Report{Status: health.Healthy, Checks: map[string]health.CheckResult{
		health.ComponentEngine: health.CheckOK,
		health.ComponentTree:   health.CheckOK,
	}}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestIndex_WritesDocumentsAndFulltext(t *testing.T) {
	env := newTestEnv(t, healthy())

	rec := env.do(t, http.MethodPost, "/api/v1/index", IndexRequest{Changes: []IndexChange{
		{NodeRef: NodeRef{Path: "/sites/home"}},
		{NodeRef: NodeRef{Identifier: "text"}},
	}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp IndexResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Failed != 0 {
		t.Errorf("expected no failures, got %+v", resp.Items)
	}
	// home: update + fulltext part; text: index + fulltext part.
	if len(resp.Items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(resp.Items))
	}
	index, _ := indexinguc.NewPrefixNamer("crindex").IndexName(nil)
	if got := env.engine.Len(index); got != 2 {
		t.Errorf("expected 2 documents, got %d", got)
	}
}

func TestIndex_UnknownNode(t *testing.T) {
	env := newTestEnv(t, healthy())

	rec := env.do(t, http.MethodPost, "/api/v1/index", IndexRequest{Changes: []IndexChange{
		{NodeRef: NodeRef{Path: "/missing"}},
	}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var resp ErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Code != CodeNotFound {
		t.Errorf("expected not_found, got %q", resp.Code)
	}
}

func TestIndex_EmptyChanges(t *testing.T) {
	env := newTestEnv(t, healthy())

	rec := env.do(t, http.MethodPost, "/api/v1/index", IndexRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestIndex_InvalidBody(t *testing.T) {
	env := newTestEnv(t, healthy())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/index", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSearch_ResolvesHits(t *testing.T) {
	env := newTestEnv(t, healthy())
	env.searcher.response = []byte(`{"hits":{"total":{"value":1},"hits":[
		{"_id":"x","_score":2.5,"fields":{"cr_path":["/sites/home"]},"sort":[1]}
	]}}`)

	rec := env.do(t, http.MethodPost, "/api/v1/search", SearchRequest{
		Anchor:   &NodeRef{Path: "/sites"},
		Fulltext: "home",
		Limit:    5,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp SearchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || len(resp.Items) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	item := resp.Items[0]
	if item.Identifier != "home" || item.Score != 2.5 || item.Type != "Page" {
		t.Errorf("unexpected item: %+v", item)
	}
	if len(env.searcher.bodies) != 1 {
		t.Fatalf("expected one engine call, got %d", len(env.searcher.bodies))
	}
	if size := env.searcher.bodies[0]["size"]; size != 5 {
		t.Errorf("expected size 5 for a single-layer workspace, got %v", size)
	}
}

func TestSearch_InvalidClause(t *testing.T) {
	env := newTestEnv(t, healthy())

	rec := env.do(t, http.MethodPost, "/api/v1/search", SearchRequest{
		Filters: []FilterDTO{{Type: "term", Options: map[string]any{"a": 1}, Clause: "maybe"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp ErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Code != CodeConfigurationError {
		t.Errorf("expected configuration_error, got %q", resp.Code)
	}
	if len(env.searcher.bodies) != 0 {
		t.Error("engine must not be called for an invalid request")
	}
}

func TestSearch_EngineFailureDegrades(t *testing.T) {
	env := newTestEnv(t, healthy())
	env.searcher.err = fmt.Errorf("dial: %w", domain.ErrTransport)

	rec := env.do(t, http.MethodPost, "/api/v1/search", SearchRequest{})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp SearchResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Total != 0 || len(resp.Items) != 0 {
		t.Errorf("expected empty result, got %+v", resp)
	}
}

func TestCount(t *testing.T) {
	env := newTestEnv(t, healthy())
	env.searcher.count = 42

	rec := env.do(t, http.MethodPost, "/api/v1/count", SearchRequest{NodeType: "Page", Limit: 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp CountResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Count != 42 {
		t.Errorf("expected 42, got %d", resp.Count)
	}
	if _, ok := env.searcher.bodies[0]["size"]; ok {
		t.Error("count body must not carry size")
	}
}

func TestCount_NegativeLimit(t *testing.T) {
	env := newTestEnv(t, healthy())

	rec := env.do(t, http.MethodPost, "/api/v1/count", SearchRequest{Limit: -1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		status health.Status
		want   int
	}{
		{"healthy", health.Healthy, http.StatusOK},
		{"degraded", health.Degraded, http.StatusServiceUnavailable},
		{"unhealthy", health.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, health.Report{Status: tt.status, Checks: map[string]health.CheckResult{}})
			rec := env.do(t, http.MethodGet, "/health", nil)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
			var resp HealthResponse
			_ = json.NewDecoder(rec.Body).Decode(&resp)
			if resp.Status != string(tt.status) {
				t.Errorf("expected status %q, got %q", tt.status, resp.Status)
			}
		})
	}
}

func TestHandleDomainError_Internal(t *testing.T) {
	s := NewServer(nil, nil, nil, nil, zap.NewNop())
	rec := httptest.NewRecorder()
	s.handleDomainError(rec, errors.New("boom"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
