package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/crindex/internal/domain"
	"github.com/kailas-cloud/crindex/internal/domain/node"
)

func anchorTree() (*node.Node, *mockNodes) {
	anchor := node.New("home", "/sites/home", userWS, docType)
	a := node.New("a", "/sites/home/a", userWS, docType)
	b := node.New("b", "/sites/home/b", userWS, docType)
	return anchor, &mockNodes{byPath: map[string]*node.Node{
		"/sites/home": anchor, "/sites/home/a": a, "/sites/home/b": b,
	}}
}

func TestExecute_ReconcilesHits(t *testing.T) {
	anchor, nodes := anchorTree()
	s := &mockSearcher{searchFn: func(context.Context, string, map[string]any) ([]byte, error) {
		return responseJSON(3,
			hitJSON("1", "/sites/home/b"),
			hitJSON("2", "/sites/home/a"),
			hitJSON("3", "/sites/home/b"),
		), nil
	}}
	b := newTestService(s, nodes, nil, &mockErrorLog{}).Query(anchor).Limit(5)

	res, err := b.Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 3 {
		t.Errorf("expected total 3, got %d", res.Total)
	}
	if len(res.Nodes) != 2 || res.Nodes[0].Identifier() != "b" || res.Nodes[1].Identifier() != "a" {
		t.Fatalf("unexpected nodes %v", res.Nodes)
	}
	if got := s.bodies[0]["size"]; got != 15 {
		t.Errorf("expected raw size 15, got %v", got)
	}

	hit, ok := b.HitForNode(res.Nodes[0])
	if !ok || hit.ID() != "1" {
		t.Errorf("expected first hit for b, got %v", hit.ID())
	}
	if sv := b.SortValuesForNode(res.Nodes[1]); len(sv) != 1 || sv[0] != "2" {
		t.Errorf("unexpected sort values %v", sv)
	}
	if v, ok := b.HitValue(res.Nodes[1], "_index"); !ok || v != "crindex-test" {
		t.Errorf("unexpected hit value %v", v)
	}
}

func TestExecute_HitIndexOverwritten(t *testing.T) {
	anchor, nodes := anchorTree()
	calls := 0
	s := &mockSearcher{searchFn: func(context.Context, string, map[string]any) ([]byte, error) {
		calls++
		if calls == 1 {
			return responseJSON(1, hitJSON("1", "/sites/home/a")), nil
		}
		return responseJSON(1, hitJSON("2", "/sites/home/b")), nil
	}}
	b := newTestService(s, nodes, nil, &mockErrorLog{}).Query(anchor)

	first, _ := b.Execute(context.Background())
	if _, err := b.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := b.HitForNode(first.Nodes[0]); ok {
		t.Error("expected hits of the previous execution dropped")
	}
}

func TestExecute_TransportErrorDegrades(t *testing.T) {
	anchor, nodes := anchorTree()
	s := &mockSearcher{searchFn: func(context.Context, string, map[string]any) ([]byte, error) {
		return nil, errors.New("connection refused")
	}}
	errs := &mockErrorLog{}
	b := newTestService(s, nodes, nil, errs).Query(anchor)

	res, err := b.Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Nodes) != 0 || res.Total != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
	if len(errs.errs) != 1 {
		t.Errorf("expected failure persisted once, got %d", len(errs.errs))
	}
}

func TestExecute_IndexNameError(t *testing.T) {
	anchor, nodes := anchorTree()
	svc := newTestService(&mockSearcher{}, nodes, nil, &mockErrorLog{})
	svc.names = mockNamer{err: domain.NewConfigurationError("no prefix")}

	if _, err := svc.Query(anchor).Execute(context.Background()); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestCount_StripsUnsupportedKeys(t *testing.T) {
	anchor, nodes := anchorTree()
	s := &mockSearcher{countFn: func(_ context.Context, _ string, body map[string]any) (int, error) {
		for _, k := range []string{"fields", "sort", "size", "highlight", "aggregations"} {
			if _, ok := body[k]; ok {
				t.Errorf("count body must not contain %s", k)
			}
		}
		return 42, nil
	}}
	b := newTestService(s, nodes, nil, &mockErrorLog{}).Query(anchor).
		Limit(10).SortAsc("title").Fulltext("foo", nil).
		FieldBasedAggregation("types", "t", "", "", 0)

	n, err := b.Count(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Errorf("expected 42, got %d", n)
	}
}

func TestCount_TransportErrorIsZero(t *testing.T) {
	s := &mockSearcher{countFn: func(context.Context, string, map[string]any) (int, error) {
		return 0, errors.New("timeout")
	}}
	errs := &mockErrorLog{}
	n, err := newTestService(s, &mockNodes{}, nil, errs).Builder().Count(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected 0, nil; got %d, %v", n, err)
	}
	if len(errs.errs) != 1 {
		t.Error("expected failure persisted")
	}
}

func TestExecuteCached_UsesDefaultTTLAndHits(t *testing.T) {
	anchor, nodes := anchorTree()
	s := &mockSearcher{searchFn: func(_ context.Context, _ string, body map[string]any) ([]byte, error) {
		if body["size"] == 0 {
			return []byte(`{"hits":{"total":0,"hits":[]},"aggregations":{"minTime":{"value":null}}}`), nil
		}
		return responseJSON(1, hitJSON("1", "/sites/home/a")), nil
	}}
	cache := newMockCache()
	svc := newTestService(s, nodes, cache, &mockErrorLog{})

	res, err := svc.Query(anchor).ExecuteCached(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(res.Nodes))
	}
	if len(cache.entries) != 1 {
		t.Fatalf("expected one cache entry, got %d", len(cache.entries))
	}
	for _, e := range cache.entries {
		if e.ttl != DefaultCacheTTL {
			t.Errorf("expected default ttl, got %v", e.ttl)
		}
	}

	before := s.calls()
	res, err = svc.Query(anchor).ExecuteCached(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.calls() != before {
		t.Error("expected cached response without engine calls")
	}
	if len(res.Nodes) != 1 || res.Nodes[0].Identifier() != "a" {
		t.Errorf("unexpected cached nodes %v", res.Nodes)
	}
}

func TestExecuteCached_UsesCacheLifetime(t *testing.T) {
	anchor, nodes := anchorTree()
	s := &mockSearcher{searchFn: func(_ context.Context, _ string, body map[string]any) ([]byte, error) {
		if body["size"] == 0 {
			return []byte(`{"aggregations":{"minTime":{"value":0,"value_as_string":"2030-01-01T00:10:00.000Z"}}}`), nil
		}
		return responseJSON(0), nil
	}}
	cache := newMockCache()

	if _, err := newTestService(s, nodes, cache, &mockErrorLog{}).Query(anchor).ExecuteCached(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, e := range cache.entries {
		if e.ttl != 10*time.Minute {
			t.Errorf("expected 10m ttl, got %v", e.ttl)
		}
	}
}
