package search

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/crindex/internal/domain"
	"github.com/kailas-cloud/crindex/internal/domain/node"
	"github.com/kailas-cloud/crindex/internal/domain/search/request"
)

func TestApply_Spec(t *testing.T) {
	anchor := node.New("home", "/sites/home", stageWS, docType)
	b := newTestBuilder().Query(anchor).Apply(Spec{
		NodeType:     "Page",
		Fulltext:     "foo",
		Exact:        map[string]any{"lang": "en"},
		Exclude:      map[string]any{"status": "draft"},
		Filters:      []FilterSpec{{Type: "exists", Options: map[string]any{"field": "title"}}},
		Sort:         []SortSpec{{Field: "date", Desc: true}},
		Aggregations: []AggregationSpec{{Name: "types", Field: "cr_type_and_supertypes"}},
		Limit:        5,
		NoHighlight:  true,
	})

	if b.Err() != nil {
		t.Fatalf("unexpected error: %v", b.Err())
	}
	// anchor (2) + node type + exact + raw filter
	if n := len(b.Request().Filters(request.Must)); n != 5 {
		t.Errorf("expected 5 must filters, got %d", n)
	}
	if size, _ := b.Request().Size(); size != 10 {
		t.Errorf("expected size 10, got %d", size)
	}
	if _, ok := b.Request().Get("highlight"); ok {
		t.Error("expected highlight disabled")
	}
}

func TestApply_InvalidClause(t *testing.T) {
	b := newTestBuilder().Apply(Spec{Filters: []FilterSpec{{Type: "term", Options: map[string]any{}, Clause: "filter"}}})
	if !errors.Is(b.Err(), domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", b.Err())
	}
}
