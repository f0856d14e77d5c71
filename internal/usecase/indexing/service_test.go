package indexing

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crindex/internal/domain"
	"github.com/kailas-cloud/crindex/internal/domain/bulk"
	"github.com/kailas-cloud/crindex/internal/domain/document"
	"github.com/kailas-cloud/crindex/internal/domain/fulltext"
	"github.com/kailas-cloud/crindex/internal/domain/node"
	"github.com/kailas-cloud/crindex/internal/engine/local"
)

func newTestService(tree Tree, bulker Bulker) *Service {
	return New(tree, bulker, NewPrefixNamer("crindex"), HashIdentifiers{}, Config{}, zap.NewNop())
}

func TestOperations_OrderAndActions(t *testing.T) {
	root, sites, page, text := contentTree()
	removed := node.New("gone", "/sites/home/gone", live, plainType, node.WithRemoved(true))
	svc := newTestService(newMockTree(root, sites, page, text, removed), &mockBulker{})

	ops, err := svc.Operations(context.Background(), []Change{{Node: page}, {Node: text}, {Node: removed}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []bulk.Action{
		bulk.ActionUpdate, bulk.ActionUpdate, // page document, page part
		bulk.ActionIndex, bulk.ActionUpdate, // text document, text part
		bulk.ActionDelete, bulk.ActionUpdate, // removed document, part removal
	}
	if len(ops) != len(want) {
		t.Fatalf("expected %d operations, got %d", len(want), len(ops))
	}
	for i, a := range want {
		if ops[i].Action() != a {
			t.Errorf("op %d: expected %s, got %s", i, a, ops[i].Action())
		}
	}
	if _, ok := ops[0].Merge().(fulltext.PreserveMerge); !ok {
		t.Errorf("expected root document to use PreserveMerge, got %T", ops[0].Merge())
	}
	if !ops[5].Merge().(fulltext.PartMerge).Update().Remove {
		t.Error("expected removed node to drop its part")
	}
}

func TestIndex_FulltextAggregatesIntoRoot(t *testing.T) {
	root, sites, page, _ := contentTree()
	foo := node.New("foo", "/sites/home/foo", live, plainType, node.WithProperties(map[string]any{"text": "Foo"}))
	bar := node.New("bar", "/sites/home/bar", live, plainType, node.WithProperties(map[string]any{"text": " Bar "}))
	engine := local.New()
	svc := newTestService(newMockTree(root, sites, page, foo, bar), engine)

	results, err := svc.Index(context.Background(), []Change{{Node: page}, {Node: foo}, {Node: bar}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := bulk.Failed(results); n != 0 {
		t.Fatalf("expected no failures, got %d", n)
	}

	index, _ := NewPrefixNamer("crindex").IndexName(nil)
	src, ok := engine.Get(index, (HashIdentifiers{}).DocumentID(page, ""))
	if !ok {
		t.Fatal("root document not indexed")
	}
	text := src[document.FieldFulltext].(fulltext.Text)
	if text["text"] != "Foo Bar" {
		t.Errorf("expected %q, got %q", "Foo Bar", text["text"])
	}
	if text["h1"] != "Home" {
		t.Errorf("expected root's own part, got %q", text["h1"])
	}
	if src[document.FieldPath] != "/sites/home" {
		t.Errorf("expected root body preserved next to fulltext, got %v", src[document.FieldPath])
	}

	// Removing the last contributor of a bucket drops the bucket.
	gone := node.New("bar", "/sites/home/bar", live, plainType, node.WithRemoved(true))
	if _, err := svc.Index(context.Background(), []Change{{Node: gone}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src, _ = engine.Get(index, (HashIdentifiers{}).DocumentID(page, ""))
	if got := src[document.FieldFulltext].(fulltext.Text)["text"]; got != "Foo" {
		t.Errorf("expected %q after removal, got %q", "Foo", got)
	}
}

func TestIndex_TransportErrorFailsAllEntries(t *testing.T) {
	root, sites, page, text := contentTree()
	bulker := &mockBulker{bulkFn: func(context.Context, []bulk.Operation) ([]bulk.Result, error) {
		return nil, errors.New("connection refused")
	}}
	svc := newTestService(newMockTree(root, sites, page, text), bulker)

	results, err := svc.Index(context.Background(), []Change{{Node: text}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 || bulk.Failed(results) != 2 {
		t.Fatalf("expected 2 failed entries, got %d of %d", bulk.Failed(results), len(results))
	}
}

func TestIndex_ConfigurationErrorFailsFast(t *testing.T) {
	root, sites, page, text := contentTree()
	bulker := &mockBulker{}
	svc := New(newMockTree(root, sites, page, text), bulker, NewPrefixNamer(""), HashIdentifiers{}, Config{}, zap.NewNop())

	_, err := svc.Index(context.Background(), []Change{{Node: text}})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if len(bulker.ops) != 0 {
		t.Error("expected nothing submitted")
	}
}

func TestIndex_TargetWorkspace(t *testing.T) {
	root, sites, page, text := contentTree()
	bulker := &mockBulker{}
	svc := newTestService(newMockTree(root, sites, page, text), bulker)

	if _, err := svc.Index(context.Background(), []Change{{Node: text, TargetWorkspace: "stage"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bulker.ops[0].ID() != (HashIdentifiers{}).DocumentID(text, "stage") {
		t.Error("expected document id in target workspace")
	}
	if bulker.ops[0].Body()[document.FieldWorkspace] != "stage" {
		t.Errorf("expected workspace field stage, got %v", bulker.ops[0].Body()[document.FieldWorkspace])
	}
}
