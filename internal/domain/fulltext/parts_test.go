package fulltext

import (
	"encoding/json"
	"testing"
)

func TestAggregate_FooBar(t *testing.T) {
	parts := Parts{}.With("a", Text{"title": "Foo"})
	parts = parts.Apply(NewUpdate("b", Text{"title": "Bar"}, false, false))

	got := Aggregate(parts)
	if got["title"] != "Foo Bar" {
		t.Errorf("expected %q, got %q", "Foo Bar", got["title"])
	}
}

func TestApply_Idempotent(t *testing.T) {
	u := NewUpdate("b", Text{"title": "Bar", "text": " body "}, false, false)
	base := Parts{}.With("a", Text{"title": "Foo"})

	once := Aggregate(base.Apply(u))
	twice := Aggregate(base.Apply(u).Apply(u))

	if len(once) != len(twice) {
		t.Fatalf("bucket count differs: %v vs %v", once, twice)
	}
	for k, v := range once {
		if twice[k] != v {
			t.Errorf("bucket %q: once %q, twice %q", k, v, twice[k])
		}
	}
	if once["text"] != "body" {
		t.Errorf("values must be trimmed, got %q", once["text"])
	}
}

func TestApply_RemoveLastPartYieldsEmptyMap(t *testing.T) {
	parts := Parts{}.With("a", Text{"title": "Foo"})
	parts = parts.Apply(NewUpdate("a", Text{"title": "Foo"}, true, false))

	got := Aggregate(parts)
	if got == nil {
		t.Fatal("expected empty map, got nil")
	}
	if len(got) != 0 {
		t.Errorf("expected empty map, got %v", got)
	}
}

func TestNewUpdate_RemoveConditions(t *testing.T) {
	tests := []struct {
		name            string
		text            Text
		removed, hidden bool
		want            bool
	}{
		{"visible", Text{"h1": "x"}, false, false, false},
		{"removed", Text{"h1": "x"}, true, false, true},
		{"hidden", Text{"h1": "x"}, false, true, true},
		{"empty", Text{}, false, false, true},
		{"nil", nil, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewUpdate("a", tt.text, tt.removed, tt.hidden).Remove; got != tt.want {
				t.Errorf("Remove = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParts_ReplaceKeepsPosition(t *testing.T) {
	parts := Parts{}.
		With("a", Text{"t": "1"}).
		With("b", Text{"t": "2"}).
		With("a", Text{"t": "3"})

	ids := parts.IDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected order %v", ids)
	}
	if got := Aggregate(parts)["t"]; got != "3 2" {
		t.Errorf("expected %q, got %q", "3 2", got)
	}
}

func TestParts_WithoutDoesNotMutate(t *testing.T) {
	orig := Parts{}.With("a", Text{"t": "1"}).With("b", Text{"t": "2"})
	_ = orig.Without("a")
	if orig.Len() != 2 {
		t.Errorf("original mutated: %v", orig.IDs())
	}
}

func TestParts_JSONKeepsOrder(t *testing.T) {
	parts := Parts{}.With("z", Text{"t": "last"}).With("a", Text{"t": "first"})
	data, err := json.Marshal(parts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"z":{"t":"last"},"a":{"t":"first"}}` {
		t.Errorf("unexpected JSON %s", data)
	}

	var back Parts
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := Aggregate(back)["t"]; got != "last first" {
		t.Errorf("order lost after decode: %q", got)
	}
}

func TestPartsFrom_DecodedMap(t *testing.T) {
	parts, err := PartsFrom(map[string]any{
		"b": map[string]any{"t": "B"},
		"a": map[string]any{"t": "A"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := Aggregate(parts)["t"]; got != "A B" {
		t.Errorf("expected sorted fallback order, got %q", got)
	}

	if _, err := PartsFrom(42); err == nil {
		t.Error("expected error for unsupported value")
	}
}
