package search

import (
	"sort"

	"github.com/kailas-cloud/crindex/internal/domain/search/request"
)

// Spec is a declarative query description for callers that cannot chain
// builder methods, such as the HTTP API and the CLI.
type Spec struct {
	NodeType     string
	Fulltext     string
	SimpleQuery  bool
	Exact        map[string]any
	Exclude      map[string]any
	Filters      []FilterSpec
	Sort         []SortSpec
	Aggregations []AggregationSpec
	Suggestions  []SuggestionSpec
	From         int
	Limit        int
	NoHighlight  bool
	Log          bool
}

// FilterSpec is a raw filter appended to a clause.
type FilterSpec struct {
	Type    string
	Options any
	Clause  string
}

// SortSpec is one sort entry. Desc reverses the order.
type SortSpec struct {
	Field string
	Desc  bool
}

// AggregationSpec is a field based aggregation.
type AggregationSpec struct {
	Name       string
	Field      string
	Type       string
	ParentPath string
	Size       int
}

// SuggestionSpec is a term suggestion.
type SuggestionSpec struct {
	Name  string
	Text  string
	Field string
}

// Apply adds everything s describes to the builder.
func (b *Builder) Apply(s Spec) *Builder {
	if s.NoHighlight {
		b.Highlight(0, 0)
	}
	if s.NodeType != "" {
		b.NodeType(s.NodeType)
	}
	for _, k := range sortedKeys(s.Exact) {
		b.ExactMatch(k, s.Exact[k])
	}
	for _, k := range sortedKeys(s.Exclude) {
		b.Exclude(k, s.Exclude[k])
	}
	for _, f := range s.Filters {
		clause := f.Clause
		if clause == "" {
			clause = string(request.Must)
		}
		b.QueryFilter(f.Type, f.Options, clause)
	}
	if s.Fulltext != "" {
		if s.SimpleQuery {
			b.SimpleQueryStringFulltext(s.Fulltext, nil)
		} else {
			b.Fulltext(s.Fulltext, nil)
		}
	}
	for _, o := range s.Sort {
		if o.Desc {
			b.SortDesc(o.Field)
		} else {
			b.SortAsc(o.Field)
		}
	}
	for _, a := range s.Aggregations {
		b.FieldBasedAggregation(a.Name, a.Field, a.Type, a.ParentPath, a.Size)
	}
	for _, sg := range s.Suggestions {
		b.TermSuggestions(sg.Name, sg.Text, sg.Field)
	}
	b.From(s.From).Limit(s.Limit)
	if s.Log {
		b.Log()
	}
	return b
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
