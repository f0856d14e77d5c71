package request

import (
	"encoding/json"
	"strings"

	"github.com/kailas-cloud/crindex/internal/domain"
	"github.com/kailas-cloud/crindex/internal/domain/document"
)

// Clause is a boolean filter clause list.
type Clause string

// Recognized filter clauses.
const (
	Must    Clause = "must"
	Should  Clause = "should"
	MustNot Clause = "must_not"
)

// ParseClause validates a clause name.
func ParseClause(s string) (Clause, error) {
	switch c := Clause(s); c {
	case Must, Should, MustNot:
		return c, nil
	default:
		return "", domain.NewConfigurationError(
			"filter clause %q is not supported, use one of must, should, must_not", s)
	}
}

// Keys the count endpoint rejects.
var countUnsupported = []string{"fields", "sort", "from", "size", "highlight", "aggs", "aggregations"}

// Request is a mutable search request tree in engine query DSL form.
type Request struct {
	tree map[string]any
}

// New creates a request that matches all visible documents and returns the node path field.
func New() *Request {
	return &Request{tree: map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{
					map[string]any{"match_all": map[string]any{}},
				},
				"filter": map[string]any{
					"bool": map[string]any{
						string(Must):   []any{},
						string(Should): []any{},
						string(MustNot): []any{
							map[string]any{"term": map[string]any{document.FieldHidden: true}},
							map[string]any{"range": map[string]any{
								document.FieldHiddenBefore: map[string]any{"gt": "now"},
							}},
							map[string]any{"range": map[string]any{
								document.FieldHiddenAfter: map[string]any{"lt": "now"},
							}},
						},
					},
				},
			},
		},
		"fields": []any{document.FieldPath},
	}}
}

// FromMap wraps an existing tree. The map is deep-copied.
func FromMap(tree map[string]any) *Request {
	return &Request{tree: cloneMap(tree)}
}

func (r *Request) filterBool() map[string]any {
	return r.ensureMap("query.bool.filter.bool")
}

// QueryFilter appends {filterType: options} to the given clause list.
func (r *Request) QueryFilter(filterType string, options any, clause string) error {
	c, err := ParseClause(clause)
	if err != nil {
		return err
	}
	fb := r.filterBool()
	list, _ := fb[string(c)].([]any)
	fb[string(c)] = append(list, map[string]any{filterType: options})
	return nil
}

// Filters returns the entries of a clause list.
func (r *Request) Filters(c Clause) []any {
	list, _ := r.filterBool()[string(c)].([]any)
	return list
}

// RemoveFilters drops clause entries for which match returns true and reports how many were removed.
func (r *Request) RemoveFilters(c Clause, match func(map[string]any) bool) int {
	fb := r.filterBool()
	list, _ := fb[string(c)].([]any)
	kept := make([]any, 0, len(list))
	for _, entry := range list {
		if m, ok := entry.(map[string]any); ok && match(m) {
			continue
		}
		kept = append(kept, entry)
	}
	fb[string(c)] = kept
	return len(list) - len(kept)
}

// AddQuery appends a scoring query to query.bool.must.
func (r *Request) AddQuery(q map[string]any) {
	b := r.ensureMap("query.bool")
	list, _ := b["must"].([]any)
	b["must"] = append(list, q)
}

// AddSort appends one sort entry.
func (r *Request) AddSort(entry map[string]any) {
	list, _ := r.tree["sort"].([]any)
	r.tree["sort"] = append(list, entry)
}

// SetFrom sets the pagination offset.
func (r *Request) SetFrom(from int) { r.tree["from"] = from }

// SetSize sets the number of hits to return.
func (r *Request) SetSize(size int) { r.tree["size"] = size }

// Size returns the configured size.
func (r *Request) Size() (int, bool) {
	v, ok := r.tree["size"].(int)
	return v, ok
}

// Aggregation inserts an aggregation definition. parentPath is a dotted path
// of existing aggregation names; the definition becomes a sub-aggregation of
// the last one. An unknown parent is a configuration error.
func (r *Request) Aggregation(name string, def map[string]any, parentPath string) error {
	level, _ := r.tree["aggregations"].(map[string]any)
	if level == nil {
		level = map[string]any{}
		r.tree["aggregations"] = level
	}
	if parentPath != "" {
		for _, seg := range strings.Split(parentPath, ".") {
			parent, ok := level[seg].(map[string]any)
			if !ok {
				return domain.NewConfigurationError(
					"aggregation parent path %q could not be found when adding %q", parentPath, name)
			}
			sub, _ := parent["aggregations"].(map[string]any)
			if sub == nil {
				sub = map[string]any{}
				parent["aggregations"] = sub
			}
			level = sub
		}
	}
	level[name] = def
	return nil
}

// Suggestion adds a named suggestion definition.
func (r *Request) Suggestion(name string, def map[string]any) {
	r.ensureMap("suggest")[name] = def
}

// SetHighlight sets the highlight configuration, or removes it when cfg is nil.
func (r *Request) SetHighlight(cfg map[string]any) {
	if cfg == nil {
		delete(r.tree, "highlight")
		return
	}
	r.tree["highlight"] = cfg
}

// Set assigns value at a dotted path, creating intermediate objects.
func (r *Request) Set(path string, value any) {
	parent, key := r.parentOf(path)
	parent[key] = value
}

// Get returns the value at a dotted path.
func (r *Request) Get(path string) (any, bool) {
	return Lookup(r.tree, path)
}

// AppendAtPath appends value to the list at a dotted path, creating it when missing.
func (r *Request) AppendAtPath(path string, value any) error {
	parent, key := r.parentOf(path)
	switch cur := parent[key].(type) {
	case nil:
		parent[key] = []any{value}
	case []any:
		parent[key] = append(cur, value)
	default:
		return domain.NewConfigurationError("value at path %q is not a list", path)
	}
	return nil
}

// Clone returns a deep copy.
func (r *Request) Clone() *Request {
	return &Request{tree: cloneMap(r.tree)}
}

// Map returns the request tree. Callers must not modify it.
func (r *Request) Map() map[string]any { return r.tree }

// CountMap returns a copy of the tree without the keys the count endpoint rejects.
func (r *Request) CountMap() map[string]any {
	out := cloneMap(r.tree)
	for _, k := range countUnsupported {
		delete(out, k)
	}
	return out
}

// MarshalJSON encodes the request tree.
func (r *Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.tree)
}

func (r *Request) ensureMap(path string) map[string]any {
	cur := r.tree
	for _, seg := range strings.Split(path, ".") {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
	return cur
}

func (r *Request) parentOf(path string) (map[string]any, string) {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return r.tree, path
	}
	return r.ensureMap(path[:i]), path[i+1:]
}

// Lookup resolves a dotted path in a decoded JSON tree. Numeric segments index into lists.
func Lookup(tree any, path string) (any, bool) {
	cur := tree
	if path == "" {
		return cur, true
	}
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, ok := index(seg)
			if !ok || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

func index(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	n := 0
	for _, c := range seg {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
