package search

import (
	"sort"
	"time"

	"github.com/kailas-cloud/crindex/internal/domain/document"
	"github.com/kailas-cloud/crindex/internal/domain/node"
	"github.com/kailas-cloud/crindex/internal/domain/search/request"
)

// Default highlight applied by fulltext queries.
const (
	DefaultFragmentSize  = 150
	DefaultFragmentCount = 2
)

// fulltextFields are the query_string targets when no fields are given.
var fulltextFields = []any{document.FieldFulltext + ".*"}

// Builder assembles one search request. Methods chain; the first error is
// recorded and returned by the execution methods before any engine call.
// A Builder is not safe for concurrent mutation.
type Builder struct {
	svc    *Service
	req    *request.Request
	anchor *node.Node
	limit  int
	err    error
	log    bool

	highlightSet bool

	hits hitIndex
}

// Err returns the first recorded error.
func (b *Builder) Err() error { return b.err }

// Request returns the underlying request tree.
func (b *Builder) Request() *request.Request { return b.req }

func (b *Builder) record(err error) *Builder {
	if err != nil && b.err == nil {
		b.err = err
	}
	return b
}

// Query restricts results to anchor and its descendants, visible in any
// workspace of the anchor's chain. The limit, if set, is rescaled to the
// anchor's workspace depth.
func (b *Builder) Query(anchor *node.Node) *Builder {
	b.anchor = anchor
	b.record(b.req.QueryFilter("bool", map[string]any{
		"should": []any{
			map[string]any{"term": map[string]any{document.FieldParentPath: anchor.Path()}},
			map[string]any{"term": map[string]any{document.FieldPath: anchor.Path()}},
		},
	}, string(request.Must)))

	chain := []string{node.LiveWorkspace}
	if ws := anchor.Workspace(); ws != nil {
		chain = ws.Chain()
	}
	workspaces := make([]any, len(chain))
	for i, name := range chain {
		workspaces[i] = name
	}
	b.record(b.req.QueryFilter("terms", map[string]any{document.FieldWorkspace: workspaces}, string(request.Must)))

	if b.limit > 0 {
		b.applyLimit()
	}
	return b
}

// NodeType keeps nodes of the given type or any of its subtypes.
func (b *Builder) NodeType(name string) *Builder {
	return b.QueryFilter("term", map[string]any{document.FieldTypeAndSuperTypes: name}, string(request.Must))
}

// ExactMatch keeps documents whose property equals value.
func (b *Builder) ExactMatch(prop string, value any) *Builder {
	return b.QueryFilter("term", map[string]any{prop: convertValue(value)}, string(request.Must))
}

// Exclude drops documents whose property equals value.
func (b *Builder) Exclude(prop string, value any) *Builder {
	return b.QueryFilter("term", map[string]any{prop: convertValue(value)}, string(request.MustNot))
}

// GreaterThan keeps documents whose property is > value.
func (b *Builder) GreaterThan(prop string, value any) *Builder { return b.rangeFilter(prop, "gt", value) }

// GreaterThanOrEqual keeps documents whose property is >= value.
func (b *Builder) GreaterThanOrEqual(prop string, value any) *Builder {
	return b.rangeFilter(prop, "gte", value)
}

// LessThan keeps documents whose property is < value.
func (b *Builder) LessThan(prop string, value any) *Builder { return b.rangeFilter(prop, "lt", value) }

// LessThanOrEqual keeps documents whose property is <= value.
func (b *Builder) LessThanOrEqual(prop string, value any) *Builder {
	return b.rangeFilter(prop, "lte", value)
}

func (b *Builder) rangeFilter(prop, op string, value any) *Builder {
	return b.QueryFilter("range", map[string]any{prop: map[string]any{op: convertValue(value)}}, string(request.Must))
}

// Prefix keeps documents whose property starts with prefix.
func (b *Builder) Prefix(prop, prefix string) *Builder {
	return b.QueryFilter("prefix", map[string]any{prop: prefix}, string(request.Must))
}

// GeoDistance keeps documents whose geo_point property lies within distance
// (e.g. "10km") of the given coordinates.
func (b *Builder) GeoDistance(prop string, lat, lon float64, distance string) *Builder {
	return b.QueryFilter("geo_distance", map[string]any{
		"distance": distance,
		prop:       map[string]any{"lat": lat, "lon": lon},
	}, string(request.Must))
}

// QueryFilter appends a raw filter to clause (must, should or must_not).
func (b *Builder) QueryFilter(filterType string, options any, clause string) *Builder {
	return b.record(b.req.QueryFilter(filterType, options, clause))
}

// QueryFilterMultiple adds one filter per property: slices become terms
// filters, scalars term filters. Nil values are skipped.
func (b *Builder) QueryFilterMultiple(values map[string]any, clause string) *Builder {
	props := make([]string, 0, len(values))
	for k := range values {
		props = append(props, k)
	}
	sort.Strings(props)

	for _, prop := range props {
		v := values[prop]
		if v == nil {
			continue
		}
		converted := convertValue(v)
		if list, ok := converted.([]any); ok {
			b.QueryFilter("terms", map[string]any{prop: list}, clause)
		} else {
			b.QueryFilter("term", map[string]any{prop: converted}, clause)
		}
	}
	return b
}

// SortAsc appends an ascending sort on prop.
func (b *Builder) SortAsc(prop string) *Builder {
	b.req.AddSort(map[string]any{prop: map[string]any{"order": "asc"}})
	return b
}

// SortDesc appends a descending sort on prop.
func (b *Builder) SortDesc(prop string) *Builder {
	b.req.AddSort(map[string]any{prop: map[string]any{"order": "desc"}})
	return b
}

// From sets the pagination offset. Zero leaves it unset.
func (b *Builder) From(from int) *Builder {
	if from > 0 {
		b.req.SetFrom(from)
	}
	return b
}

// Limit caps the number of returned nodes. The engine is asked for limit
// times the anchor's workspace depth hits, since every layer may hold a copy
// of the same node.
func (b *Builder) Limit(limit int) *Builder {
	if limit <= 0 {
		return b
	}
	b.limit = limit
	b.applyLimit()
	return b
}

func (b *Builder) applyLimit() {
	depth := 1
	if b.anchor != nil {
		depth = b.anchor.Workspace().Depth()
	}
	b.req.SetSize(b.limit * depth)
}

// FieldBasedAggregation adds a bucket aggregation over field. aggType
// defaults to "terms", size to 10.
func (b *Builder) FieldBasedAggregation(name, field, aggType, parentPath string, size int) *Builder {
	if aggType == "" {
		aggType = "terms"
	}
	if size <= 0 {
		size = 10
	}
	return b.Aggregation(name, map[string]any{aggType: map[string]any{"field": field, "size": size}}, parentPath)
}

// Aggregation adds a raw aggregation under the dotted parentPath of aggregation names.
func (b *Builder) Aggregation(name string, def map[string]any, parentPath string) *Builder {
	return b.record(b.req.Aggregation(name, def, parentPath))
}

// TermSuggestions adds a term suggester for text on field.
func (b *Builder) TermSuggestions(name, text, field string) *Builder {
	if field == "" {
		field = document.FieldFulltext + ".text"
	}
	return b.Suggestions(name, map[string]any{"text": text, "term": map[string]any{"field": field}})
}

// Suggestions adds a raw suggestion definition.
func (b *Builder) Suggestions(name string, def map[string]any) *Builder {
	b.req.Suggestion(name, def)
	return b
}

// Fulltext replaces the match-all query with a query_string query.
// options are merged into the query_string body.
func (b *Builder) Fulltext(query string, options map[string]any) *Builder {
	return b.scoringQuery("query_string", query, options)
}

// SimpleQueryStringFulltext is Fulltext with the forgiving simple_query_string syntax.
func (b *Builder) SimpleQueryStringFulltext(query string, options map[string]any) *Builder {
	return b.scoringQuery("simple_query_string", query, options)
}

func (b *Builder) scoringQuery(kind, query string, options map[string]any) *Builder {
	body := map[string]any{"fields": fulltextFields}
	for k, v := range options {
		body[k] = v
	}
	body["query"] = query
	b.req.Set("query.bool.must", []any{map[string]any{kind: body}})

	if !b.highlightSet {
		b.Highlight(DefaultFragmentSize, DefaultFragmentCount)
		b.highlightSet = false
	}
	return b
}

// Highlight configures highlighting of fulltext matches. A fragmentSize <= 0
// disables highlighting, also for fulltext queries added later.
func (b *Builder) Highlight(fragmentSize, fragmentCount int) *Builder {
	b.highlightSet = true
	if fragmentSize <= 0 {
		b.req.SetHighlight(nil)
		return b
	}
	b.req.SetHighlight(map[string]any{
		"fields": map[string]any{
			document.FieldFulltext + ".*": map[string]any{
				"fragment_size":       fragmentSize,
				"no_match_size":       fragmentSize,
				"number_of_fragments": fragmentCount,
			},
		},
	})
	return b
}

// MoreLikeThis adds a more_like_this filter. Nodes in like are referenced by
// their indexed document; other values are passed through as like texts.
func (b *Builder) MoreLikeThis(like []any, fields []string, options map[string]any) *Builder {
	likes := make([]any, 0, len(like))
	for _, l := range like {
		if n, ok := l.(*node.Node); ok {
			likes = append(likes, map[string]any{"_id": b.svc.ids.DocumentID(n, "")})
			continue
		}
		likes = append(likes, l)
	}
	body := map[string]any{}
	for k, v := range options {
		body[k] = v
	}
	body["like"] = likes
	if len(fields) > 0 {
		fs := make([]any, len(fields))
		for i, f := range fields {
			fs[i] = f
		}
		body["fields"] = fs
	}
	return b.QueryFilter("more_like_this", body, string(request.Must))
}

// Set assigns a raw value at a dotted request path.
func (b *Builder) Set(path string, value any) *Builder {
	b.req.Set(path, value)
	return b
}

// AppendAtPath appends value to the list at a dotted request path.
func (b *Builder) AppendAtPath(path string, value any) *Builder {
	return b.record(b.req.AppendAtPath(path, value))
}

// Log makes the next execution log the request body.
func (b *Builder) Log() *Builder {
	b.log = true
	return b
}

// convertValue maps filter values to their indexed form.
func convertValue(v any) any {
	switch x := v.(type) {
	case *node.Node:
		if x == nil {
			return nil
		}
		return x.Identifier()
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC().Format(time.RFC3339)
	case []*node.Node:
		out := make([]any, len(x))
		for i, n := range x {
			out[i] = convertValue(n)
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = convertValue(e)
		}
		return out
	default:
		return v
	}
}
