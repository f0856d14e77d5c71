package result

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/crindex/internal/domain/document"
	"github.com/kailas-cloud/crindex/internal/domain/search/request"
)

// Hit is a single raw search hit.
type Hit struct {
	raw map[string]any
}

// NewHit wraps a decoded hit object.
func NewHit(raw map[string]any) Hit { return Hit{raw: raw} }

// ID returns the document identifier.
func (h Hit) ID() string {
	s, _ := h.raw["_id"].(string)
	return s
}

// Index returns the index the hit came from.
func (h Hit) Index() string {
	s, _ := h.raw["_index"].(string)
	return s
}

// Score returns the relevance score (0 when sorted without scoring).
func (h Hit) Score() float64 {
	f, _ := h.raw["_score"].(float64)
	return f
}

// Source returns the document source, if returned.
func (h Hit) Source() map[string]any {
	m, _ := h.raw["_source"].(map[string]any)
	return m
}

// Fields returns the requested stored/doc-value fields.
func (h Hit) Fields() map[string]any {
	m, _ := h.raw["fields"].(map[string]any)
	return m
}

// Sort returns the sort values of the hit.
func (h Hit) Sort() []any {
	s, _ := h.raw["sort"].([]any)
	return s
}

// Highlight returns the highlight fragments per field.
func (h Hit) Highlight() map[string]any {
	m, _ := h.raw["highlight"].(map[string]any)
	return m
}

// Raw returns the whole hit object.
func (h Hit) Raw() map[string]any { return h.raw }

// Value returns the value at a dotted path inside the hit.
func (h Hit) Value(path string) (any, bool) {
	return request.Lookup(h.raw, path)
}

// NodePath returns the content path the hit was indexed from, preferring the
// returned fields over the source. List values yield their first element.
func (h Hit) NodePath() (string, bool) {
	if v, ok := h.Fields()[document.FieldPath]; ok {
		if s, ok := firstString(v); ok {
			return s, true
		}
	}
	if v, ok := h.Source()[document.FieldPath]; ok {
		return firstString(v)
	}
	return "", false
}

func firstString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, x != ""
	case []any:
		if len(x) == 0 {
			return "", false
		}
		s, ok := x[0].(string)
		return s, ok && s != ""
	default:
		return "", false
	}
}

// Response is a decoded search response.
type Response struct {
	Hits         []Hit
	Total        int
	Aggregations map[string]any
	Suggest      map[string]any
}

// Empty returns a response without hits.
func Empty() *Response {
	return &Response{Aggregations: map[string]any{}, Suggest: map[string]any{}}
}

type wireResponse struct {
	Hits struct {
		Total json.RawMessage  `json:"total"`
		Hits  []map[string]any `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]any `json:"aggregations"`
	Suggest      map[string]any `json:"suggest"`
}

// Decode parses a search response body. The total may be a number or an
// object with a "value" key.
func Decode(data []byte) (*Response, error) {
	var w wireResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	total, err := decodeTotal(w.Hits.Total)
	if err != nil {
		return nil, err
	}

	resp := Empty()
	resp.Total = total
	if w.Aggregations != nil {
		resp.Aggregations = w.Aggregations
	}
	if w.Suggest != nil {
		resp.Suggest = w.Suggest
	}
	resp.Hits = make([]Hit, len(w.Hits.Hits))
	for i, h := range w.Hits.Hits {
		resp.Hits[i] = NewHit(h)
	}
	return resp, nil
}

func decodeTotal(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var obj struct {
		Value int `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return 0, fmt.Errorf("decode hits.total: %w", err)
	}
	return obj.Value, nil
}
