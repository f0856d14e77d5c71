package chi

import (
	"github.com/kailas-cloud/crindex/internal/domain/bulk"
	"github.com/kailas-cloud/crindex/internal/domain/node"
	searchuc "github.com/kailas-cloud/crindex/internal/usecase/search"
)

// NodeRef addresses a content node by identifier or path in a context.
type NodeRef struct {
	Identifier string              `json:"identifier,omitempty"`
	Path       string              `json:"path,omitempty"`
	Workspace  string              `json:"workspace,omitempty"`
	Dimensions map[string][]string `json:"dimensions,omitempty"`
}

func (r NodeRef) workspace() string {
	if r.Workspace == "" {
		return node.LiveWorkspace
	}
	return r.Workspace
}

// IndexChange is one node to re-index.
type IndexChange struct {
	NodeRef
	TargetWorkspace string `json:"target_workspace,omitempty"`
}

// IndexRequest is the body of POST /api/v1/index.
type IndexRequest struct {
	Changes []IndexChange `json:"changes"`
}

// IndexItem is the outcome of one bulk entry.
type IndexItem struct {
	Action string `json:"action"`
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// IndexResponse is the body returned by POST /api/v1/index.
type IndexResponse struct {
	Items  []IndexItem `json:"items"`
	Failed int         `json:"failed"`
}

// FilterDTO is a raw filter.
type FilterDTO struct {
	Type    string `json:"type"`
	Options any    `json:"options"`
	Clause  string `json:"clause,omitempty"`
}

// SortDTO is one sort entry; Order is "asc" (default) or "desc".
type SortDTO struct {
	Field string `json:"field"`
	Order string `json:"order,omitempty"`
}

// AggregationDTO is a field based aggregation.
type AggregationDTO struct {
	Name       string `json:"name"`
	Field      string `json:"field"`
	Type       string `json:"type,omitempty"`
	ParentPath string `json:"parent_path,omitempty"`
	Size       int    `json:"size,omitempty"`
}

// SuggestionDTO is a term suggestion.
type SuggestionDTO struct {
	Name  string `json:"name"`
	Text  string `json:"text"`
	Field string `json:"field,omitempty"`
}

// SearchRequest is the body of POST /api/v1/search and /api/v1/count.
type SearchRequest struct {
	Anchor       *NodeRef         `json:"anchor,omitempty"`
	NodeType     string           `json:"node_type,omitempty"`
	Fulltext     string           `json:"fulltext,omitempty"`
	SimpleQuery  bool             `json:"simple_query,omitempty"`
	Exact        map[string]any   `json:"exact,omitempty"`
	Exclude      map[string]any   `json:"exclude,omitempty"`
	Filters      []FilterDTO      `json:"filters,omitempty"`
	Sort         []SortDTO        `json:"sort,omitempty"`
	Aggregations []AggregationDTO `json:"aggregations,omitempty"`
	Suggestions  []SuggestionDTO  `json:"suggestions,omitempty"`
	From         int              `json:"from,omitempty"`
	Limit        int              `json:"limit,omitempty"`
	NoHighlight  bool             `json:"no_highlight,omitempty"`
	Cached       bool             `json:"cached,omitempty"`
	Log          bool             `json:"log,omitempty"`
}

// SearchItem is one resolved node.
type SearchItem struct {
	Identifier string         `json:"identifier"`
	Path       string         `json:"path"`
	Workspace  string         `json:"workspace"`
	Type       string         `json:"type"`
	Score      float64        `json:"score"`
	Sort       []any          `json:"sort,omitempty"`
	Highlight  map[string]any `json:"highlight,omitempty"`
}

// SearchResponse is the body returned by POST /api/v1/search.
type SearchResponse struct {
	Items        []SearchItem   `json:"items"`
	Total        int            `json:"total"`
	Aggregations map[string]any `json:"aggregations,omitempty"`
	Suggestions  map[string]any `json:"suggestions,omitempty"`
}

// CountResponse is the body returned by POST /api/v1/count.
type CountResponse struct {
	Count int `json:"count"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func specFromDTO(req SearchRequest) searchuc.Spec {
	spec := searchuc.Spec{
		NodeType:    req.NodeType,
		Fulltext:    req.Fulltext,
		SimpleQuery: req.SimpleQuery,
		Exact:       req.Exact,
		Exclude:     req.Exclude,
		From:        req.From,
		Limit:       req.Limit,
		NoHighlight: req.NoHighlight,
		Log:         req.Log,
	}
	for _, f := range req.Filters {
		spec.Filters = append(spec.Filters, searchuc.FilterSpec{Type: f.Type, Options: f.Options, Clause: f.Clause})
	}
	for _, o := range req.Sort {
		spec.Sort = append(spec.Sort, searchuc.SortSpec{Field: o.Field, Desc: o.Order == "desc"})
	}
	for _, a := range req.Aggregations {
		spec.Aggregations = append(spec.Aggregations, searchuc.AggregationSpec{
			Name: a.Name, Field: a.Field, Type: a.Type, ParentPath: a.ParentPath, Size: a.Size,
		})
	}
	for _, sg := range req.Suggestions {
		spec.Suggestions = append(spec.Suggestions, searchuc.SuggestionSpec{Name: sg.Name, Text: sg.Text, Field: sg.Field})
	}
	return spec
}

func resultsToDTO(results []bulk.Result) IndexResponse {
	resp := IndexResponse{Items: make([]IndexItem, len(results)), Failed: bulk.Failed(results)}
	for i, r := range results {
		item := IndexItem{Action: string(r.Action()), ID: r.ID(), Status: string(r.Status())}
		if r.Err() != nil {
			item.Error = r.Err().Error()
		}
		resp.Items[i] = item
	}
	return resp
}

func searchResultToDTO(b *searchuc.Builder, res *searchuc.Result) SearchResponse {
	resp := SearchResponse{
		Items:        make([]SearchItem, len(res.Nodes)),
		Total:        res.Total,
		Aggregations: res.Aggregations,
		Suggestions:  res.Suggestions,
	}
	for i, n := range res.Nodes {
		item := SearchItem{
			Identifier: n.Identifier(),
			Path:       n.Path(),
			Workspace:  n.WorkspaceName(),
			Type:       n.Type().Name(),
			Sort:       b.SortValuesForNode(n),
		}
		if hit, ok := b.HitForNode(n); ok {
			item.Score = hit.Score()
			item.Highlight = hit.Highlight()
		}
		resp.Items[i] = item
	}
	return resp
}
