package opensearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kailas-cloud/crindex/internal/engine"
)

// Search runs a search request and returns the raw response body.
func (c *Client) Search(ctx context.Context, index string, body map[string]any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}
	return c.perform(ctx, engine.OpSearch, http.MethodPost,
		"/"+url.PathEscape(index)+"/_search", payload, contentTypeJSON)
}

// Count runs a count request.
func (c *Client) Count(ctx context.Context, index string, body map[string]any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("encode count request: %w", err)
	}
	data, err := c.perform(ctx, engine.OpCount, http.MethodPost,
		"/"+url.PathEscape(index)+"/_count", payload, contentTypeJSON)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, engine.Transport(engine.OpCount, 0, fmt.Errorf("decode count response: %w", err))
	}
	return resp.Count, nil
}
