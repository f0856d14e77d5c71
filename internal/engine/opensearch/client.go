package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/crindex/internal/engine"
)

// Compile-time checks.
var (
	_ engine.Bulker   = (*Client)(nil)
	_ engine.Searcher = (*Client)(nil)
	_ engine.Pinger   = (*Client)(nil)
)

const (
	contentTypeJSON   = "application/json"
	contentTypeNDJSON = "application/x-ndjson"
)

// Config holds connection parameters for the engine.
type Config struct {
	Addrs      []string
	Username   string
	Password   string
	MaxRetries int
	Timeout    time.Duration
	// Transport overrides the HTTP round tripper (tests, custom TLS).
	Transport http.RoundTripper
}

// Client talks to an OpenSearch / Elasticsearch compatible engine over its REST API.
type Client struct {
	client  *opensearch.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient creates an engine client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:  cfg.Addrs,
		Username:   cfg.Username,
		Password:   cfg.Password,
		MaxRetries: cfg.MaxRetries,
		Transport:  cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Client{client: client, timeout: cfg.Timeout, logger: logger}, nil
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.perform(ctx, engine.OpPing, http.MethodGet, "/", nil, ""); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until the engine responds or timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := c.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for search engine: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// perform sends one request and returns the body of a successful response.
// Any network failure or non-2xx status is an engine transport error.
func (c *Client) perform(
	ctx context.Context,
	op, method, path string,
	body []byte,
	contentType string,
) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, path, reader)
	if err != nil {
		return nil, engine.Transport(op, 0, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	res, err := c.client.Perform(req)
	if err != nil {
		return nil, engine.Transport(op, 0, err)
	}
	defer func() { _ = res.Body.Close() }()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, engine.Transport(op, res.StatusCode, fmt.Errorf("read response: %w", err))
	}
	if res.StatusCode >= http.StatusMultipleChoices {
		return nil, engine.Transport(op, res.StatusCode, errors.New(errorReason(data)))
	}
	return data, nil
}

// errorReason extracts error.reason from an engine error body.
func errorReason(data []byte) string {
	var e struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &e); err != nil || len(e.Error) == 0 {
		if len(data) > 256 {
			data = data[:256]
		}
		return string(data)
	}
	var detail engineError
	if err := json.Unmarshal(e.Error, &detail); err == nil && detail.Reason != "" {
		return detail.Type + ": " + detail.Reason
	}
	return string(e.Error)
}

type engineError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}
