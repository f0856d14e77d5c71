package opensearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crindex/internal/domain/bulk"
	"github.com/kailas-cloud/crindex/internal/engine"
)

const conflictType = "version_conflict_engine_exception"

type bulkResponse struct {
	Errors bool                  `json:"errors"`
	Items  []map[string]bulkItem `json:"items"`
}

type bulkItem struct {
	ID     string       `json:"_id"`
	Status int          `json:"status"`
	Error  *engineError `json:"error"`
}

// Bulk submits operations as one NDJSON batch and maps the per-item response
// back to the input order.
func (c *Client) Bulk(ctx context.Context, ops []bulk.Operation) ([]bulk.Result, error) {
	if len(ops) == 0 {
		return nil, nil
	}

	payload, err := bulk.Encode(ops)
	if err != nil {
		return nil, fmt.Errorf("encode bulk: %w", err)
	}

	data, err := c.perform(ctx, engine.OpBulk, http.MethodPost, "/_bulk", payload, contentTypeNDJSON)
	if err != nil {
		return nil, err
	}

	var resp bulkResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, engine.Transport(engine.OpBulk, 0, fmt.Errorf("decode bulk response: %w", err))
	}

	results := make([]bulk.Result, len(ops))
	for i, op := range ops {
		if i >= len(resp.Items) {
			results[i] = bulk.NewError(op.Action(), op.ID(),
				engine.Transport(engine.OpBulk, 0, errors.New("missing item in bulk response")))
			continue
		}
		results[i] = itemResult(op, resp.Items[i])
	}

	if resp.Errors {
		c.logger.Warn("Bulk request finished with item errors",
			zap.Int("operations", len(ops)),
			zap.Int("failed", bulk.Failed(results)),
		)
	}
	return results, nil
}

func itemResult(op bulk.Operation, item map[string]bulkItem) bulk.Result {
	it, ok := item[string(op.Action())]
	if !ok {
		for _, v := range item {
			it = v
			break
		}
	}
	if it.Error == nil {
		return bulk.NewOK(op.Action(), op.ID())
	}

	cause := errors.New(it.Error.Type + ": " + it.Error.Reason)
	if it.Error.Type == conflictType {
		return bulk.NewError(op.Action(), op.ID(), engine.Conflict(engine.OpBulk, cause))
	}
	return bulk.NewError(op.Action(), op.ID(), engine.Transport(engine.OpBulk, it.Status, cause))
}
