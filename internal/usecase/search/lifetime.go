package search

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/kailas-cloud/crindex/internal/domain/document"
	"github.com/kailas-cloud/crindex/internal/domain/search/request"
	"github.com/kailas-cloud/crindex/internal/metrics"
)

const minTimeAggregation = "minTime"

// CacheLifetime returns how long the current result stays valid: the time
// until the nearest future hidden-before or hidden-after timestamp among the
// matching documents, in whole seconds. Zero means no change is scheduled.
func (b *Builder) CacheLifetime(ctx context.Context) (time.Duration, error) {
	if b.err != nil {
		return 0, b.err
	}
	index, err := b.index()
	if err != nil {
		return 0, err
	}

	now := b.svc.now()
	var nearest time.Time
	for _, field := range []string{document.FieldHiddenBefore, document.FieldHiddenAfter} {
		ts, err := b.nearestFutureDate(ctx, index, field)
		if err != nil {
			return 0, err
		}
		if ts.IsZero() {
			continue
		}
		if nearest.IsZero() || ts.Before(nearest) {
			nearest = ts
		}
	}
	if nearest.IsZero() {
		return 0, nil
	}
	secs := math.Floor(nearest.Sub(now).Seconds())
	if secs < 0 {
		return 0, nil
	}
	return time.Duration(secs) * time.Second, nil
}

// nearestFutureDate returns the smallest future value of field among the
// documents the request matches, including documents not yet visible.
func (b *Builder) nearestFutureDate(ctx context.Context, index, field string) (time.Time, error) {
	req := b.req.Clone()
	if err := req.QueryFilter("range", map[string]any{field: map[string]any{"gt": "now"}}, string(request.Must)); err != nil {
		return time.Time{}, err
	}
	if err := req.Aggregation(minTimeAggregation, map[string]any{"min": map[string]any{"field": field}}, ""); err != nil {
		return time.Time{}, err
	}
	req.SetSize(0)
	req.RemoveFilters(request.MustNot, func(f map[string]any) bool {
		r, ok := f["range"].(map[string]any)
		if !ok {
			return false
		}
		_, ok = r[document.FieldHiddenBefore]
		return ok
	})

	start := time.Now()
	raw, err := b.svc.searcher.Search(ctx, index, req.Map())
	metrics.QueryDuration.WithLabelValues(opCacheLifetime).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QueryFailuresTotal.WithLabelValues(opCacheLifetime).Inc()
		return time.Time{}, fmt.Errorf("%s query on %s: %w", opCacheLifetime, field, err)
	}
	return parseMinTime(raw)
}

func parseMinTime(raw []byte) (time.Time, error) {
	var resp struct {
		Aggregations map[string]struct {
			Value         *float64 `json:"value"`
			ValueAsString string   `json:"value_as_string"`
		} `json:"aggregations"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return time.Time{}, fmt.Errorf("decode %s response: %w", opCacheLifetime, err)
	}
	agg, ok := resp.Aggregations[minTimeAggregation]
	if !ok {
		return time.Time{}, nil
	}
	if agg.ValueAsString != "" {
		if ts, err := time.Parse(time.RFC3339, agg.ValueAsString); err == nil {
			return ts, nil
		}
	}
	if agg.Value != nil && *agg.Value > 0 {
		return time.UnixMilli(int64(*agg.Value)).UTC(), nil
	}
	return time.Time{}, nil
}
