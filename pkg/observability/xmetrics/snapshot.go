package xmetrics

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Point 一个数据点的扁平表示，用于 JSON 输出。
//
// Gauge/Sum 只填 Value；Histogram 的 Value 为总和，Count 为样本数。
type Point struct {
	Name  string            `json:"name"`
	Unit  string            `json:"unit,omitempty"`
	Attrs map[string]string `json:"attrs,omitempty"`
	Value float64           `json:"value"`
	Count uint64            `json:"count,omitempty"`
}

// Snapshot 从 reader 采集一次并展开为按名称排序的数据点。
func Snapshot(ctx context.Context, reader sdkmetric.Reader) ([]Point, error) {
	if reader == nil {
		return nil, ErrNilReader
	}
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("xmetrics: collect: %w", err)
	}
	var points []Point
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			points = appendPoints(points, m)
		}
	}
	slices.SortStableFunc(points, func(a, b Point) int {
		return strings.Compare(a.Name, b.Name)
	})
	return points, nil
}

func appendPoints(points []Point, m metricdata.Metrics) []Point {
	add := func(set attribute.Set, value float64, count uint64) {
		points = append(points, Point{
			Name:  m.Name,
			Unit:  m.Unit,
			Attrs: attrMap(set),
			Value: value,
			Count: count,
		})
	}
	switch data := m.Data.(type) {
	case metricdata.Gauge[int64]:
		for _, dp := range data.DataPoints {
			add(dp.Attributes, float64(dp.Value), 0)
		}
	case metricdata.Gauge[float64]:
		for _, dp := range data.DataPoints {
			add(dp.Attributes, dp.Value, 0)
		}
	case metricdata.Sum[int64]:
		for _, dp := range data.DataPoints {
			add(dp.Attributes, float64(dp.Value), 0)
		}
	case metricdata.Sum[float64]:
		for _, dp := range data.DataPoints {
			add(dp.Attributes, dp.Value, 0)
		}
	case metricdata.Histogram[float64]:
		for _, dp := range data.DataPoints {
			add(dp.Attributes, dp.Sum, dp.Count)
		}
	case metricdata.Histogram[int64]:
		for _, dp := range data.DataPoints {
			add(dp.Attributes, float64(dp.Sum), dp.Count)
		}
	}
	return points
}

func attrMap(set attribute.Set) map[string]string {
	if set.Len() == 0 {
		return nil
	}
	out := make(map[string]string, set.Len())
	for _, kv := range set.ToSlice() {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}
