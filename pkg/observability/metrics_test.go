package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/observability"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbtree"
)

func newReader(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

// counterValue sums the data points whose attributes include every want pair.
func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string, want ...attribute.KeyValue) int64 {
	t.Helper()

	found := findMetric(rm, name)
	require.NotNil(t, found, "%s not found", name)

	sum, ok := found.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", name)

	var total int64

	for _, point := range sum.DataPoints {
		matches := true

		for _, kv := range want {
			value, present := point.Attributes.Value(kv.Key)
			matches = matches && present && value == kv.Value
		}

		if matches {
			total += point.Value
		}
	}

	return total
}

func TestREDMetricsFromSynced(t *testing.T) {
	t.Parallel()

	mp, reader := newReader(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	tree := rbtree.NewSynced(rbtree.New[int](nil), red)

	tree.Insert(ctx, 1)
	tree.Insert(ctx, 2)
	tree.Contains(ctx, 1)
	tree.Contains(ctx, 9)
	tree.Delete(ctx, 9)
	tree.Delete(ctx, 2)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(6), counterValue(t, rm, "redblack.operations.total"))
	assert.Equal(t, int64(2), counterValue(t, rm, "redblack.operations.total", attribute.String("op", "insert")))
	assert.Equal(t, int64(1), counterValue(t, rm, "redblack.operations.total",
		attribute.String("op", "delete"), attribute.String("status", "ok")))
	assert.Equal(t, int64(2), counterValue(t, rm, "redblack.misses.total"))
	assert.Equal(t, int64(0), counterValue(t, rm, "redblack.inflight.operations"))

	duration := findMetric(rm, "redblack.operation.duration.seconds")
	require.NotNil(t, duration)

	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)

	var samples uint64
	for _, point := range hist.DataPoints {
		samples += point.Count
	}

	assert.Equal(t, uint64(6), samples)
}

func TestREDMetricsTrackInflight(t *testing.T) {
	t.Parallel()

	mp, reader := newReader(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	done := red.TrackInflight(context.Background(), "insert")
	assert.Equal(t, int64(1), counterValue(t, collectMetrics(t, reader), "redblack.inflight.operations"))

	done()
	assert.Equal(t, int64(0), counterValue(t, collectMetrics(t, reader), "redblack.inflight.operations"))
}

func TestTreeMetricsRecordRound(t *testing.T) {
	t.Parallel()

	mp, reader := newReader(t)

	tm, err := observability.NewTreeMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	tm.RecordRound(ctx, observability.TreeShape{Nodes: 35, Height: 7, BlackHeight: 4})
	tm.RecordRound(ctx, observability.TreeShape{Nodes: 0, Height: 8, BlackHeight: 4})

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), counterValue(t, rm, "redblack.stress.rounds.total"))

	height := findMetric(rm, "redblack.tree.height")
	require.NotNil(t, height)

	gauge, ok := height.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(8), gauge.DataPoints[0].Value)
}

func TestTreeMetricsNilReceiver(t *testing.T) {
	t.Parallel()

	var tm *observability.TreeMetrics

	assert.NotPanics(t, func() { tm.RecordRound(context.Background(), observability.TreeShape{}) })
}

func TestREDMetricsWithNoopMeter(t *testing.T) {
	t.Parallel()

	providers, err := observability.Init(observability.DefaultConfig())
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	red, err := observability.NewREDMetrics(providers.Meter)
	require.NoError(t, err)

	red.RecordRequest(context.Background(), rbtree.OpSearch, rbtree.StatusNotFound, time.Microsecond)
}
