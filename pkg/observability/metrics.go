package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricOperationsTotal   = "redblack.operations.total"
	metricOperationDuration = "redblack.operation.duration.seconds"
	metricMissesTotal       = "redblack.misses.total"
	metricInflight          = "redblack.inflight.operations"
	metricTreeNodes         = "redblack.tree.nodes"
	metricTreeHeight        = "redblack.tree.height"
	metricTreeBlackHeight   = "redblack.tree.black_height"
	metricRoundsTotal       = "redblack.stress.rounds.total"

	attrOp     = "op"
	attrStatus = "status"

	statusNotFound = "not_found"
)

// durationBucketBoundaries covers 100ns to 10ms: single tree operations, lock
// wait included.
var durationBucketBoundaries = []float64{
	1e-7, 2.5e-7, 5e-7, 1e-6, 2.5e-6, 5e-6, 1e-5, 2.5e-5, 5e-5, 1e-4, 2.5e-4, 1e-3, 1e-2,
}

// REDMetrics holds the Rate, Error and Duration instruments of tree
// operations. A delete or search that finds nothing counts as a miss.
type REDMetrics struct {
	operationsTotal   metric.Int64Counter
	operationDuration metric.Float64Histogram
	missesTotal       metric.Int64Counter
	inflight          metric.Int64UpDownCounter
}

// NewREDMetrics creates RED metric instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	ops, err := mt.Int64Counter(metricOperationsTotal,
		metric.WithDescription("Tree operations by op and status"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOperationsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricOperationDuration,
		metric.WithDescription("Tree operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOperationDuration, err)
	}

	misses, err := mt.Int64Counter(metricMissesTotal,
		metric.WithDescription("Deletes and searches of absent keys"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricMissesTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflight,
		metric.WithDescription("Operations currently running or waiting for the lock"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflight, err)
	}

	return &REDMetrics{
		operationsTotal:   ops,
		operationDuration: duration,
		missesTotal:       misses,
		inflight:          inflight,
	}, nil
}

// RecordRequest records one completed operation.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.operationsTotal.Add(ctx, 1, attrs)
	rm.operationDuration.Record(ctx, duration.Seconds(), attrs)

	if status == statusNotFound {
		rm.missesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight increments the in-flight gauge and returns its decrement.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflight.Add(ctx, 1, attrs)

	return func() {
		rm.inflight.Add(ctx, -1, attrs)
	}
}

// TreeMetrics reports the shape of a tree under load.
type TreeMetrics struct {
	nodes       metric.Int64Gauge
	height      metric.Int64Gauge
	blackHeight metric.Int64Gauge
	rounds      metric.Int64Counter
}

// TreeShape is one sample of TreeMetrics.
type TreeShape struct {
	Nodes       int
	Height      int
	BlackHeight int
}

// NewTreeMetrics creates the shape instruments from the given meter.
func NewTreeMetrics(mt metric.Meter) (*TreeMetrics, error) {
	nodes, err := mt.Int64Gauge(metricTreeNodes, metric.WithDescription("Nodes in the tree"), metric.WithUnit("{node}"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTreeNodes, err)
	}

	height, err := mt.Int64Gauge(metricTreeHeight, metric.WithDescription("Highest height seen"), metric.WithUnit("{node}"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTreeHeight, err)
	}

	blackHeight, err := mt.Int64Gauge(metricTreeBlackHeight,
		metric.WithDescription("Highest black height seen"), metric.WithUnit("{node}"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTreeBlackHeight, err)
	}

	rounds, err := mt.Int64Counter(metricRoundsTotal,
		metric.WithDescription("Completed stress rounds"), metric.WithUnit("{round}"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRoundsTotal, err)
	}

	return &TreeMetrics{nodes: nodes, height: height, blackHeight: blackHeight, rounds: rounds}, nil
}

// RecordRound records a finished stress round. Safe on a nil receiver.
func (tm *TreeMetrics) RecordRound(ctx context.Context, shape TreeShape) {
	if tm == nil {
		return
	}

	tm.rounds.Add(ctx, 1)
	tm.nodes.Record(ctx, int64(shape.Nodes))
	tm.height.Record(ctx, int64(shape.Height))
	tm.blackHeight.Record(ctx, int64(shape.BlackHeight))
}
