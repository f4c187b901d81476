package engine

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for merge operations. Both are no-ops
// until the host installs providers.
var (
	tracer = otel.Tracer("perfmodel.engine")
	meter  = otel.Meter("perfmodel.engine")
)

var (
	mergeLatency metric.Float64Histogram
	mergeTotal   metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		mergeLatency, err = meter.Float64Histogram(
			"perfmodel_merge_duration_seconds",
			metric.WithDescription("Duration of trace merges"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		mergeTotal, err = meter.Int64Counter(
			"perfmodel_merge_total",
			metric.WithDescription("Total number of trace merges by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startMergeSpan creates a span for one trace merge.
func startMergeSpan(ctx context.Context, scenario string, traceID int64) (context.Context, oteltrace.Span) {
	return tracer.Start(ctx, "Session.Merge",
		oteltrace.WithAttributes(
			attribute.String("perfmodel.scenario", scenario),
			attribute.Int64("perfmodel.trace_id", traceID),
		),
	)
}

// setMergeSpanResult sets the result attributes on a merge span.
func setMergeSpanResult(span oteltrace.Span, res Result, err error) {
	span.SetAttributes(
		attribute.String("perfmodel.outcome", string(res.Outcome)),
		attribute.String("perfmodel.interaction", res.Interaction),
	)
	if err != nil {
		span.RecordError(err)
	}
}

// recordMergeMetrics records metrics for one trace merge.
func recordMergeMetrics(ctx context.Context, duration time.Duration, outcome Outcome) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("outcome", string(outcome)),
	)
	mergeLatency.Record(ctx, duration.Seconds(), attrs)
	mergeTotal.Add(ctx, 1, attrs)
}
