package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a nil meter is passed to NewSyncMetrics
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Outcome labels for remote operations
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// SyncMetrics counts how cart mutations were resolved.
type SyncMetrics struct {
	remoteOps *metricCounter
	fallbacks *metricCounter
	rejected  *metricCounter
}

type metricCounter struct {
	counter metric.Int64Counter
}

func newCounter(m metric.Meter, name, desc string) (*metricCounter, error) {
	c, err := m.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("{operation}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return &metricCounter{counter: c}, nil
}

func (c *metricCounter) inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// NewSyncMetrics registers the cart synchronization instruments on meter
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	remoteOps, err := newCounter(meter, "cart_remote_operations_total",
		"Remote cart service calls by operation and outcome")
	if err != nil {
		return nil, err
	}
	fallbacks, err := newCounter(meter, "cart_local_fallbacks_total",
		"Mutations resolved against the local store after a remote failure")
	if err != nil {
		return nil, err
	}
	rejected, err := newCounter(meter, "cart_rejected_mutations_total",
		"Mutations rejected before reaching the remote service")
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{remoteOps: remoteOps, fallbacks: fallbacks, rejected: rejected}, nil
}

// RecordRemote counts one remote call
func (m *SyncMetrics) RecordRemote(ctx context.Context, operation string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.remoteOps.inc(ctx,
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
}

// RecordFallback counts one local-only resolution
func (m *SyncMetrics) RecordFallback(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.fallbacks.inc(ctx, attribute.String("operation", operation))
}

// RecordRejected counts one rejected mutation
func (m *SyncMetrics) RecordRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.rejected.inc(ctx, attribute.String("reason", reason))
}
