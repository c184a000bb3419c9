package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"

	"github.com/storefront/cartsync/internal/infrastructure/telemetry"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{ServiceName: "cartsync"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Provider())
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{ServiceName: "cartsync"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestNewSyncMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.NewSyncMetrics(nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestSyncMetrics_NoopMeter(t *testing.T) {
	m, err := telemetry.NewSyncMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordRemote(ctx, "add", nil)
	m.RecordFallback(ctx, "add")
	m.RecordRejected(ctx, "busy")

	var nilMetrics *telemetry.SyncMetrics
	nilMetrics.RecordRemote(ctx, "add", errors.New("x"))
}

func TestSyncMetrics_Counts(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := telemetry.NewSyncMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordRemote(ctx, "add", nil)
	m.RecordRemote(ctx, "add", errors.New("down"))
	m.RecordRemote(ctx, "add", errors.New("down"))
	m.RecordFallback(ctx, "add")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]map[attribute.Distinct]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			data, ok := md.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			sums[md.Name] = map[attribute.Distinct]int64{}
			for _, dp := range data.DataPoints {
				sums[md.Name][dp.Attributes.Equivalent()] = dp.Value
			}
		}
	}

	failed := attribute.NewSet(attribute.String("operation", "add"), attribute.String("outcome", "failure"))
	ok := attribute.NewSet(attribute.String("operation", "add"), attribute.String("outcome", "success"))
	assert.Equal(t, int64(2), sums["cart_remote_operations_total"][failed.Equivalent()])
	assert.Equal(t, int64(1), sums["cart_remote_operations_total"][ok.Equivalent()])

	fb := attribute.NewSet(attribute.String("operation", "add"))
	assert.Equal(t, int64(1), sums["cart_local_fallbacks_total"][fb.Equivalent()])
}
