package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestInspectionMetrics(t *testing.T) (*InspectionMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewInspectionMetrics(provider.Meter(inspectionMeterName))
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestInspectionMetrics_Counters(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestInspectionMetrics(t)

	m.RecordFichaCreated(ctx, "online")
	m.RecordFichaCreated(ctx, "offline")
	m.RecordTransition(ctx, "submit_for_review", "revision")
	m.RecordTransition(ctx, "approve", "aprobado")
	m.RecordTransition(ctx, "approve", "aprobado")
	m.RecordApprovalReverted(ctx)
	m.RecordSurfaceErrors(ctx, 3)
	m.RecordSurfaceErrors(ctx, 0)

	metrics := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, metrics["ficha_created_total"]))
	assert.Equal(t, int64(3), sumOf(t, metrics["ficha_transitions_total"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["ficha_approval_reverted_total"]))
	assert.Equal(t, int64(3), sumOf(t, metrics["ficha_surface_errors_total"]))

	transitions := metrics["ficha_transitions_total"].Data.(metricdata.Sum[int64])
	assert.Len(t, transitions.DataPoints, 2, "one series per transition/status pair")
}

func TestInspectionMetrics_SyncDuration(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestInspectionMetrics(t)

	m.RecordSync(ctx, 120*time.Millisecond, nil)
	m.RecordSync(ctx, 2*time.Second, errors.New("boom"))

	hist, ok := collect(t, reader)["ficha_sync_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 2)

	outcomes := map[string]uint64{}
	for _, dp := range hist.DataPoints {
		v, _ := dp.Attributes.Value(AttrOutcome)
		outcomes[v.AsString()] = dp.Count
	}
	assert.Equal(t, map[string]uint64{"success": 1, "failure": 1}, outcomes)
}

func TestInspectionMetrics_NilIsNoop(t *testing.T) {
	var m *InspectionMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordFichaCreated(ctx, "online")
		m.RecordTransition(ctx, "approve", "aprobado")
		m.RecordApprovalReverted(ctx)
		m.RecordSurfaceErrors(ctx, 1)
		m.RecordSync(ctx, time.Second, nil)
	})
}
