package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// useManualReader installs a meter backed by a manual reader
func useManualReader(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	prev := globalTelemetry
	globalTelemetry = &Telemetry{meter: provider.Meter("test")}
	t.Cleanup(func() {
		globalTelemetry = prev
		_ = provider.Shutdown(context.Background())
	})
	return reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestCounter_Inc(t *testing.T) {
	reader := useManualReader(t)
	ctx := context.Background()

	c, err := NewCounter(MetricOpts{Name: "scans_total", Unit: "1"})
	require.NoError(t, err)
	c.Inc(ctx, CheckInResultAttr(ResultAdmitted))
	c.Inc(ctx, CheckInResultAttr(ResultAdmitted))
	c.Add(ctx, 3, CheckInResultAttr(ResultRejected))

	sum, ok := collect(t, reader)["scans_total"].(metricdata.Sum[int64])
	require.True(t, ok)

	byResult := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key(AttrCheckInResult))
		byResult[v.AsString()] = dp.Value
	}
	assert.Equal(t, int64(2), byResult[ResultAdmitted])
	assert.Equal(t, int64(3), byResult[ResultRejected])
}

func TestHistogram_Buckets(t *testing.T) {
	reader := useManualReader(t)

	h, err := NewHistogram(MetricOpts{Name: "latency_ms", Unit: "ms"}, 10, 100)
	require.NoError(t, err)
	h.Record(context.Background(), 5)
	h.Record(context.Background(), 50)

	hist, ok := collect(t, reader)["latency_ms"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, []float64{10, 100}, hist.DataPoints[0].Bounds)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
}

func TestNewCheckInMetrics(t *testing.T) {
	reader := useManualReader(t)
	ctx := context.Background()

	m, err := NewCheckInMetrics()
	require.NoError(t, err)

	m.Operations.Inc(ctx, OperationAttr("admit"), CheckInResultAttr(ResultAdmitted))
	m.Latency.Record(ctx, 12)
	m.ValidationRuns.Inc(ctx, ValidationAttr("capacity"))
	m.AlertsFired.Inc(ctx, AlertCategoryAttr("stock"))
	m.PublishFailures.Inc(ctx, SinkAttr("kafka"))

	data := collect(t, reader)
	for _, name := range []string{
		"checkin_operations_total",
		"checkin_operation_duration_ms",
		"venue_validation_runs_total",
		"venue_alerts_fired_total",
		"checkin_publish_failures_total",
	} {
		assert.Contains(t, data, name)
	}
}

func TestNewCheckInMetrics_NoopMeter(t *testing.T) {
	prev := globalTelemetry
	globalTelemetry = nil
	defer func() { globalTelemetry = prev }()

	m, err := NewCheckInMetrics()
	require.NoError(t, err)
	m.Operations.Inc(context.Background())
}

func TestAttributeHelpers(t *testing.T) {
	tests := []struct {
		attr attribute.KeyValue
		key  string
		want string
	}{
		{CheckInResultAttr("admitted"), AttrCheckInResult, "admitted"},
		{ReasonCodeAttr("EVENT_ENDED"), AttrReasonCode, "EVENT_ENDED"},
		{OperationAttr("revert"), AttrOperation, "revert"},
		{SessionIDAttr("s-1"), AttrSessionID, "s-1"},
		{VenueIDAttr("v-1"), AttrVenueID, "v-1"},
		{AlertCategoryAttr("capacity"), AttrAlertCategory, "capacity"},
		{ValidationAttr("schedule"), AttrValidation, "schedule"},
		{SinkAttr("redis"), AttrSink, "redis"},
	}

	for _, tt := range tests {
		assert.Equal(t, attribute.Key(tt.key), tt.attr.Key)
		assert.Equal(t, tt.want, tt.attr.Value.AsString())
	}
}
