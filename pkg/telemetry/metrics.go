package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricOpts holds options for creating metrics
type MetricOpts struct {
	Name        string
	Description string
	Unit        string
}

// Counter wraps an OTel counter
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a new counter metric
func NewCounter(opts MetricOpts) (*Counter, error) {
	counter, err := GetMeter().Int64Counter(
		opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &Counter{counter: counter}, nil
}

// Add increments the counter by the given value
func (c *Counter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// Inc increments the counter by 1
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Histogram wraps an OTel float histogram
type Histogram struct {
	histogram metric.Float64Histogram
}

// NewHistogram creates a new histogram metric. Boundaries are optional.
func NewHistogram(opts MetricOpts, boundaries ...float64) (*Histogram, error) {
	options := []metric.Float64HistogramOption{
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	}
	if len(boundaries) > 0 {
		options = append(options, metric.WithExplicitBucketBoundaries(boundaries...))
	}

	histogram, err := GetMeter().Float64Histogram(opts.Name, options...)
	if err != nil {
		return nil, err
	}
	return &Histogram{histogram: histogram}, nil
}

// Record records a value in the histogram
func (h *Histogram) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}

// Metric attribute keys
const (
	AttrCheckInResult = "checkin.result"
	AttrReasonCode    = "checkin.reason_code"
	AttrOperation     = "checkin.operation"
	AttrSessionID     = "session.id"
	AttrVenueID       = "venue.id"
	AttrAlertCategory = "alert.category"
	AttrValidation    = "validation.kind"
	AttrSink          = "publish.sink"
)

// Check-in results
const (
	ResultAdmitted = "admitted"
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

func CheckInResultAttr(result string) attribute.KeyValue {
	return attribute.String(AttrCheckInResult, result)
}

func ReasonCodeAttr(code string) attribute.KeyValue {
	return attribute.String(AttrReasonCode, code)
}

func OperationAttr(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

func SessionIDAttr(id string) attribute.KeyValue {
	return attribute.String(AttrSessionID, id)
}

func VenueIDAttr(id string) attribute.KeyValue {
	return attribute.String(AttrVenueID, id)
}

func AlertCategoryAttr(category string) attribute.KeyValue {
	return attribute.String(AttrAlertCategory, category)
}

func ValidationAttr(kind string) attribute.KeyValue {
	return attribute.String(AttrValidation, kind)
}

func SinkAttr(sink string) attribute.KeyValue {
	return attribute.String(AttrSink, sink)
}

// Latency buckets in milliseconds, tuned for a gate scan round trip
var latencyBucketsMs = []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// CheckInMetrics groups the instruments recorded by the check-in service
type CheckInMetrics struct {
	Operations      *Counter
	Latency         *Histogram
	ValidationRuns  *Counter
	AlertsFired     *Counter
	PublishFailures *Counter
}

// NewCheckInMetrics registers the check-in instruments on the global meter
func NewCheckInMetrics() (*CheckInMetrics, error) {
	var (
		m   CheckInMetrics
		err error
	)

	if m.Operations, err = NewCounter(MetricOpts{
		Name:        "checkin_operations_total",
		Description: "Check-in operations by operation and result",
		Unit:        "1",
	}); err != nil {
		return nil, err
	}
	if m.Latency, err = NewHistogram(MetricOpts{
		Name:        "checkin_operation_duration_ms",
		Description: "Check-in operation latency",
		Unit:        "ms",
	}, latencyBucketsMs...); err != nil {
		return nil, err
	}
	if m.ValidationRuns, err = NewCounter(MetricOpts{
		Name:        "venue_validation_runs_total",
		Description: "Venue validation checks executed",
		Unit:        "1",
	}); err != nil {
		return nil, err
	}
	if m.AlertsFired, err = NewCounter(MetricOpts{
		Name:        "venue_alerts_fired_total",
		Description: "Venue alerts that fired",
		Unit:        "1",
	}); err != nil {
		return nil, err
	}
	if m.PublishFailures, err = NewCounter(MetricOpts{
		Name:        "checkin_publish_failures_total",
		Description: "Events that could not be published",
		Unit:        "1",
	}); err != nil {
		return nil, err
	}

	return &m, nil
}
