package service

import (
	"context"
	"time"

	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/telemetry"
)

// DefaultStoreTimeout bounds a single store call when none is configured
const DefaultStoreTimeout = 5 * time.Second

// callStore runs fn under timeout. Any failure, including the deadline,
// is reported as STORE_UNAVAILABLE.
func callStore[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, domain.StoreUnavailable(err)
	}
	return v, nil
}

// resultOf classifies err for the operations counter
func resultOf(err error, success string) (string, string) {
	if err == nil {
		return success, ""
	}
	if ce, ok := domain.AsCheckInError(err); ok {
		if ce.Kind == domain.KindTransient {
			return telemetry.ResultError, ce.Code
		}
		return telemetry.ResultRejected, ce.Code
	}
	return telemetry.ResultError, ""
}

func recordOperation(ctx context.Context, m *telemetry.CheckInMetrics, op string, started time.Time, err error, success string) {
	if m == nil {
		return
	}
	result, code := resultOf(err, success)
	m.Operations.Inc(ctx,
		telemetry.OperationAttr(op),
		telemetry.CheckInResultAttr(result),
		telemetry.ReasonCodeAttr(code),
	)
	m.Latency.Record(ctx, float64(time.Since(started).Microseconds())/1000, telemetry.OperationAttr(op))
}
