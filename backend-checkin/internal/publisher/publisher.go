package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/dto"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/logger"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/telemetry"
	"go.uber.org/zap"
)

// Publisher delivers check-in and alert events to one destination
type Publisher interface {
	PublishAdmission(ctx context.Context, event *dto.AdmissionEvent) error
	PublishAlert(ctx context.Context, event *dto.AlertFiredEvent) error
}

type sink struct {
	name string
	pub  Publisher
}

// Multi fans events out to every registered sink. One failing sink does
// not stop delivery to the others.
type Multi struct {
	sinks   []sink
	metrics *telemetry.CheckInMetrics
	log     *logger.Logger
}

// NewMulti creates an empty fan-out publisher
func NewMulti(log *logger.Logger, metrics *telemetry.CheckInMetrics) *Multi {
	if log == nil {
		log = logger.Nop()
	}
	return &Multi{metrics: metrics, log: log}
}

// Add registers a sink under name
func (m *Multi) Add(name string, pub Publisher) *Multi {
	m.sinks = append(m.sinks, sink{name: name, pub: pub})
	return m
}

// Len returns the number of sinks
func (m *Multi) Len() int {
	return len(m.sinks)
}

// PublishAdmission sends event to every sink
func (m *Multi) PublishAdmission(ctx context.Context, event *dto.AdmissionEvent) error {
	return m.each(ctx, func(p Publisher) error { return p.PublishAdmission(ctx, event) })
}

// PublishAlert sends event to every sink
func (m *Multi) PublishAlert(ctx context.Context, event *dto.AlertFiredEvent) error {
	return m.each(ctx, func(p Publisher) error { return p.PublishAlert(ctx, event) })
}

func (m *Multi) each(ctx context.Context, fn func(Publisher) error) error {
	var errs []error
	for _, s := range m.sinks {
		if err := fn(s.pub); err != nil {
			if m.metrics != nil {
				m.metrics.PublishFailures.Inc(ctx, telemetry.SinkAttr(s.name))
			}
			m.log.WarnContext(ctx, "Publish failed", zap.String("sink", s.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}
