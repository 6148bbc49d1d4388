package publisher

import (
	"context"

	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/dto"
)

// Header names set on every record
const (
	HeaderEventType = "event_type"
	HeaderSource    = "source"

	sourceName          = "checkin-service"
	alertFiredEventType = "venue.alert.fired"
)

// JSONProducer is the subset of pkg/kafka.Producer used here
type JSONProducer interface {
	ProduceJSON(ctx context.Context, topic, key string, value any, headers map[string]string) error
}

// KafkaPublisher writes events to Kafka. Admissions are keyed by session
// so one session's feed stays ordered; alerts are keyed by venue.
type KafkaPublisher struct {
	producer     JSONProducer
	checkInTopic string
	alertTopic   string
}

// NewKafkaPublisher creates a KafkaPublisher
func NewKafkaPublisher(producer JSONProducer, checkInTopic, alertTopic string) *KafkaPublisher {
	return &KafkaPublisher{
		producer:     producer,
		checkInTopic: checkInTopic,
		alertTopic:   alertTopic,
	}
}

// PublishAdmission produces event to the check-in topic
func (p *KafkaPublisher) PublishAdmission(ctx context.Context, event *dto.AdmissionEvent) error {
	return p.producer.ProduceJSON(ctx, p.checkInTopic, event.SessionID, event, map[string]string{
		HeaderEventType: string(event.Type),
		HeaderSource:    sourceName,
	})
}

// PublishAlert produces event to the alert topic for the dispatcher
func (p *KafkaPublisher) PublishAlert(ctx context.Context, event *dto.AlertFiredEvent) error {
	return p.producer.ProduceJSON(ctx, p.alertTopic, event.VenueID, event, map[string]string{
		HeaderEventType: alertFiredEventType,
		HeaderSource:    sourceName,
	})
}
