package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/dto"
	goredis "github.com/redis/go-redis/v9"
)

// MessagePublisher is the subset of pkg/redis.Client used here
type MessagePublisher interface {
	Publish(ctx context.Context, channel string, message any) error
}

// SessionChannel is the Pub/Sub channel carrying a session's admissions
func SessionChannel(prefix, sessionID string) string {
	return fmt.Sprintf("%s:session:%s", prefix, sessionID)
}

// VenueAlertChannel is the Pub/Sub channel carrying a venue's fired alerts
func VenueAlertChannel(prefix, venueID string) string {
	return fmt.Sprintf("%s:venue:%s:alerts", prefix, venueID)
}

// RedisPublisher feeds the live dashboards over Redis Pub/Sub
type RedisPublisher struct {
	client MessagePublisher
	prefix string
}

// NewRedisPublisher creates a RedisPublisher
func NewRedisPublisher(client MessagePublisher, prefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix}
}

// PublishAdmission publishes event on the session channel
func (p *RedisPublisher) PublishAdmission(ctx context.Context, event *dto.AdmissionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal admission event: %w", err)
	}
	return p.client.Publish(ctx, SessionChannel(p.prefix, event.SessionID), payload)
}

// PublishAlert publishes event on the venue alert channel
func (p *RedisPublisher) PublishAlert(ctx context.Context, event *dto.AlertFiredEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}
	return p.client.Publish(ctx, VenueAlertChannel(p.prefix, event.VenueID), payload)
}

// Subscriber is the subset of pkg/redis.Client used by the feed
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *goredis.PubSub
}

// RedisFeed streams a session's admission events from Redis Pub/Sub
type RedisFeed struct {
	client Subscriber
	prefix string
}

// NewRedisFeed creates a RedisFeed
func NewRedisFeed(client Subscriber, prefix string) *RedisFeed {
	return &RedisFeed{client: client, prefix: prefix}
}

// Subscribe returns raw JSON payloads published for sessionID. The channel
// is closed when ctx ends or the returned stop func is called.
func (f *RedisFeed) Subscribe(ctx context.Context, sessionID string) (<-chan []byte, func(), error) {
	sub := f.client.Subscribe(ctx, SessionChannel(f.prefix, sessionID))
	// wait for the subscription confirmation so no message published
	// after Subscribe returns is missed
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to session %s: %w", sessionID, err)
	}

	out := make(chan []byte)
	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}

	go func() {
		defer close(out)
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				stop()
				return
			case <-done:
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					stop()
					return
				case <-done:
					return
				}
			}
		}
	}()

	return out, stop, nil
}
