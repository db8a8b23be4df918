// Package notification fans committed ledger events out to subscribers.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"paytrack/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	EventPaymentRecorded = "payment.recorded"
	DefaultChannel       = "paytrack.payments"
	publishTimeout       = 2 * time.Second
)

// Event is the envelope published on the events channel.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payment    *models.Payment `json:"payment"`
}

// RedisPublisher is the subset of the Redis client used for publishing.
type RedisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Service publishes ledger events to a Redis pub/sub channel.
type Service struct {
	client  RedisPublisher
	channel string
	now     func() time.Time
}

// NewService creates a new notification service.
func NewService(client RedisPublisher, channel string) *Service {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Service{
		client:  client,
		channel: channel,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// PublishPaymentRecorded announces a committed payment.
func (s *Service) PublishPaymentRecorded(ctx context.Context, payment *models.Payment) error {
	body, err := json.Marshal(s.newEvent(EventPaymentRecorded, payment))
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.client.Publish(ctx, s.channel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", EventPaymentRecorded, err)
	}
	return nil
}

func (s *Service) newEvent(eventType string, payment *models.Payment) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: s.now(),
		Payment:    payment,
	}
}

// NoopService drops every event. Used when Redis is disabled.
type NoopService struct{}

func (NoopService) PublishPaymentRecorded(context.Context, *models.Payment) error { return nil }
