// internal/common/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"time"

	"autoease/internal/common/config"
	apperrors "autoease/internal/common/errors"
	"autoease/internal/common/logger"
	"autoease/internal/models"

	"github.com/segmentio/kafka-go"
)

// Publisher announces confirmed bookings to downstream consumers.
type Publisher interface {
	PublishBookingConfirmed(ctx context.Context, sessionID string, booking models.BookingRecord) error
	Close() error
}

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer MessageWriter
	topic  string
	logger logger.Logger
	now    func() time.Time
}

// NewKafkaWriter builds the writer for the booking topic.
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
}

func NewKafkaPublisher(writer MessageWriter, topic string, log logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		topic:  topic,
		logger: log.WithFields(map[string]interface{}{"component": "booking-publisher", "topic": topic}),
		now:    time.Now,
	}
}

// NewPublisherFromConfig returns a Kafka publisher when enabled, otherwise a
// no-op one.
func NewPublisherFromConfig(cfg config.KafkaConfig, log logger.Logger) Publisher {
	if !cfg.Enabled {
		return NoopPublisher{}
	}
	return NewKafkaPublisher(NewKafkaWriter(cfg), cfg.Topic, log)
}

func (p *KafkaPublisher) PublishBookingConfirmed(ctx context.Context, sessionID string, booking models.BookingRecord) error {
	event := models.BookingEvent{
		EventType: models.BookingConfirmedEvent,
		SessionID: sessionID,
		Booking:   booking,
		Timestamp: p.now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return apperrors.NewEventPublishFailedError(p.topic, err)
	}

	msg := kafka.Message{
		Key:   []byte(booking.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(models.BookingConfirmedEvent)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish booking event", map[string]interface{}{
			"bookingId": booking.ID,
			"error":     err.Error(),
		})
		return apperrors.NewEventPublishFailedError(p.topic, err)
	}

	p.logger.Info("booking event published", map[string]interface{}{
		"bookingId": booking.ID,
		"sessionId": sessionID,
	})
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type NoopPublisher struct{}

func (NoopPublisher) PublishBookingConfirmed(context.Context, string, models.BookingRecord) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
