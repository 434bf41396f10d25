package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"autoease/internal/common/config"
	apperrors "autoease/internal/common/errors"
	"autoease/internal/common/logger"
	"autoease/internal/models"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func createBooking() models.BookingRecord {
	return models.BookingRecord{
		ID:       "booking-1",
		TimeSlot: "10:00 AM",
		Service:  models.ServiceOilChange,
		CarType:  models.CarTypeSUV,
		Station: models.RankedStation{
			Station: models.Station{ID: "station-2", Name: "QuickFix Garage"},
			Rank:    8,
			Reason:  "Close match",
		},
	}
}

func TestKafkaPublisher_PublishBookingConfirmed(t *testing.T) {
	w := new(mockWriter)
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	w.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 || string(msgs[0].Key) != "booking-1" {
			return false
		}
		var event models.BookingEvent
		if err := json.Unmarshal(msgs[0].Value, &event); err != nil {
			return false
		}
		return event.EventType == models.BookingConfirmedEvent &&
			event.SessionID == "session-9" &&
			event.Booking.Station.ID == "station-2" &&
			event.Timestamp.Equal(fixed)
	})).Return(nil)

	p := NewKafkaPublisher(w, "bookings.confirmed", logger.NewTestLogger(t))
	p.now = func() time.Time { return fixed }

	require.NoError(t, p.PublishBookingConfirmed(context.Background(), "session-9", createBooking()))
	w.AssertExpectations(t)
}

func TestKafkaPublisher_WriteFailure(t *testing.T) {
	w := new(mockWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker unreachable"))

	err := NewKafkaPublisher(w, "bookings.confirmed", logger.NewTestLogger(t)).
		PublishBookingConfirmed(context.Background(), "s", createBooking())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeEventPublishFailed, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "bookings.confirmed")
}

func TestNewPublisherFromConfig(t *testing.T) {
	p := NewPublisherFromConfig(config.KafkaConfig{}, logger.NewTestLogger(t))
	assert.IsType(t, NoopPublisher{}, p)
	assert.NoError(t, p.PublishBookingConfirmed(context.Background(), "s", createBooking()))

	p = NewPublisherFromConfig(config.KafkaConfig{Enabled: true, Brokers: []string{"localhost:9092"}, Topic: "t"}, logger.NewTestLogger(t))
	kp, ok := p.(*KafkaPublisher)
	require.True(t, ok)
	writer, ok := kp.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "t", writer.Topic)
	assert.NoError(t, p.Close())
}
