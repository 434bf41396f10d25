// internal/models/booking.go
package models

import (
	"fmt"
	"time"
)

// BookingRecord is created only once station, slot, service and car type
// are all present. It is never mutated afterwards.
type BookingRecord struct {
	ID          string        `json:"id"`
	Station     RankedStation `json:"station"`
	TimeSlot    TimeSlot      `json:"timeSlot"`
	Service     Service       `json:"service"`
	CarType     CarType       `json:"carType"`
	ConfirmedAt time.Time     `json:"confirmedAt"`
}

// Summary renders the confirmation line shown to the customer.
func (b BookingRecord) Summary() string {
	return fmt.Sprintf("%s for your %s at %s (%s), %s",
		b.Service, b.CarType, b.Station.Name, b.Station.Address, b.TimeSlot)
}

// BookingEvent is published when a booking is confirmed.
type BookingEvent struct {
	EventType string        `json:"eventType"`
	SessionID string        `json:"sessionId"`
	Booking   BookingRecord `json:"booking"`
	Timestamp time.Time     `json:"timestamp"`
}

const BookingConfirmedEvent = "booking.confirmed"
