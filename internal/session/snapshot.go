// internal/session/snapshot.go
package session

import (
	"time"

	apperrors "autoease/internal/common/errors"
	"autoease/internal/models"
)

// Snapshot is a copy of a session's observable state.
type Snapshot struct {
	ID              string                 `json:"id"`
	State           State                  `json:"state"`
	CarType         models.CarType         `json:"carType,omitempty"`
	Service         models.Service         `json:"service,omitempty"`
	Ranked          []models.RankedStation `json:"rankedStations"`
	SelectedStation *models.RankedStation  `json:"selectedStation,omitempty"`
	TimeSlots       []models.TimeSlot      `json:"timeSlots"`
	SelectedSlot    models.TimeSlot        `json:"selectedSlot,omitempty"`
	Booking         *models.BookingRecord  `json:"booking,omitempty"`
	Error           string                 `json:"error,omitempty"`
	ErrorCode       apperrors.ErrorCode    `json:"errorCode,omitempty"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// Loading reports whether a remote call is outstanding.
func (s Snapshot) Loading() bool {
	return s.State == StateRanking || s.State == StateSlotsLoading
}
