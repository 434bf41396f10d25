// internal/availability/hours.go
package availability

import (
	"time"

	"autoease/internal/models"
)

const slotLayout = "03:04 PM"

// BusinessHours supplies the base slot sequence for one business day.
type BusinessHours interface {
	Slots() []models.TimeSlot
}

// HourlySchedule yields one slot per hour in [Opening, Closing), skipping
// Lunch. A negative Lunch disables the break.
type HourlySchedule struct {
	Opening int
	Closing int
	Lunch   int
}

// DefaultSchedule is 09:00 AM through 04:00 PM with no 12:00 PM slot.
func DefaultSchedule() HourlySchedule {
	return HourlySchedule{Opening: 9, Closing: 17, Lunch: 12}
}

func (h HourlySchedule) Slots() []models.TimeSlot {
	var slots []models.TimeSlot
	for hour := h.Opening; hour < h.Closing && hour < 24; hour++ {
		if hour < 0 || hour == h.Lunch {
			continue
		}
		label := time.Date(2000, time.January, 1, hour, 0, 0, 0, time.UTC).Format(slotLayout)
		slots = append(slots, models.TimeSlot(label))
	}
	return slots
}

// FixedSlots is a literal slot sequence.
type FixedSlots []models.TimeSlot

func (f FixedSlots) Slots() []models.TimeSlot {
	out := make([]models.TimeSlot, len(f))
	copy(out, f)
	return out
}
