// internal/workers/stations/generate-availability/models.go
package generateavailability

import "autoease/internal/models"

type Input struct {
	StationID string `json:"stationId"`
	Service   string `json:"service"`
}

type Output struct {
	StationID  string            `json:"stationId"`
	Service    string            `json:"service"`
	TimeSlots  []models.TimeSlot `json:"timeSlots"`
	Complexity string            `json:"complexity"`
}

const inputSchema = `{
	"type": "object",
	"required": ["stationId", "service"],
	"properties": {
		"stationId": {"type": "string", "minLength": 1},
		"service":   {"type": "string", "minLength": 1}
	}
}`
