// internal/workers/stations/rank-stations/models.go
package rankstations

import "autoease/internal/models"

type Input struct {
	CarType string `json:"carType"`
	Service string `json:"service"`
}

type Output struct {
	RankedStations []models.RankedStation `json:"rankedStations"`
	StationCount   int                    `json:"stationCount"`
	Scorer         string                 `json:"scorer"`
	DurationMs     int64                  `json:"durationMs"`
}

const inputSchema = `{
	"type": "object",
	"required": ["carType", "service"],
	"properties": {
		"carType": {"type": "string", "minLength": 1},
		"service": {"type": "string", "minLength": 1}
	}
}`
