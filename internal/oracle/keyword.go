// internal/oracle/keyword.go
package oracle

import (
	"context"
	"strings"
	"unicode"

	"autoease/internal/models"
)

var serviceKeywords = map[models.Service][]string{
	models.ServiceOilChange:             {"oil", "leak", "leaking", "dipstick", "sludge"},
	models.ServiceTireRotation:          {"tire", "tires", "tyre", "tyres", "vibration", "vibrates", "wobble", "tread", "flat"},
	models.ServiceBrakeInspection:       {"brake", "brakes", "braking", "squeal", "squeak", "squeaking", "grinding", "pedal", "stopping"},
	models.ServiceEngineDiagnostics:     {"engine", "misfire", "stall", "stalls", "stalling", "smoke", "overheat", "overheating", "knocking", "rough", "idle", "warning"},
	models.ServiceBatteryReplacement:    {"battery", "crank", "cranking", "start", "starting", "dead", "jump", "electrical", "lights"},
	models.ServiceAirConditioningRepair: {"ac", "a/c", "aircon", "air", "conditioning", "cooling", "cold", "hot", "climate"},
	models.ServiceGeneralMaintenance:    {"maintenance", "checkup", "service", "servicing", "tune", "tuneup", "mileage", "routine"},
}

// KeywordRecommender is the offline recommender used when no text generator
// is configured. Matching is on whole lowercase words.
type KeywordRecommender struct{}

func NewKeywordRecommender() *KeywordRecommender {
	return &KeywordRecommender{}
}

func (k *KeywordRecommender) Recommend(_ context.Context, carType models.CarType, issue string) ([]models.Service, error) {
	req, err := newRecommendRequest(carType, issue)
	if err != nil {
		return nil, err
	}

	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(req.IssueDescription), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '/'
	}) {
		words[w] = true
	}

	out := []models.Service{}
	for _, svc := range models.AllServices {
		if svc == models.ServiceAirConditioningRepair && carType == models.CarTypeMotorcycle {
			continue
		}
		for _, kw := range serviceKeywords[svc] {
			if words[kw] {
				out = append(out, svc)
				break
			}
		}
	}
	return out, nil
}
