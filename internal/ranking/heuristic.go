// internal/ranking/heuristic.go
package ranking

import (
	"context"
	"fmt"
	"math"

	"autoease/internal/models"
)

const (
	ratingWeight  = 40.0
	reviewWeight  = 30.0
	carTypeWeight = 15.0
	serviceWeight = 15.0

	// review points saturate at 1000 reviews
	reviewSaturation = 1000
)

// HeuristicScorer ranks on a 0-100 scale from rating, review volume and how
// specialised the station is in the requested car type and service.
type HeuristicScorer struct{}

func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

func (h *HeuristicScorer) Name() string { return "heuristic" }

func (h *HeuristicScorer) Score(_ context.Context, q Query, stations []models.Station) ([]Score, error) {
	scores := make([]Score, 0, len(stations))
	for _, st := range stations {
		scores = append(scores, Score{
			StationID: st.ID,
			Rank:      heuristicRank(st),
			Reason:    heuristicReason(q, st),
		})
	}
	return scores, nil
}

func heuristicRank(st models.Station) float64 {
	rating := math.Max(0, math.Min(st.Rating, 5)) / 5 * ratingWeight

	reviews := math.Log10(float64(st.ReviewCount)+1) / math.Log10(reviewSaturation+1)
	reviews = math.Min(reviews, 1) * reviewWeight

	var carFocus, serviceFocus float64
	if n := len(st.CarTypesSupported); n > 0 {
		carFocus = carTypeWeight / float64(n)
	}
	if n := len(st.ServicesOffered); n > 0 {
		serviceFocus = serviceWeight / float64(n)
	}

	return math.Round((rating+reviews+carFocus+serviceFocus)*100) / 100
}

func heuristicReason(q Query, st models.Station) string {
	carFit := fmt.Sprintf("specialises in %s", q.CarType)
	if n := len(st.CarTypesSupported); n > 1 {
		carFit = fmt.Sprintf("services %s among %d car types", q.CarType, n)
	}
	serviceFit := fmt.Sprintf("focuses on %s", q.Service)
	if n := len(st.ServicesOffered); n > 1 {
		serviceFit = fmt.Sprintf("offers %s among %d services", q.Service, n)
	}
	return fmt.Sprintf("%s %s and %s; rated %.1f from %d reviews.",
		st.Name, carFit, serviceFit, st.Rating, st.ReviewCount)
}
