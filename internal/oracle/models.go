// internal/oracle/models.go
package oracle

import (
	"context"

	"autoease/internal/models"
)

// TextGenerator turns a prompt into raw model text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Recommender suggests services for a free-text issue description.
type Recommender interface {
	Recommend(ctx context.Context, carType models.CarType, issue string) ([]models.Service, error)
}

type StationCandidate struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Services []string `json:"services"`
	CarTypes []string `json:"carTypes"`
}

type RankRequest struct {
	CarType  string             `json:"carType"`
	Service  string             `json:"service"`
	Stations []StationCandidate `json:"stations"`
}

type RankedEntry struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Rank   float64 `json:"rank"`
	Reason string  `json:"reason"`
}

type RecommendRequest struct {
	CarType          string `json:"carType"`
	IssueDescription string `json:"issueDescription"`
}

type RecommendResponse struct {
	RecommendedServices []string `json:"recommendedServices"`
}

// NewCandidate projects a station onto the fields the oracle sees.
func NewCandidate(st models.Station) StationCandidate {
	return StationCandidate{
		ID:       st.ID,
		Name:     st.Name,
		Services: models.ServiceStrings(st.ServicesOffered),
		CarTypes: models.CarTypeStrings(st.CarTypesSupported),
	}
}
