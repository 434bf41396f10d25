// internal/ranking/engine.go
package ranking

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"autoease/internal/catalog"
	apperrors "autoease/internal/common/errors"
	"autoease/internal/common/logger"
	"autoease/internal/common/metrics"
	"autoease/internal/models"
)

// Query is one (car type, service) ranking request.
type Query struct {
	CarType models.CarType `json:"carType"`
	Service models.Service `json:"service"`
}

// Score is a scorer's verdict on one station.
type Score struct {
	StationID string  `json:"id"`
	Rank      float64 `json:"rank"`
	Reason    string  `json:"reason"`
}

// Scorer assigns ranks to eligible stations. It may omit stations but must
// not invent ids.
type Scorer interface {
	Name() string
	Score(ctx context.Context, q Query, stations []models.Station) ([]Score, error)
}

type Engine struct {
	scorer Scorer
	logger logger.Logger
}

func NewEngine(scorer Scorer, log logger.Logger) *Engine {
	return &Engine{
		scorer: scorer,
		logger: log.WithFields(map[string]interface{}{"component": "ranking", "scorer": scorer.Name()}),
	}
}

func (e *Engine) ScorerName() string { return e.scorer.Name() }

// Rank filters the catalog to eligible stations, scores them and returns them
// best first. Zero eligible stations is an empty result, not an error.
func (e *Engine) Rank(ctx context.Context, carType models.CarType, service models.Service, cat *catalog.Catalog) ([]models.RankedStation, error) {
	if err := ValidateSelection(carType, service); err != nil {
		metrics.RankingRequests.WithLabelValues(e.scorer.Name(), "invalid").Inc()
		return nil, err
	}

	eligible := cat.Eligible(carType, service)
	metrics.RankingEligibleStations.Observe(float64(len(eligible)))
	if len(eligible) == 0 {
		metrics.RankingRequests.WithLabelValues(e.scorer.Name(), "empty").Inc()
		return []models.RankedStation{}, nil
	}

	q := Query{CarType: carType, Service: service}
	scores, err := e.scorer.Score(ctx, q, eligible)
	if err != nil {
		metrics.RankingRequests.WithLabelValues(e.scorer.Name(), "error").Inc()
		return nil, err
	}

	ranked, err := merge(eligible, scores)
	if err != nil {
		metrics.RankingRequests.WithLabelValues(e.scorer.Name(), "invalid_response").Inc()
		e.logger.Warn("scorer output rejected", map[string]interface{}{
			"carType": carType,
			"service": service,
			"error":   err.Error(),
		})
		return nil, err
	}

	Sort(ranked)

	metrics.RankingRequests.WithLabelValues(e.scorer.Name(), "success").Inc()
	e.logger.Debug("stations ranked", map[string]interface{}{
		"carType":  carType,
		"service":  service,
		"eligible": len(eligible),
		"ranked":   len(ranked),
	})
	return ranked, nil
}

// ValidateSelection reports INVALID_SELECTION unless both values are known.
func ValidateSelection(carType models.CarType, service models.Service) error {
	var missing []string
	if !carType.Valid() {
		missing = append(missing, fmt.Sprintf("carType %q", carType))
	}
	if !service.Valid() {
		missing = append(missing, fmt.Sprintf("service %q", service))
	}
	if len(missing) > 0 {
		return apperrors.NewInvalidSelectionError("invalid " + strings.Join(missing, ", "))
	}
	return nil
}

func merge(eligible []models.Station, scores []Score) ([]models.RankedStation, error) {
	byID := make(map[string]models.Station, len(eligible))
	for _, st := range eligible {
		byID[st.ID] = st
	}

	seen := make(map[string]bool, len(scores))
	out := make([]models.RankedStation, 0, len(scores))
	for _, sc := range scores {
		st, ok := byID[sc.StationID]
		if !ok {
			return nil, apperrors.NewInvalidResponseError(fmt.Sprintf("unknown or ineligible station id %q", sc.StationID))
		}
		if seen[sc.StationID] {
			return nil, apperrors.NewInvalidResponseError(fmt.Sprintf("duplicate station id %q", sc.StationID))
		}
		if strings.TrimSpace(sc.Reason) == "" {
			return nil, apperrors.NewInvalidResponseError(fmt.Sprintf("empty reason for station %q", sc.StationID))
		}
		if math.IsNaN(sc.Rank) || math.IsInf(sc.Rank, 0) {
			return nil, apperrors.NewInvalidResponseError(fmt.Sprintf("non-finite rank for station %q", sc.StationID))
		}
		seen[sc.StationID] = true
		out = append(out, models.RankedStation{Station: st, Rank: sc.Rank, Reason: sc.Reason})
	}
	return out, nil
}

// Sort orders by rank descending, then review count descending, then name.
func Sort(ranked []models.RankedStation) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Rank != b.Rank {
			return a.Rank > b.Rank
		}
		if a.ReviewCount != b.ReviewCount {
			return a.ReviewCount > b.ReviewCount
		}
		return a.Name < b.Name
	})
}
