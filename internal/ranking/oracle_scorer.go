// internal/ranking/oracle_scorer.go
package ranking

import (
	"context"

	"autoease/internal/models"
	"autoease/internal/oracle"
)

// RankOracle is the remote ranking capability.
type RankOracle interface {
	RankStations(ctx context.Context, req oracle.RankRequest) ([]oracle.RankedEntry, error)
}

// OracleScorer delegates scoring to a RankOracle.
type OracleScorer struct {
	name   string
	oracle RankOracle
}

func NewOracleScorer(name string, o RankOracle) *OracleScorer {
	return &OracleScorer{name: name, oracle: o}
}

func (s *OracleScorer) Name() string { return s.name }

func (s *OracleScorer) Score(ctx context.Context, q Query, stations []models.Station) ([]Score, error) {
	req := oracle.RankRequest{
		CarType:  q.CarType.String(),
		Service:  q.Service.String(),
		Stations: make([]oracle.StationCandidate, 0, len(stations)),
	}
	for _, st := range stations {
		req.Stations = append(req.Stations, oracle.NewCandidate(st))
	}

	entries, err := s.oracle.RankStations(ctx, req)
	if err != nil {
		return nil, err
	}

	scores := make([]Score, 0, len(entries))
	for _, e := range entries {
		scores = append(scores, Score{StationID: e.ID, Rank: e.Rank, Reason: e.Reason})
	}
	return scores, nil
}
