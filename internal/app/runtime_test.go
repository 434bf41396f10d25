package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"autoease/internal/common/config"
	"autoease/internal/common/logger"
	"autoease/internal/models"
	"autoease/internal/oracle"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Catalog.Source = config.CatalogSourceStatic
	cfg.Ranking.Scorer = config.ScorerHeuristic
	cfg.Ranking.CacheTTL = 60
	cfg.Availability = config.AvailabilityConfig{
		Seed:        7,
		MaxLoad:     0.3,
		OpeningHour: 9,
		ClosingHour: 17,
		LunchHour:   12,
	}
	return cfg
}

func TestBuild_StaticHeuristic(t *testing.T) {
	rt, err := Build(context.Background(), baseConfig(), logger.NewTestLogger(t))
	require.NoError(t, err)
	defer rt.Close()

	assert.Equal(t, 5, rt.Catalogs.Current().Len())
	assert.Equal(t, "heuristic", rt.Engine.ScorerName())
	assert.IsType(t, &oracle.KeywordRecommender{}, rt.Recommender)

	ranked, err := rt.Engine.Rank(context.Background(), models.CarTypeSUV, models.ServiceOilChange, rt.Catalogs.Current())
	require.NoError(t, err)
	assert.Len(t, ranked, 2)

	slots, err := rt.Generator.Availability(context.Background(), "station-1", models.ServiceOilChange, rt.Catalogs.Current())
	require.NoError(t, err)
	assert.NotEmpty(t, slots)
}

func TestBuild_GenAIScorerWithCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ranked := []map[string]interface{}{
			{"id": "station-5", "name": "AllRound Auto Services", "rank": 88, "reason": "Handles every car type."},
			{"id": "station-2", "name": "QuickFix Garage", "rank": 75, "reason": "Quick oil changes."},
		}
		text, _ := json.Marshal(ranked)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": string(text)})
	}))
	defer srv.Close()
	mr := miniredis.RunT(t)

	cfg := baseConfig()
	cfg.Ranking.Scorer = config.ScorerGenAI
	cfg.Ranking.CacheEnabled = true
	cfg.Database.Redis.Address = mr.Addr()
	cfg.APIs.GenAI.BaseURL = srv.URL
	cfg.APIs.GenAI.Timeout = 2000

	rt, err := Build(context.Background(), cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer rt.Close()

	assert.Equal(t, "genai", rt.Engine.ScorerName())
	assert.IsType(t, &oracle.PromptOracle{}, rt.Recommender)

	ranked, err := rt.Engine.Rank(context.Background(), models.CarTypeSUV, models.ServiceOilChange, rt.Catalogs.Current())
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "station-5", ranked[0].ID)
	assert.Len(t, mr.Keys(), 1, "scores are cached")
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
	}{
		{
			name:   "genai scorer without endpoint",
			mutate: func(cfg *config.Config) { cfg.Ranking.Scorer = config.ScorerGenAI },
		},
		{
			name:   "unknown scorer",
			mutate: func(cfg *config.Config) { cfg.Ranking.Scorer = "dice" },
		},
		{
			name:   "unknown catalog source",
			mutate: func(cfg *config.Config) { cfg.Catalog.Source = "csv" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)
			rt, err := Build(context.Background(), cfg, logger.NewTestLogger(t))
			assert.Error(t, err)
			assert.Nil(t, rt)
		})
	}
}
