// internal/app/runtime.go
package app

import (
	"context"
	"fmt"
	"time"

	"autoease/internal/availability"
	"autoease/internal/catalog"
	"autoease/internal/common/config"
	"autoease/internal/common/database"
	"autoease/internal/common/logger"
	"autoease/internal/oracle"
	"autoease/internal/ranking"
)

// Runtime holds the domain components shared by every entrypoint.
type Runtime struct {
	Config      *config.Config
	Catalogs    *catalog.Holder
	Refresher   *catalog.Refresher
	Engine      *ranking.Engine
	Generator   *availability.Generator
	Recommender oracle.Recommender

	logger  logger.Logger
	closers []func() error
}

// Build connects the configured backends and assembles the components.
// Every backend that was opened is released by Close, including on error.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (rt *Runtime, err error) {
	rt = &Runtime{Config: cfg, logger: log}
	defer func() {
		if err != nil {
			rt.Close()
			rt = nil
		}
	}()

	source, err := rt.catalogSource(ctx)
	if err != nil {
		return rt, err
	}
	cat, err := catalog.Build(ctx, source, log)
	if err != nil {
		return rt, err
	}
	rt.Catalogs = catalog.NewHolder(cat)
	rt.Refresher = catalog.NewRefresher(source, rt.Catalogs, log)

	generator, err := rt.textGenerator(ctx)
	if err != nil {
		return rt, err
	}

	scorer, err := rt.scorer(generator)
	if err != nil {
		return rt, err
	}
	rt.Engine = ranking.NewEngine(scorer, log)

	if generator != nil {
		rt.Recommender = oracle.NewPromptOracle(generator, log)
	} else {
		rt.Recommender = oracle.NewKeywordRecommender()
	}

	av := cfg.Availability
	hours := availability.HourlySchedule{Opening: av.OpeningHour, Closing: av.ClosingHour, Lunch: av.LunchHour}
	rt.Generator = availability.NewGenerator(hours, av.Seed, av.MaxLoad, log)

	return rt, nil
}

func (rt *Runtime) catalogSource(ctx context.Context) (catalog.Source, error) {
	var (
		pg *database.PostgresClient
		es *database.ElasticsearchClient
	)
	switch rt.Config.Catalog.Source {
	case config.CatalogSourcePostgres:
		client, err := database.NewPostgres(rt.Config.Database.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		rt.closers = append(rt.closers, client.Close)
		if err := client.Ping(ctx); err != nil {
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		pg = client
	case config.CatalogSourceElasticsearch:
		client, err := database.NewElasticsearch(rt.Config.Database.Elasticsearch)
		if err != nil {
			return nil, fmt.Errorf("elasticsearch: %w", err)
		}
		es = client
	}
	return catalog.NewSourceFromConfig(rt.Config.Catalog, rt.Config.Database.Elasticsearch, pg, es)
}

// textGenerator returns nil when no generative backend is configured.
func (rt *Runtime) textGenerator(ctx context.Context) (oracle.TextGenerator, error) {
	apis := rt.Config.APIs
	switch {
	case rt.Config.Ranking.Scorer == config.ScorerGemini:
		client, err := oracle.NewGeminiClient(ctx, apis.Gemini.APIKey, apis.Gemini.Model)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, client.Close)
		return client, nil
	case apis.GenAI.BaseURL != "":
		return oracle.NewGenAIClient(oracle.GenAIConfig{
			BaseURL:     apis.GenAI.BaseURL,
			APIKey:      apis.GenAI.APIKey,
			Timeout:     config.GetDuration(apis.GenAI.Timeout),
			MaxRetries:  apis.GenAI.MaxRetries,
			MaxTokens:   apis.GenAI.MaxTokens,
			Temperature: apis.GenAI.Temperature,
		}), nil
	}
	return nil, nil
}

func (rt *Runtime) scorer(generator oracle.TextGenerator) (ranking.Scorer, error) {
	var scorer ranking.Scorer
	switch name := rt.Config.Ranking.Scorer; name {
	case "", config.ScorerHeuristic:
		scorer = ranking.NewHeuristicScorer()
	case config.ScorerGenAI, config.ScorerGemini:
		if generator == nil {
			return nil, fmt.Errorf("scorer %q needs a text generator", name)
		}
		scorer = ranking.NewOracleScorer(name, oracle.NewPromptOracle(generator, rt.logger))
	default:
		return nil, fmt.Errorf("unknown scorer %q", name)
	}

	if !rt.Config.Ranking.CacheEnabled {
		return scorer, nil
	}
	redis, err := database.NewRedis(rt.Config.Database.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	rt.closers = append(rt.closers, redis.Close)
	ttl := time.Duration(rt.Config.Ranking.CacheTTL) * time.Second
	return ranking.NewCachedScorer(scorer, redis, ttl, rt.logger), nil
}

// Close stops the refresher and releases backends in reverse order.
func (rt *Runtime) Close() {
	if rt.Refresher != nil {
		rt.Refresher.Stop()
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Warn("failed to close backend", map[string]interface{}{"error": err.Error()})
		}
	}
	rt.closers = nil
}
