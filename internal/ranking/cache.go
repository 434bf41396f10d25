// internal/ranking/cache.go
package ranking

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	"autoease/internal/common/database"
	apperrors "autoease/internal/common/errors"
	"autoease/internal/common/logger"
	"autoease/internal/common/metrics"
	"autoease/internal/models"
)

const cacheKeyPrefix = "autoease:ranking"

// CachedScorer memoises another scorer's output in Redis. Cache failures are
// logged and never fail the ranking.
type CachedScorer struct {
	next   Scorer
	cache  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedScorer(next Scorer, cache *database.RedisClient, ttl time.Duration, log logger.Logger) *CachedScorer {
	return &CachedScorer{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "ranking-cache"}),
	}
}

func (c *CachedScorer) Name() string { return c.next.Name() }

func (c *CachedScorer) Score(ctx context.Context, q Query, stations []models.Station) ([]Score, error) {
	key := CacheKey(c.next.Name(), q, stations)

	var cached []Score
	err := c.cache.GetJSON(ctx, key, &cached)
	switch {
	case err == nil:
		metrics.RankingCacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	case errors.Is(err, database.ErrCacheMiss):
		metrics.RankingCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.RankingCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("ranking cache read failed", map[string]interface{}{
			"key":   key,
			"error": apperrors.NewCacheFailureError(err).Error(),
		})
	}

	scores, err := c.next.Score(ctx, q, stations)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetJSON(ctx, key, scores, c.ttl); err != nil {
		c.logger.Warn("ranking cache write failed", map[string]interface{}{
			"key":   key,
			"error": apperrors.NewCacheFailureError(err).Error(),
		})
	}
	return scores, nil
}

// CacheKey fingerprints the query and every station attribute a scorer can
// see, so a catalog reload invalidates stale entries.
func CacheKey(scorer string, q Query, stations []models.Station) string {
	sorted := make([]models.Station, len(stations))
	copy(sorted, stations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	h := fnv.New64a()
	for _, st := range sorted {
		fmt.Fprintf(h, "%s|%s|%g|%d|%s|%s\n",
			st.ID, st.Name, st.Rating, st.ReviewCount,
			strings.Join(models.ServiceStrings(st.ServicesOffered), ","),
			strings.Join(models.CarTypeStrings(st.CarTypesSupported), ","))
	}

	return fmt.Sprintf("%s:%s:%s:%s:%x", cacheKeyPrefix, scorer,
		strings.ReplaceAll(strings.ToLower(q.CarType.String()), " ", "-"),
		strings.ReplaceAll(strings.ToLower(q.Service.String()), " ", "-"),
		h.Sum64())
}
