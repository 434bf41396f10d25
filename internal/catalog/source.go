// internal/catalog/source.go
package catalog

import (
	"context"
	"fmt"

	"autoease/internal/common/config"
	"autoease/internal/common/database"
	apperrors "autoease/internal/common/errors"
	"autoease/internal/common/logger"
	"autoease/internal/models"
)

// Source is a read-only provider of station records.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]models.Station, error)
}

// StaticSource serves a fixed list, the sample catalog by default.
type StaticSource struct {
	stations []models.Station
}

func NewStaticSource(stations []models.Station) *StaticSource {
	if stations == nil {
		stations = SampleStations()
	}
	return &StaticSource{stations: stations}
}

func (s *StaticSource) Name() string { return config.CatalogSourceStatic }

func (s *StaticSource) Load(_ context.Context) ([]models.Station, error) {
	out := make([]models.Station, len(s.stations))
	for i, st := range s.stations {
		out[i] = st.Clone()
	}
	return out, nil
}

// Build loads the source and validates the result into a Catalog. Any
// failure is reported as CATALOG_LOAD_FAILED.
func Build(ctx context.Context, src Source, log logger.Logger) (*Catalog, error) {
	stations, err := src.Load(ctx)
	if err != nil {
		return nil, apperrors.NewCatalogLoadFailedError(src.Name(), err)
	}

	c, err := New(stations)
	if err != nil {
		return nil, apperrors.NewCatalogLoadFailedError(src.Name(), err)
	}

	log.Info("catalog loaded", map[string]interface{}{
		"source":   src.Name(),
		"stations": c.Len(),
	})
	return c, nil
}

// NewSourceFromConfig picks the configured source. pg and es may be nil when
// the corresponding source is not selected.
func NewSourceFromConfig(cfg config.CatalogConfig, esCfg config.ElasticsearchConfig, pg *database.PostgresClient, es *database.ElasticsearchClient) (Source, error) {
	switch cfg.Source {
	case "", config.CatalogSourceStatic:
		return NewStaticSource(nil), nil
	case config.CatalogSourcePostgres:
		if pg == nil {
			return nil, fmt.Errorf("postgres catalog source selected without a postgres client")
		}
		return NewPostgresSource(pg), nil
	case config.CatalogSourceElasticsearch:
		if es == nil {
			return nil, fmt.Errorf("elasticsearch catalog source selected without an elasticsearch client")
		}
		return NewElasticsearchSource(es, esCfg.StationIndex), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}
}
