// internal/catalog/elasticsearch_source.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"autoease/internal/common/config"
	"autoease/internal/common/database"
	"autoease/internal/models"
)

const maxIndexedStations = 1000

type stationDocument struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Services    []string `json:"services"`
	CarTypes    []string `json:"carTypes"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"reviewCount"`
	Location    *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"location,omitempty"`
}

// ElasticsearchSource reads every active station document from an index.
type ElasticsearchSource struct {
	client *database.ElasticsearchClient
	index  string
}

func NewElasticsearchSource(client *database.ElasticsearchClient, index string) *ElasticsearchSource {
	if index == "" {
		index = "stations"
	}
	return &ElasticsearchSource{client: client, index: index}
}

func (s *ElasticsearchSource) Name() string { return config.CatalogSourceElasticsearch }

func (s *ElasticsearchSource) Load(ctx context.Context) ([]models.Station, error) {
	query := map[string]interface{}{
		"size": maxIndexedStations,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must_not": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"active": false}},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"id": "asc"},
		},
	}

	hits, err := s.client.Search(ctx, s.index, query)
	if err != nil {
		return nil, err
	}

	stations := make([]models.Station, 0, len(hits))
	for _, hit := range hits {
		var doc stationDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, fmt.Errorf("decode station %s: %w", hit.ID, err)
		}
		if doc.ID == "" {
			doc.ID = hit.ID
		}
		stations = append(stations, doc.toStation())
	}
	return stations, nil
}

func (d stationDocument) toStation() models.Station {
	st := models.Station{
		ID:          d.ID,
		Name:        d.Name,
		Address:     d.Address,
		Rating:      d.Rating,
		ReviewCount: d.ReviewCount,
	}
	for _, v := range d.Services {
		st.ServicesOffered = append(st.ServicesOffered, models.Service(v))
	}
	for _, v := range d.CarTypes {
		st.CarTypesSupported = append(st.CarTypesSupported, models.CarType(v))
	}
	if d.Location != nil {
		st.Location = &models.GeoPoint{Lat: d.Location.Lat, Lng: d.Location.Lon}
	}
	return st
}
