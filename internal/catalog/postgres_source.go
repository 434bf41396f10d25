// internal/catalog/postgres_source.go
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"autoease/internal/common/config"
	"autoease/internal/common/database"
	"autoease/internal/models"

	"github.com/lib/pq"
)

const listStationsQuery = `
	SELECT id, name, address, services_offered, car_types_supported,
	       rating, review_count, latitude, longitude
	FROM stations
	WHERE is_active = true
	ORDER BY id`

// PostgresSource reads stations from the stations table. Service and car
// type columns are TEXT[] holding display names.
type PostgresSource struct {
	db *database.PostgresClient
}

func NewPostgresSource(db *database.PostgresClient) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Name() string { return config.CatalogSourcePostgres }

func (s *PostgresSource) Load(ctx context.Context) ([]models.Station, error) {
	rows, err := s.db.Query(ctx, listStationsQuery)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var (
			st       models.Station
			services pq.StringArray
			carTypes pq.StringArray
			lat, lng sql.NullFloat64
		)
		if err := rows.Scan(&st.ID, &st.Name, &st.Address, &services, &carTypes,
			&st.Rating, &st.ReviewCount, &lat, &lng); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}

		for _, v := range services {
			st.ServicesOffered = append(st.ServicesOffered, models.Service(v))
		}
		for _, v := range carTypes {
			st.CarTypesSupported = append(st.CarTypesSupported, models.CarType(v))
		}
		if lat.Valid && lng.Valid {
			st.Location = &models.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stations: %w", err)
	}

	return stations, nil
}
