package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "autoease/internal/common/errors"
	"autoease/internal/common/logger"
	"autoease/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func stationIDs(stations []models.Station) []string {
	ids := make([]string, 0, len(stations))
	for _, st := range stations {
		ids = append(ids, st.ID)
	}
	return ids
}

type failingSource struct{ err error }

func (f *failingSource) Name() string { return "failing" }

func (f *failingSource) Load(context.Context) ([]models.Station, error) { return nil, f.err }

// ==========================
// Catalog Construction
// ==========================

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		stations []models.Station
		wantErr  string
	}{
		{
			name:     "empty id",
			stations: []models.Station{{ID: "  ", Name: "Blank"}},
			wantErr:  "empty id",
		},
		{
			name:     "duplicate id",
			stations: []models.Station{{ID: "a"}, {ID: "a"}},
			wantErr:  "duplicate station id",
		},
		{
			name:     "unknown service",
			stations: []models.Station{{ID: "a", ServicesOffered: []models.Service{"Paint Job"}}},
			wantErr:  "unknown service",
		},
		{
			name:     "unknown car type",
			stations: []models.Station{{ID: "a", CarTypesSupported: []models.CarType{"Boat"}}},
			wantErr:  "unknown car type",
		},
		{
			name:     "negative reviews",
			stations: []models.Station{{ID: "a", ReviewCount: -1}},
			wantErr:  "negative review count",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.stations)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_EmptyCatalogIsValid(t *testing.T) {
	c, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Eligible(models.CarTypeSedan, models.ServiceOilChange))
}

func TestNew_CopiesInput(t *testing.T) {
	stations := SampleStations()
	c := MustNew(stations)

	stations[0].Name = "Mutated"
	stations[0].ServicesOffered[0] = models.ServiceTireRotation

	st, ok := c.Lookup("station-1")
	require.True(t, ok)
	assert.Equal(t, "Precision Auto Care", st.Name)
	assert.Equal(t, models.ServiceOilChange, st.ServicesOffered[0])
}

// ==========================
// Queries
// ==========================

func TestCatalog_Eligible(t *testing.T) {
	c := SampleCatalog()

	tests := []struct {
		name    string
		carType models.CarType
		service models.Service
		want    []string
	}{
		{"suv oil change", models.CarTypeSUV, models.ServiceOilChange, []string{"station-2", "station-5"}},
		{"sedan oil change", models.CarTypeSedan, models.ServiceOilChange, []string{"station-1", "station-2", "station-5"}},
		{"truck diagnostics", models.CarTypeTruck, models.ServiceEngineDiagnostics, []string{"station-3", "station-5"}},
		{"motorcycle brakes", models.CarTypeMotorcycle, models.ServiceBrakeInspection, []string{"station-4", "station-5"}},
		{"motorcycle ac only allround", models.CarTypeMotorcycle, models.ServiceAirConditioningRepair, []string{"station-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Eligible(tt.carType, tt.service)
			assert.Equal(t, tt.want, stationIDs(got))
			for _, st := range got {
				assert.True(t, st.Supports(tt.carType, tt.service))
			}
		})
	}
}

func TestCatalog_EligibleWithoutAllRound(t *testing.T) {
	c := MustNew(SampleStations()[:4])
	assert.Empty(t, c.Eligible(models.CarTypeMotorcycle, models.ServiceAirConditioningRepair))
}

func TestCatalog_LookupAndIDs(t *testing.T) {
	c := SampleCatalog()

	_, ok := c.Lookup("station-99")
	assert.False(t, ok)

	st, ok := c.Lookup("station-3")
	require.True(t, ok)
	assert.Equal(t, "Heavy Duty Motors", st.Name)

	assert.Equal(t, []string{"station-1", "station-2", "station-3", "station-4", "station-5"}, c.IDs())
}

func TestCatalog_NilSafe(t *testing.T) {
	var c *Catalog
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.Stations())
	assert.Nil(t, c.Eligible(models.CarTypeSedan, models.ServiceOilChange))
	_, ok := c.Lookup("station-1")
	assert.False(t, ok)
}

// ==========================
// Sources And Refresh
// ==========================

func TestBuild_StaticSource(t *testing.T) {
	c, err := Build(context.Background(), NewStaticSource(nil), logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 5, c.Len())
}

func TestBuild_WrapsSourceFailure(t *testing.T) {
	_, err := Build(context.Background(), &failingSource{err: errors.New("connection refused")}, logger.NewTestLogger(t))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeCatalogLoadFailed, apperrors.CodeOf(err))
}

func TestBuild_WrapsValidationFailure(t *testing.T) {
	src := NewStaticSource([]models.Station{{ID: "x"}, {ID: "x"}})
	_, err := Build(context.Background(), src, logger.NewTestLogger(t))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeCatalogLoadFailed, apperrors.CodeOf(err))
}

func TestRefresher_KeepsPreviousOnFailure(t *testing.T) {
	initial := SampleCatalog()
	holder := NewHolder(initial)

	r := NewRefresher(&failingSource{err: errors.New("down")}, holder, logger.NewTestLogger(t))
	err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.Same(t, initial, holder.Current())
}

func TestRefresher_SwapsOnSuccess(t *testing.T) {
	holder := NewHolder(MustNew(nil))
	r := NewRefresher(NewStaticSource(nil), holder, logger.NewTestLogger(t))

	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, 5, holder.Current().Len())
}

func TestRefresher_Start(t *testing.T) {
	holder := NewHolder(SampleCatalog())
	r := NewRefresher(NewStaticSource(nil), holder, logger.NewTestLogger(t))

	assert.NoError(t, r.Start(""))
	assert.Error(t, r.Start("not a schedule"))

	require.NoError(t, r.Start("@every 1h"))
	r.Stop()
}
