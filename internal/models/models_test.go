package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseCarTypeAndService(t *testing.T) {
	ct, ok := ParseCarType(" SUV ")
	assert.True(t, ok)
	assert.Equal(t, CarTypeSUV, ct)

	_, ok = ParseCarType("suv")
	assert.False(t, ok, "car types match exactly")

	svc, ok := ParseService("Oil Change")
	assert.True(t, ok)
	assert.Equal(t, ServiceOilChange, svc)

	svc, ok = ParseServiceFold("air conditioning repair")
	assert.True(t, ok)
	assert.Equal(t, ServiceAirConditioningRepair, svc)

	_, ok = ParseServiceFold("Paint Job")
	assert.False(t, ok)
}

func TestService_IsComplex(t *testing.T) {
	var complexServices []Service
	for _, s := range AllServices {
		if s.IsComplex() {
			complexServices = append(complexServices, s)
		}
	}
	assert.Equal(t, []Service{ServiceEngineDiagnostics, ServiceAirConditioningRepair}, complexServices)
}

func TestStation_Supports(t *testing.T) {
	st := Station{
		ID:                "s",
		ServicesOffered:   []Service{ServiceOilChange},
		CarTypesSupported: []CarType{CarTypeSedan},
	}

	assert.True(t, st.Supports(CarTypeSedan, ServiceOilChange))
	assert.False(t, st.Supports(CarTypeTruck, ServiceOilChange))
	assert.False(t, st.Supports(CarTypeSedan, ServiceTireRotation))
}

func TestStation_CloneIsDeep(t *testing.T) {
	st := Station{
		ServicesOffered:   []Service{ServiceOilChange},
		CarTypesSupported: []CarType{CarTypeSedan},
		Location:          &GeoPoint{Lat: 1, Lng: 2},
	}
	c := st.Clone()
	c.ServicesOffered[0] = ServiceTireRotation
	c.CarTypesSupported[0] = CarTypeVan
	c.Location.Lat = 9

	assert.Equal(t, ServiceOilChange, st.ServicesOffered[0])
	assert.Equal(t, CarTypeSedan, st.CarTypesSupported[0])
	assert.Equal(t, 1.0, st.Location.Lat)
}

func TestBookingRecord_Summary(t *testing.T) {
	rec := BookingRecord{
		ID: "b-1",
		Station: RankedStation{Station: Station{
			ID:      "station-2",
			Name:    "QuickFix Garage",
			Address: "456 Oak Ave, Anytown, USA",
		}},
		TimeSlot:    "10:00 AM",
		Service:     ServiceOilChange,
		CarType:     CarTypeSUV,
		ConfirmedAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, "Oil Change for your SUV at QuickFix Garage (456 Oak Ave, Anytown, USA), 10:00 AM", rec.Summary())
}
