// internal/catalog/sample.go
package catalog

import "autoease/internal/models"

// SampleStations is the five-station demo catalog.
func SampleStations() []models.Station {
	return []models.Station{
		{
			ID:      "station-1",
			Name:    "Precision Auto Care",
			Address: "123 Main St, Anytown, USA",
			ServicesOffered: []models.Service{
				models.ServiceOilChange,
				models.ServiceBrakeInspection,
				models.ServiceEngineDiagnostics,
				models.ServiceGeneralMaintenance,
			},
			CarTypesSupported: []models.CarType{models.CarTypeSedan, models.CarTypeSUV},
			Rating:            4.5,
			ReviewCount:       120,
			Location:          &models.GeoPoint{Lat: 34.0522, Lng: -118.2437},
		},
		{
			ID:      "station-2",
			Name:    "QuickFix Garage",
			Address: "456 Oak Ave, Anytown, USA",
			ServicesOffered: []models.Service{
				models.ServiceOilChange,
				models.ServiceTireRotation,
				models.ServiceBatteryReplacement,
				models.ServiceAirConditioningRepair,
			},
			CarTypesSupported: []models.CarType{
				models.CarTypeSedan,
				models.CarTypeSUV,
				models.CarTypeTruck,
				models.CarTypeVan,
			},
			Rating:      4.2,
			ReviewCount: 85,
			Location:    &models.GeoPoint{Lat: 34.0550, Lng: -118.2500},
		},
		{
			ID:      "station-3",
			Name:    "Heavy Duty Motors",
			Address: "789 Pine Rd, Anytown, USA",
			ServicesOffered: []models.Service{
				models.ServiceEngineDiagnostics,
				models.ServiceBrakeInspection,
				models.ServiceGeneralMaintenance,
			},
			CarTypesSupported: []models.CarType{models.CarTypeTruck, models.CarTypeVan},
			Rating:            4.8,
			ReviewCount:       200,
			Location:          &models.GeoPoint{Lat: 34.0490, Lng: -118.2400},
		},
		{
			ID:      "station-4",
			Name:    "Two Wheeler Experts",
			Address: "101 Cycle Ln, Anytown, USA",
			ServicesOffered: []models.Service{
				models.ServiceOilChange,
				models.ServiceGeneralMaintenance,
				models.ServiceBrakeInspection,
			},
			CarTypesSupported: []models.CarType{models.CarTypeMotorcycle},
			Rating:            4.9,
			ReviewCount:       150,
			Location:          &models.GeoPoint{Lat: 34.0580, Lng: -118.2480},
		},
		{
			ID:                "station-5",
			Name:              "AllRound Auto Services",
			Address:           "222 Maple Dr, Anytown, USA",
			ServicesOffered:   append([]models.Service(nil), models.AllServices...),
			CarTypesSupported: append([]models.CarType(nil), models.AllCarTypes...),
			Rating:            4.0,
			ReviewCount:       95,
			Location:          &models.GeoPoint{Lat: 34.0510, Lng: -118.2550},
		},
	}
}

// SampleCatalog is the demo catalog, already validated.
func SampleCatalog() *Catalog {
	return MustNew(SampleStations())
}
