// internal/models/station.go
package models

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Station struct {
	ID                string    `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	Address           string    `json:"address" db:"address"`
	ServicesOffered   []Service `json:"servicesOffered" db:"services_offered"`
	CarTypesSupported []CarType `json:"carTypesSupported" db:"car_types_supported"`
	Rating            float64   `json:"rating" db:"rating"`
	ReviewCount       int       `json:"reviewCount" db:"review_count"`
	Location          *GeoPoint `json:"location,omitempty" db:"-"`
}

func (s Station) OffersService(service Service) bool {
	for _, svc := range s.ServicesOffered {
		if svc == service {
			return true
		}
	}
	return false
}

func (s Station) SupportsCarType(carType CarType) bool {
	for _, ct := range s.CarTypesSupported {
		if ct == carType {
			return true
		}
	}
	return false
}

// Supports reports whether the station is eligible for the query: it must
// both service the car type and offer the service.
func (s Station) Supports(carType CarType, service Service) bool {
	return s.SupportsCarType(carType) && s.OffersService(service)
}

// Clone returns a deep copy so callers cannot mutate catalog data.
func (s Station) Clone() Station {
	out := s
	out.ServicesOffered = append([]Service(nil), s.ServicesOffered...)
	out.CarTypesSupported = append([]CarType(nil), s.CarTypesSupported...)
	if s.Location != nil {
		loc := *s.Location
		out.Location = &loc
	}
	return out
}

type RankedStation struct {
	Station
	Rank   float64 `json:"rank"`
	Reason string  `json:"reason"`
}

// TimeSlot is an opaque display label such as "09:00 AM".
type TimeSlot string
