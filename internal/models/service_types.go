// internal/models/service_types.go
package models

import "strings"

type CarType string

const (
	CarTypeSedan      CarType = "Sedan"
	CarTypeSUV        CarType = "SUV"
	CarTypeTruck      CarType = "Truck"
	CarTypeVan        CarType = "Van"
	CarTypeMotorcycle CarType = "Motorcycle"
)

// AllCarTypes lists every supported car type in display order.
var AllCarTypes = []CarType{
	CarTypeSedan,
	CarTypeSUV,
	CarTypeTruck,
	CarTypeVan,
	CarTypeMotorcycle,
}

func (c CarType) Valid() bool {
	for _, ct := range AllCarTypes {
		if c == ct {
			return true
		}
	}
	return false
}

func (c CarType) String() string {
	return string(c)
}

type Service string

const (
	ServiceOilChange             Service = "Oil Change"
	ServiceTireRotation          Service = "Tire Rotation"
	ServiceBrakeInspection       Service = "Brake Inspection"
	ServiceEngineDiagnostics     Service = "Engine Diagnostics"
	ServiceBatteryReplacement    Service = "Battery Replacement"
	ServiceAirConditioningRepair Service = "Air Conditioning Repair"
	ServiceGeneralMaintenance    Service = "General Maintenance"
)

// AllServices lists every bookable service in display order.
var AllServices = []Service{
	ServiceOilChange,
	ServiceTireRotation,
	ServiceBrakeInspection,
	ServiceEngineDiagnostics,
	ServiceBatteryReplacement,
	ServiceAirConditioningRepair,
	ServiceGeneralMaintenance,
}

func (s Service) Valid() bool {
	for _, svc := range AllServices {
		if s == svc {
			return true
		}
	}
	return false
}

func (s Service) String() string {
	return string(s)
}

// IsComplex reports whether the service is diagnostics-class work with a
// long estimated duration.
func (s Service) IsComplex() bool {
	return s == ServiceEngineDiagnostics || s == ServiceAirConditioningRepair
}

// ParseCarType matches the display name exactly.
func ParseCarType(v string) (CarType, bool) {
	ct := CarType(strings.TrimSpace(v))
	return ct, ct.Valid()
}

// ParseService matches the display name exactly.
func ParseService(v string) (Service, bool) {
	s := Service(strings.TrimSpace(v))
	return s, s.Valid()
}

// ParseServiceFold matches the display name ignoring case, used for
// free-text oracle answers.
func ParseServiceFold(v string) (Service, bool) {
	v = strings.TrimSpace(v)
	for _, svc := range AllServices {
		if strings.EqualFold(v, string(svc)) {
			return svc, true
		}
	}
	return "", false
}

func CarTypeStrings(in []CarType) []string {
	out := make([]string, len(in))
	for i, c := range in {
		out[i] = string(c)
	}
	return out
}

func ServiceStrings(in []Service) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
