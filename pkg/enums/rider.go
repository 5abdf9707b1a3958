package enums

import "fmt"

// RiderStatus controls whether a rider can receive dispatch orders.
type RiderStatus string

const (
	RiderStatusActive    RiderStatus = "active"
	RiderStatusInactive  RiderStatus = "inactive"
	RiderStatusSuspended RiderStatus = "suspended"
)

var validRiderStatuses = []RiderStatus{
	RiderStatusActive,
	RiderStatusInactive,
	RiderStatusSuspended,
}

// String implements fmt.Stringer.
func (s RiderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RiderStatus.
func (s RiderStatus) IsValid() bool {
	for _, candidate := range validRiderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRiderStatus converts raw input into a RiderStatus.
func ParseRiderStatus(value string) (RiderStatus, error) {
	for _, candidate := range validRiderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rider status %q", value)
}

// VehicleType describes how a rider moves.
type VehicleType string

const (
	VehicleTypeMotorcycle VehicleType = "motorcycle"
	VehicleTypeBicycle    VehicleType = "bicycle"
	VehicleTypeCar        VehicleType = "car"
	VehicleTypeVan        VehicleType = "van"
	VehicleTypeTruck      VehicleType = "truck"
)

var validVehicleTypes = []VehicleType{
	VehicleTypeMotorcycle,
	VehicleTypeBicycle,
	VehicleTypeCar,
	VehicleTypeVan,
	VehicleTypeTruck,
}

// String implements fmt.Stringer.
func (v VehicleType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VehicleType.
func (v VehicleType) IsValid() bool {
	for _, candidate := range validVehicleTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVehicleType converts raw input into a VehicleType.
func ParseVehicleType(value string) (VehicleType, error) {
	for _, candidate := range validVehicleTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vehicle type %q", value)
}
