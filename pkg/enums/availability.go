package enums

import "fmt"

// AvailabilityStatus maps to the availability_status enum in Postgres.
type AvailabilityStatus string

const (
	AvailabilityStatusAvailable   AvailabilityStatus = "available"
	AvailabilityStatusLimited     AvailabilityStatus = "limited"
	AvailabilityStatusUnavailable AvailabilityStatus = "unavailable"
)

var validAvailabilityStatuses = []AvailabilityStatus{
	AvailabilityStatusAvailable,
	AvailabilityStatusLimited,
	AvailabilityStatusUnavailable,
}

// IsValid checks whether the given status matches the canonical enum.
func (s AvailabilityStatus) IsValid() bool {
	for _, candidate := range validAvailabilityStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAvailabilityStatus converts raw strings into AvailabilityStatus.
func ParseAvailabilityStatus(value string) (AvailabilityStatus, error) {
	for _, candidate := range validAvailabilityStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid availability status %q", value)
}

// AvailabilityMode maps to the availability_mode enum in Postgres.
type AvailabilityMode string

const (
	AvailabilityModeAlwaysOn  AvailabilityMode = "always_on"
	AvailabilityModeScheduled AvailabilityMode = "scheduled"
)

var validAvailabilityModes = []AvailabilityMode{
	AvailabilityModeAlwaysOn,
	AvailabilityModeScheduled,
}

// IsValid checks whether the given mode matches the canonical enum.
func (m AvailabilityMode) IsValid() bool {
	for _, candidate := range validAvailabilityModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseAvailabilityMode converts raw strings into AvailabilityMode.
func ParseAvailabilityMode(value string) (AvailabilityMode, error) {
	for _, candidate := range validAvailabilityModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid availability mode %q", value)
}
