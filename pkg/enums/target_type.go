package enums

import "fmt"

// TargetType maps to the target_type enum in Postgres. Each value is a kind of
// marketplace work item eligible for auto-assignment.
type TargetType string

const (
	TargetTypeJob       TargetType = "job"
	TargetTypeGig       TargetType = "gig"
	TargetTypeProject   TargetType = "project"
	TargetTypeLaunchpad TargetType = "launchpad"
	TargetTypeVolunteer TargetType = "volunteer"
)

var validTargetTypes = []TargetType{
	TargetTypeJob,
	TargetTypeGig,
	TargetTypeProject,
	TargetTypeLaunchpad,
	TargetTypeVolunteer,
}

// IsValid checks whether the given type matches the canonical enum.
func (t TargetType) IsValid() bool {
	for _, candidate := range validTargetTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTargetType converts raw strings into TargetType.
func ParseTargetType(value string) (TargetType, error) {
	for _, candidate := range validTargetTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid target type %q", value)
}
