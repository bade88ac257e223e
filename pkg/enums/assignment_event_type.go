package enums

import "fmt"

// AssignmentEventType maps to the assignment_event_type enum in Postgres.
type AssignmentEventType string

const (
	AssignmentEventCreated        AssignmentEventType = "created"
	AssignmentEventEnabled        AssignmentEventType = "auto_assign_enabled"
	AssignmentEventDisabled       AssignmentEventType = "auto_assign_disabled"
	AssignmentEventQueueGenerated AssignmentEventType = "auto_assign_queue_generated"
	AssignmentEventQueueExhausted AssignmentEventType = "auto_assign_queue_exhausted"
	AssignmentEventCompleted      AssignmentEventType = "auto_assign_completed"
)

var validAssignmentEventTypes = []AssignmentEventType{
	AssignmentEventCreated,
	AssignmentEventEnabled,
	AssignmentEventDisabled,
	AssignmentEventQueueGenerated,
	AssignmentEventQueueExhausted,
	AssignmentEventCompleted,
}

// IsValid checks whether the given type matches the canonical enum.
func (e AssignmentEventType) IsValid() bool {
	for _, candidate := range validAssignmentEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseAssignmentEventType converts raw strings into AssignmentEventType.
func ParseAssignmentEventType(value string) (AssignmentEventType, error) {
	for _, candidate := range validAssignmentEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment event type %q", value)
}
