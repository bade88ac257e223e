package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateQueueEntry       OutboxAggregateType = "queue_entry"
	AggregateAssignmentTarget OutboxAggregateType = "assignment_target"
	AggregateNotification     OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateQueueEntry,
	AggregateAssignmentTarget,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOfferNotified      OutboxEventType = "offer_notified"
	EventOfferAccepted      OutboxEventType = "offer_accepted"
	EventOfferDeclined      OutboxEventType = "offer_declined"
	EventOfferExpired       OutboxEventType = "offer_expired"
	EventOfferDeferred      OutboxEventType = "offer_deferred"
	EventQueueGenerated     OutboxEventType = "queue_generated"
	EventQueueExhausted     OutboxEventType = "queue_exhausted"
	EventTargetAssigned     OutboxEventType = "target_assigned"
	EventAutoAssignDisabled OutboxEventType = "auto_assign_disabled"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOfferNotified,
	EventOfferAccepted,
	EventOfferDeclined,
	EventOfferExpired,
	EventOfferDeferred,
	EventQueueGenerated,
	EventQueueExhausted,
	EventTargetAssigned,
	EventAutoAssignDisabled,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
