package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
)

// OfferNotifiedEvent is published when a queue entry transitions to notified.
type OfferNotifiedEvent struct {
	QueueEntryID uuid.UUID        `json:"queueEntryId"`
	TargetType   enums.TargetType `json:"targetType"`
	TargetID     uuid.UUID        `json:"targetId"`
	FreelancerID uuid.UUID        `json:"freelancerId"`
	ProjectValue decimal.Decimal  `json:"projectValue"`
	ExpiresAt    time.Time        `json:"expiresAt"`
}

// OfferResolvedEvent is published for accept/decline/expire resolutions.
type OfferResolvedEvent struct {
	QueueEntryID uuid.UUID              `json:"queueEntryId"`
	TargetType   enums.TargetType       `json:"targetType"`
	TargetID     uuid.UUID              `json:"targetId"`
	FreelancerID uuid.UUID              `json:"freelancerId"`
	Status       enums.QueueEntryStatus `json:"status"`
	ResolvedAt   time.Time              `json:"resolvedAt"`
	AutoAccepted bool                   `json:"autoAccepted,omitempty"`
}

// OfferDeferredEvent is published when quiet hours or snooze delay a notify.
type OfferDeferredEvent struct {
	QueueEntryID uuid.UUID        `json:"queueEntryId"`
	TargetType   enums.TargetType `json:"targetType"`
	TargetID     uuid.UUID        `json:"targetId"`
	FreelancerID uuid.UUID        `json:"freelancerId"`
	WakeAt       time.Time        `json:"wakeAt"`
}

// QueueLifecycleEvent covers queue_generated and queue_exhausted.
type QueueLifecycleEvent struct {
	TargetType   enums.TargetType `json:"targetType"`
	TargetID     uuid.UUID        `json:"targetId"`
	OfferedCount int              `json:"offeredCount"`
	OccurredAt   time.Time        `json:"occurredAt"`
}

// TargetAssignedEvent is published when a target is marked assigned.
type TargetAssignedEvent struct {
	TargetType   enums.TargetType `json:"targetType"`
	TargetID     uuid.UUID        `json:"targetId"`
	FreelancerID uuid.UUID        `json:"freelancerId"`
	ProjectValue decimal.Decimal  `json:"projectValue"`
	AssignedAt   time.Time        `json:"assignedAt"`
}
