package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
	"github.com/angelmondragon/talentmatch-backend/pkg/types"
)

// AssignmentResponse records the single resolution of a queue entry. The
// unique index on queue_entry_id enforces exactly one response per offer.
// RespondedBy is nil for system-driven resolutions (auto-accept, disable).
type AssignmentResponse struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QueueEntryID  uuid.UUID            `gorm:"column:queue_entry_id;type:uuid;not null;uniqueIndex:ux_assignment_responses_queue_entry"`
	FreelancerID  uuid.UUID            `gorm:"column:freelancer_id;type:uuid;not null"`
	Status        enums.ResponseStatus `gorm:"column:status;type:response_status;not null"`
	RespondedBy   *uuid.UUID           `gorm:"column:responded_by;type:uuid"`
	RespondedAt   time.Time            `gorm:"column:responded_at;not null"`
	ReasonCode    *string              `gorm:"column:reason_code"`
	ReasonLabel   *string              `gorm:"column:reason_label"`
	ResponseNotes *string              `gorm:"column:response_notes"`
	Metadata      types.JSONMap        `gorm:"column:metadata;type:jsonb;serializer:json"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
}
