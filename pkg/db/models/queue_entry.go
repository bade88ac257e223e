package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
	"github.com/angelmondragon/talentmatch-backend/pkg/types"
)

// AutoAssignQueueEntry is one offer attempt pairing a target with a candidate
// freelancer. Entries are never deleted; resolved entries stay as audit trail.
// The partial unique index ux_queue_entries_open_per_target guarantees at most
// one pending/notified entry per target at any time.
type AutoAssignQueueEntry struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TargetType       enums.TargetType       `gorm:"column:target_type;type:target_type;not null"`
	TargetID         uuid.UUID              `gorm:"column:target_id;type:uuid;not null"`
	FreelancerID     uuid.UUID              `gorm:"column:freelancer_id;type:uuid;not null"`
	Score            float64                `gorm:"column:score;not null"`
	PriorityBucket   int                    `gorm:"column:priority_bucket;not null;default:3"`
	Status           enums.QueueEntryStatus `gorm:"column:status;type:queue_entry_status;not null;default:'pending'"`
	ProjectValue     decimal.Decimal        `gorm:"column:project_value;type:numeric(12,2);not null"`
	ExpiresAt        *time.Time             `gorm:"column:expires_at"`
	NotifiedAt       *time.Time             `gorm:"column:notified_at"`
	ResolvedAt       *time.Time             `gorm:"column:resolved_at"`
	Metadata         types.JSONMap          `gorm:"column:metadata;type:jsonb;serializer:json"`
	ResponseMetadata types.JSONMap          `gorm:"column:response_metadata;type:jsonb;serializer:json"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
