package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
	"github.com/angelmondragon/talentmatch-backend/pkg/types"
)

// AssignmentEvent is the append-only target-level lifecycle log. Rows are
// never mutated or deleted. ActorID is nil for system-triggered events.
type AssignmentEvent struct {
	ID         uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TargetType enums.TargetType          `gorm:"column:target_type;type:target_type;not null"`
	TargetID   uuid.UUID                 `gorm:"column:target_id;type:uuid;not null"`
	ActorID    *uuid.UUID                `gorm:"column:actor_id;type:uuid"`
	EventType  enums.AssignmentEventType `gorm:"column:event_type;type:assignment_event_type;not null"`
	Payload    types.JSONMap             `gorm:"column:payload;type:jsonb;serializer:json"`
	CreatedAt  time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
