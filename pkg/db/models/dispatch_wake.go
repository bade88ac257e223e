package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
)

// DispatchWake schedules a re-attempt of a deferred offer (quiet hours or
// snooze) at the freelancer's local window end. The wake job consumes due
// rows; no component busy-polls.
type DispatchWake struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TargetType   enums.TargetType `gorm:"column:target_type;type:target_type;not null;uniqueIndex:ux_dispatch_wakes_pending,priority:1"`
	TargetID     uuid.UUID        `gorm:"column:target_id;type:uuid;not null;uniqueIndex:ux_dispatch_wakes_pending,priority:2"`
	FreelancerID uuid.UUID        `gorm:"column:freelancer_id;type:uuid;not null;uniqueIndex:ux_dispatch_wakes_pending,priority:3"`
	WakeAt       time.Time        `gorm:"column:wake_at;not null"`
	ConsumedAt   *time.Time       `gorm:"column:consumed_at"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
}
