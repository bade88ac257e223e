package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
)

// FreelancerPreference stores per-freelancer availability rules. One row per
// freelancer; absence means the documented defaults (available, always_on, no
// limits).
type FreelancerPreference struct {
	FreelancerID         uuid.UUID                `gorm:"column:freelancer_id;type:uuid;primaryKey"`
	AvailabilityStatus   enums.AvailabilityStatus `gorm:"column:availability_status;type:availability_status;not null;default:'available'"`
	AvailabilityMode     enums.AvailabilityMode   `gorm:"column:availability_mode;type:availability_mode;not null;default:'always_on'"`
	Timezone             string                   `gorm:"column:timezone;not null;default:'UTC'"`
	DailyMatchLimit      *int                     `gorm:"column:daily_match_limit"`
	AutoAcceptThreshold  *float64                 `gorm:"column:auto_accept_threshold"`
	QuietHoursStart      *string                  `gorm:"column:quiet_hours_start"`
	QuietHoursEnd        *string                  `gorm:"column:quiet_hours_end"`
	SnoozedUntil         *time.Time               `gorm:"column:snoozed_until"`
	NotifyInApp          bool                     `gorm:"column:notify_in_app;not null;default:true"`
	NotifyEmail          bool                     `gorm:"column:notify_email;not null;default:true"`
	NotifySMS            bool                     `gorm:"column:notify_sms;not null;default:false"`
	EscalationContact    *string                  `gorm:"column:escalation_contact"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
