package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
)

// EligibleFreelancer is one row of the directory feed: a freelancer whose
// category/skills match a target. Maintained by the directory collaborator.
type EligibleFreelancer struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TargetType   enums.TargetType `gorm:"column:target_type;type:target_type;not null;uniqueIndex:ux_eligible_freelancers_target,priority:1"`
	TargetID     uuid.UUID        `gorm:"column:target_id;type:uuid;not null;uniqueIndex:ux_eligible_freelancers_target,priority:2"`
	FreelancerID uuid.UUID        `gorm:"column:freelancer_id;type:uuid;not null;uniqueIndex:ux_eligible_freelancers_target,priority:3"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
}
