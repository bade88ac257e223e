package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
)

// AssignmentTarget mirrors the catalog's view of a unit of work eligible for
// auto-assignment, keyed by the (target_type, target_id) pair.
type AssignmentTarget struct {
	TargetType           enums.TargetType `gorm:"column:target_type;type:target_type;primaryKey"`
	TargetID             uuid.UUID        `gorm:"column:target_id;type:uuid;primaryKey"`
	Title                string           `gorm:"column:title;not null"`
	RequesterID          uuid.UUID        `gorm:"column:requester_id;type:uuid;not null"`
	ProjectValue         decimal.Decimal  `gorm:"column:project_value;type:numeric(12,2);not null"`
	AutoAssignEnabled    bool             `gorm:"column:auto_assign_enabled;not null;default:false"`
	AssignedFreelancerID *uuid.UUID       `gorm:"column:assigned_freelancer_id;type:uuid"`
	AssignedAt           *time.Time       `gorm:"column:assigned_at"`
	CreatedAt            time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
