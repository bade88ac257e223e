package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FreelancerMetrics holds rolling performance statistics per freelancer.
// Written by the metrics recompute job; the dispatch engine only reads it,
// apart from the optimistic total_assigned/last_assigned_at bump at notify
// time which recompute corrects later.
type FreelancerMetrics struct {
	FreelancerID           uuid.UUID       `gorm:"column:freelancer_id;type:uuid;primaryKey"`
	Rating                 *float64        `gorm:"column:rating"`
	CompletionRate         float64         `gorm:"column:completion_rate;not null;default:0"`
	AvgAssignedValue       decimal.Decimal `gorm:"column:avg_assigned_value;type:numeric(12,2);not null;default:0"`
	LifetimeAssignedValue  decimal.Decimal `gorm:"column:lifetime_assigned_value;type:numeric(14,2);not null;default:0"`
	LifetimeCompletedValue decimal.Decimal `gorm:"column:lifetime_completed_value;type:numeric(14,2);not null;default:0"`
	LastAssignedAt         *time.Time      `gorm:"column:last_assigned_at"`
	LastCompletedAt        *time.Time      `gorm:"column:last_completed_at"`
	TotalAssigned          int             `gorm:"column:total_assigned;not null;default:0"`
	TotalCompleted         int             `gorm:"column:total_completed;not null;default:0"`
	UpdatedAt              time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
