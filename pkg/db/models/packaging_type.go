package models

import (
	"time"

	"github.com/google/uuid"
)

// PackagingType describes one reusable packaging unit (crate, bin, pallet).
type PackagingType struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code                   string    `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Name                   string    `gorm:"not null" json:"name"`
	Capacity               int       `gorm:"column:capacity;not null;default:0" json:"capacity"`
	IsReturnable           bool      `gorm:"column:is_returnable;not null;default:true" json:"isReturnable"`
	ExpectedTurnaroundDays int       `gorm:"column:expected_turnaround_days;not null;default:7" json:"expectedTurnaroundDays"`
	IsActive               bool      `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt              time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt              time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
