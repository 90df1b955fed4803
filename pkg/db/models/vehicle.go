package models

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle is a truck or trailer usable on a load.
type Vehicle struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Registration string    `gorm:"type:text;not null;uniqueIndex" json:"registration"`
	Description  *string   `gorm:"column:description" json:"description"`
	CapacityKg   int       `gorm:"column:capacity_kg;not null;default:0" json:"capacityKg"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
