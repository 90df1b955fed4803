package models

import (
	"time"

	"github.com/google/uuid"
)

// Driver is a person assignable to a load.
type Driver struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	Phone         *string   `gorm:"column:phone" json:"phone"`
	LicenseNumber *string   `gorm:"column:license_number" json:"licenseNumber"`
	IsActive      bool      `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
