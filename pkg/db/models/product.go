package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is reference taxonomy for what travels inside the packaging.
type Product struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string    `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Name      string    `gorm:"not null" json:"name"`
	Category  *string   `gorm:"column:category" json:"category"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
