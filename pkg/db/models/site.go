package models

import (
	"time"

	"github.com/agrilogix/crateflow-backend/pkg/enums"
	"github.com/google/uuid"
)

// Site is a physical location in the packaging loop. Sites are deactivated,
// never hard-deleted, because loads and movements keep referencing them.
type Site struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string         `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Name      string         `gorm:"not null" json:"name"`
	Type      enums.SiteType `gorm:"column:type;type:text;not null" json:"type"`
	Region    *string        `gorm:"column:region" json:"region"`
	IsActive  bool           `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
