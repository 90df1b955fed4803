package models

import (
	"time"

	"github.com/google/uuid"
)

// StockThreshold sets the minimum/maximum stock band per (site, type) used by
// the dashboard classification and alerting.
type StockThreshold struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SiteID          uuid.UUID `gorm:"column:site_id;type:uuid;not null;uniqueIndex:idx_threshold_site_type" json:"siteId"`
	PackagingTypeID uuid.UUID `gorm:"column:packaging_type_id;type:uuid;not null;uniqueIndex:idx_threshold_site_type" json:"packagingTypeId"`
	MinimumLevel    int       `gorm:"column:minimum_level;not null;default:0" json:"minimumLevel"`
	MaximumLevel    int       `gorm:"column:maximum_level;not null;default:0" json:"maximumLevel"`

	Site          Site          `gorm:"foreignKey:SiteID" json:"site"`
	PackagingType PackagingType `gorm:"foreignKey:PackagingTypeID" json:"packagingType"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
