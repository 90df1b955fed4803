package models

import (
	"time"

	"github.com/google/uuid"
)

// SitePackagingInventory is the current on-hand balance per (site, packaging
// type). It is a materialized cache of the movement ledger, not an event log.
type SitePackagingInventory struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SiteID          uuid.UUID  `gorm:"column:site_id;type:uuid;not null;uniqueIndex:idx_site_packaging" json:"siteId"`
	PackagingTypeID uuid.UUID  `gorm:"column:packaging_type_id;type:uuid;not null;uniqueIndex:idx_site_packaging" json:"packagingTypeId"`
	Quantity        int        `gorm:"column:quantity;not null;default:0" json:"quantity"`
	DamagedQuantity int        `gorm:"column:damaged_quantity;not null;default:0" json:"damagedQuantity"`
	LastCountedAt   *time.Time `gorm:"column:last_counted_at" json:"lastCountedAt"`

	Site          Site          `gorm:"foreignKey:SiteID" json:"site"`
	PackagingType PackagingType `gorm:"foreignKey:PackagingTypeID" json:"packagingType"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
