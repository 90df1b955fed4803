package models

import (
	"time"

	"github.com/google/uuid"
)

// LoadPackagingLine is one packaging type shipped on a load. Once receipt is
// confirmed, received+damaged+missing should reconcile against dispatched;
// that property is asserted in tests, not by a constraint.
type LoadPackagingLine struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LoadID          uuid.UUID `gorm:"column:load_id;type:uuid;not null;index" json:"loadId"`
	PackagingTypeID uuid.UUID `gorm:"column:packaging_type_id;type:uuid;not null" json:"packagingTypeId"`
	QtyDispatched   int       `gorm:"column:qty_dispatched;not null" json:"qtyDispatched"`
	QtyReceived     int       `gorm:"column:qty_received;not null;default:0" json:"qtyReceived"`
	QtyDamaged      int       `gorm:"column:qty_damaged;not null;default:0" json:"qtyDamaged"`
	QtyMissing      int       `gorm:"column:qty_missing;not null;default:0" json:"qtyMissing"`

	PackagingType PackagingType `gorm:"foreignKey:PackagingTypeID" json:"packagingType"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
