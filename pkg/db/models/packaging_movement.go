package models

import (
	"time"

	"github.com/agrilogix/crateflow-backend/pkg/enums"
	"github.com/google/uuid"
)

// PackagingMovement is the append-only audit record of every inventory delta.
// Balances are replayable by summing deltas per (site, packaging type).
type PackagingMovement struct {
	ID              uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	SiteID          uuid.UUID          `gorm:"column:site_id;type:uuid;not null;index" json:"siteId"`
	PackagingTypeID uuid.UUID          `gorm:"column:packaging_type_id;type:uuid;not null;index" json:"packagingTypeId"`
	Type            enums.MovementType `gorm:"column:type;type:text;not null" json:"type"`
	Delta           int                `gorm:"column:delta;not null" json:"delta"`
	ResultingQty    int                `gorm:"column:resulting_qty;not null" json:"resultingQty"`
	LoadID          *uuid.UUID         `gorm:"column:load_id;type:uuid" json:"loadId"`
	ActorID         *uuid.UUID         `gorm:"column:actor_id;type:uuid" json:"actorId"`
	Note            *string            `gorm:"column:note" json:"note"`

	Site          Site          `gorm:"foreignKey:SiteID" json:"site"`
	PackagingType PackagingType `gorm:"foreignKey:PackagingTypeID" json:"packagingType"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index" json:"createdAt"`
}
