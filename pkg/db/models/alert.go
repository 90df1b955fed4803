package models

import (
	"time"

	"github.com/agrilogix/crateflow-backend/pkg/enums"
	"github.com/google/uuid"
)

// Alert records a stock level breaching its threshold band.
type Alert struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	SiteID          uuid.UUID           `gorm:"column:site_id;type:uuid;not null;index" json:"siteId"`
	PackagingTypeID uuid.UUID           `gorm:"column:packaging_type_id;type:uuid;not null" json:"packagingTypeId"`
	Severity        enums.AlertSeverity `gorm:"column:severity;type:text;not null" json:"severity"`
	Message         string              `gorm:"column:message;not null" json:"message"`
	Acknowledged    bool                `gorm:"column:acknowledged;not null;default:false" json:"acknowledged"`
	AcknowledgedBy  *uuid.UUID          `gorm:"column:acknowledged_by;type:uuid" json:"acknowledgedBy"`
	AcknowledgedAt  *time.Time          `gorm:"column:acknowledged_at" json:"acknowledgedAt"`

	Site          Site          `gorm:"foreignKey:SiteID" json:"site"`
	PackagingType PackagingType `gorm:"foreignKey:PackagingTypeID" json:"packagingType"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
