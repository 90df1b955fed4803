package models

import (
	"time"

	"github.com/agrilogix/crateflow-backend/pkg/enums"
	"github.com/google/uuid"
)

// DispatchSchedule is a forward plan for a future dispatch. A schedule can be
// promoted to a Load at most once; LoadID is set exactly on promotion.
type DispatchSchedule struct {
	ID                uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	OriginSiteID      uuid.UUID            `gorm:"column:origin_site_id;type:uuid;not null" json:"originSiteId"`
	DestinationSiteID uuid.UUID            `gorm:"column:destination_site_id;type:uuid;not null" json:"destinationSiteId"`
	ChannelID         *uuid.UUID           `gorm:"column:channel_id;type:uuid" json:"channelId"`
	VehicleID         *uuid.UUID           `gorm:"column:vehicle_id;type:uuid" json:"vehicleId"`
	DriverID          *uuid.UUID           `gorm:"column:driver_id;type:uuid" json:"driverId"`
	DispatchDate      time.Time            `gorm:"column:dispatch_date;not null;index" json:"dispatchDate"`
	Status            enums.ScheduleStatus `gorm:"column:status;type:text;not null;default:'planned'" json:"status"`

	CrateCount  int `gorm:"column:crate_count;not null;default:0" json:"crateCount"`
	BinCount    int `gorm:"column:bin_count;not null;default:0" json:"binCount"`
	BoxCount    int `gorm:"column:box_count;not null;default:0" json:"boxCount"`
	PalletCount int `gorm:"column:pallet_count;not null;default:0" json:"palletCount"`

	PackagingETAToFarm *time.Time `gorm:"column:packaging_eta_to_farm" json:"packagingEtaToFarm"`
	RipeningStartDate  *time.Time `gorm:"column:ripening_start_date" json:"ripeningStartDate"`
	CollectionDate     *time.Time `gorm:"column:collection_date" json:"collectionDate"`
	ReturnDate         *time.Time `gorm:"column:return_date" json:"returnDate"`

	LoadID *uuid.UUID `gorm:"column:load_id;type:uuid;uniqueIndex" json:"loadId"`
	Notes  *string    `gorm:"column:notes" json:"notes"`

	OriginSite      Site  `gorm:"foreignKey:OriginSiteID" json:"originSite"`
	DestinationSite Site  `gorm:"foreignKey:DestinationSiteID" json:"destinationSite"`
	Load            *Load `gorm:"foreignKey:LoadID" json:"load,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
