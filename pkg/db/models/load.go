package models

import (
	"time"

	"github.com/agrilogix/crateflow-backend/pkg/enums"
	"github.com/google/uuid"
)

// Load represents one shipment of packaging between two sites. Status is
// mutated only through the lifecycle service transitions, never arbitrarily.
type Load struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	LoadNumber        string           `gorm:"column:load_number;type:text;not null;uniqueIndex" json:"loadNumber"`
	OriginSiteID      uuid.UUID        `gorm:"column:origin_site_id;type:uuid;not null" json:"originSiteId"`
	DestinationSiteID uuid.UUID        `gorm:"column:destination_site_id;type:uuid;not null" json:"destinationSiteId"`
	ChannelID         *uuid.UUID       `gorm:"column:channel_id;type:uuid" json:"channelId"`
	VehicleID         *uuid.UUID       `gorm:"column:vehicle_id;type:uuid" json:"vehicleId"`
	DriverID          *uuid.UUID       `gorm:"column:driver_id;type:uuid" json:"driverId"`
	ProductID         *uuid.UUID       `gorm:"column:product_id;type:uuid" json:"productId"`
	DispatchDate      time.Time        `gorm:"column:dispatch_date;not null" json:"dispatchDate"`
	Status            enums.LoadStatus `gorm:"column:status;type:text;not null;default:'scheduled'" json:"status"`

	ScheduledDepartureTime *time.Time          `gorm:"column:scheduled_departure_time" json:"scheduledDepartureTime"`
	ActualDepartureTime    *time.Time          `gorm:"column:actual_departure_time" json:"actualDepartureTime"`
	DepartureOnTimeStatus  *enums.OnTimeStatus `gorm:"column:departure_ontime_status;type:text" json:"departureOnTimeStatus"`

	EstimatedArrivalTime *time.Time          `gorm:"column:estimated_arrival_time" json:"estimatedArrivalTime"`
	ExpectedArrivalDate  *time.Time          `gorm:"column:expected_arrival_date" json:"expectedArrivalDate"`
	ActualArrivalTime    *time.Time          `gorm:"column:actual_arrival_time" json:"actualArrivalTime"`
	ArrivalOnTimeStatus  *enums.OnTimeStatus `gorm:"column:arrival_ontime_status;type:text" json:"arrivalOnTimeStatus"`

	// Farm waypoint legs; expected times default from config and may be
	// overridden per load.
	FarmArrivalExpected       *time.Time `gorm:"column:farm_arrival_expected" json:"farmArrivalExpected"`
	FarmArrivalActual         *time.Time `gorm:"column:farm_arrival_actual" json:"farmArrivalActual"`
	FarmArrivalOvertimeMins   int        `gorm:"column:farm_arrival_overtime_mins;not null;default:0" json:"farmArrivalOvertimeMins"`
	FarmDepartureExpected     *time.Time `gorm:"column:farm_departure_expected" json:"farmDepartureExpected"`
	FarmDepartureActual       *time.Time `gorm:"column:farm_departure_actual" json:"farmDepartureActual"`
	FarmDepartureOvertimeMins int        `gorm:"column:farm_departure_overtime_mins;not null;default:0" json:"farmDepartureOvertimeMins"`
	HasOvertime               bool       `gorm:"column:has_overtime;not null;default:false" json:"hasOvertime"`

	HasDiscrepancy   bool    `gorm:"column:has_discrepancy;not null;default:false" json:"hasDiscrepancy"`
	DiscrepancyNotes *string `gorm:"column:discrepancy_notes" json:"discrepancyNotes"`
	Notes            *string `gorm:"column:notes" json:"notes"`

	CreatedBy *uuid.UUID `gorm:"column:created_by;type:uuid" json:"createdBy"`

	OriginSite      Site                `gorm:"foreignKey:OriginSiteID" json:"originSite"`
	DestinationSite Site                `gorm:"foreignKey:DestinationSiteID" json:"destinationSite"`
	Channel         *Channel            `gorm:"foreignKey:ChannelID" json:"channel,omitempty"`
	Vehicle         *Vehicle            `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	Driver          *Driver             `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
	Lines           []LoadPackagingLine `gorm:"foreignKey:LoadID;constraint:OnDelete:CASCADE" json:"lines"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
