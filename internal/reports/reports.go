package reports

import (
	"context"
	"strconv"
	"time"

	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service builds the reporting datasets. Every report is a stateless query
// over the current snapshot and has a CSV projection for export.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// StatementRow summarizes one (site, packaging type) pair's movement over a
// period: net dispatched out, net received in, manual corrections.
type StatementRow struct {
	SiteCode          string `json:"siteCode"`
	SiteName          string `json:"siteName"`
	PackagingTypeCode string `json:"packagingTypeCode"`
	Dispatched        int    `json:"dispatched"`
	Received          int    `json:"received"`
	Adjusted          int    `json:"adjusted"`
	NetChange         int    `json:"netChange"`
	ClosingQuantity   int    `json:"closingQuantity"`
}

// DiscrepancyRow is one flagged line on a completed load.
type DiscrepancyRow struct {
	LoadNumber        string    `json:"loadNumber"`
	DispatchDate      time.Time `json:"dispatchDate"`
	OriginSite        string    `json:"originSite"`
	DestinationSite   string    `json:"destinationSite"`
	PackagingTypeCode string    `json:"packagingTypeCode"`
	QtyDispatched     int       `json:"qtyDispatched"`
	QtyReceived       int       `json:"qtyReceived"`
	QtyDamaged        int       `json:"qtyDamaged"`
	QtyMissing        int       `json:"qtyMissing"`
	Notes             string    `json:"notes"`
}

// ExceptionRow is one late or overtime load.
type ExceptionRow struct {
	LoadNumber                string    `json:"loadNumber"`
	DispatchDate              time.Time `json:"dispatchDate"`
	OriginSite                string    `json:"originSite"`
	DestinationSite           string    `json:"destinationSite"`
	Status                    string    `json:"status"`
	DepartureStatus           string    `json:"departureStatus"`
	ArrivalStatus             string    `json:"arrivalStatus"`
	FarmArrivalOvertimeMins   int       `json:"farmArrivalOvertimeMins"`
	FarmDepartureOvertimeMins int       `json:"farmDepartureOvertimeMins"`
}

// AgingRow is one load whose packaging is out past the expected turnaround.
type AgingRow struct {
	LoadNumber        string    `json:"loadNumber"`
	DispatchDate      time.Time `json:"dispatchDate"`
	OriginSite        string    `json:"originSite"`
	DestinationSite   string    `json:"destinationSite"`
	PackagingTypeCode string    `json:"packagingTypeCode"`
	QtyOutstanding    int       `json:"qtyOutstanding"`
	DaysOut           int       `json:"daysOut"`
	TurnaroundDays    int       `json:"turnaroundDays"`
}

// Statements aggregates the movement ledger per (site, type) over [from, to],
// optionally scoped to one site.
func (s *Service) Statements(ctx context.Context, from, to time.Time, siteID *uuid.UUID) ([]StatementRow, error) {
	query := s.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to.AddDate(0, 0, 1)).
		Preload("Site").
		Preload("PackagingType")
	if siteID != nil {
		query = query.Where("site_id = ?", *siteID)
	}

	var movements []models.PackagingMovement
	if err := query.Order("created_at ASC").Find(&movements).Error; err != nil {
		return nil, err
	}

	type key struct{ site, pt uuid.UUID }
	rows := make(map[key]*StatementRow)
	order := []key{}
	for _, movement := range movements {
		k := key{movement.SiteID, movement.PackagingTypeID}
		row, ok := rows[k]
		if !ok {
			row = &StatementRow{
				SiteCode:          movement.Site.Code,
				SiteName:          movement.Site.Name,
				PackagingTypeCode: movement.PackagingType.Code,
			}
			rows[k] = row
			order = append(order, k)
		}
		switch movement.Type {
		case enums.MovementTypeDispatch:
			row.Dispatched += -movement.Delta
		case enums.MovementTypeReceipt:
			row.Received += movement.Delta
		case enums.MovementTypeAdjustment:
			row.Adjusted += movement.Delta
		}
		row.NetChange += movement.Delta
		row.ClosingQuantity = movement.ResultingQty
	}

	result := make([]StatementRow, 0, len(order))
	for _, k := range order {
		result = append(result, *rows[k])
	}
	return result, nil
}

// Discrepancies lists every flagged line on loads completed in [from, to].
func (s *Service) Discrepancies(ctx context.Context, from, to time.Time) ([]DiscrepancyRow, error) {
	var loads []models.Load
	err := s.db.WithContext(ctx).
		Where("has_discrepancy = ? AND dispatch_date >= ? AND dispatch_date < ?", true, from, to.AddDate(0, 0, 1)).
		Preload("OriginSite").
		Preload("DestinationSite").
		Preload("Lines").
		Preload("Lines.PackagingType").
		Order("dispatch_date ASC").
		Find(&loads).Error
	if err != nil {
		return nil, err
	}

	var rows []DiscrepancyRow
	for _, load := range loads {
		notes := ""
		if load.DiscrepancyNotes != nil {
			notes = *load.DiscrepancyNotes
		}
		for _, line := range load.Lines {
			if line.QtyDamaged == 0 && line.QtyMissing == 0 {
				continue
			}
			rows = append(rows, DiscrepancyRow{
				LoadNumber:        load.LoadNumber,
				DispatchDate:      load.DispatchDate,
				OriginSite:        load.OriginSite.Code,
				DestinationSite:   load.DestinationSite.Code,
				PackagingTypeCode: line.PackagingType.Code,
				QtyDispatched:     line.QtyDispatched,
				QtyReceived:       line.QtyReceived,
				QtyDamaged:        line.QtyDamaged,
				QtyMissing:        line.QtyMissing,
				Notes:             notes,
			})
		}
	}
	return rows, nil
}

// Exceptions lists loads in [from, to] with late departures or arrivals, or
// farm overtime on either leg.
func (s *Service) Exceptions(ctx context.Context, from, to time.Time) ([]ExceptionRow, error) {
	var loads []models.Load
	err := s.db.WithContext(ctx).
		Where("dispatch_date >= ? AND dispatch_date < ?", from, to.AddDate(0, 0, 1)).
		Where("departure_ontime_status = ? OR arrival_ontime_status = ? OR has_overtime = ?",
			enums.OnTimeStatusDelayed, enums.OnTimeStatusDelayed, true).
		Preload("OriginSite").
		Preload("DestinationSite").
		Order("dispatch_date ASC").
		Find(&loads).Error
	if err != nil {
		return nil, err
	}

	rows := make([]ExceptionRow, 0, len(loads))
	for _, load := range loads {
		rows = append(rows, ExceptionRow{
			LoadNumber:                load.LoadNumber,
			DispatchDate:              load.DispatchDate,
			OriginSite:                load.OriginSite.Code,
			DestinationSite:           load.DestinationSite.Code,
			Status:                    load.Status.String(),
			DepartureStatus:           ontimeString(load.DepartureOnTimeStatus),
			ArrivalStatus:             ontimeString(load.ArrivalOnTimeStatus),
			FarmArrivalOvertimeMins:   load.FarmArrivalOvertimeMins,
			FarmDepartureOvertimeMins: load.FarmDepartureOvertimeMins,
		})
	}
	return rows, nil
}

// Aging lists dispatched, uncompleted loads whose packaging has been out
// longer than its type's expected turnaround as of asOf.
func (s *Service) Aging(ctx context.Context, asOf time.Time) ([]AgingRow, error) {
	var loads []models.Load
	err := s.db.WithContext(ctx).
		Where("status IN ?", enums.ActiveLoadStatuses).
		Preload("OriginSite").
		Preload("DestinationSite").
		Preload("Lines").
		Preload("Lines.PackagingType").
		Order("dispatch_date ASC").
		Find(&loads).Error
	if err != nil {
		return nil, err
	}

	var rows []AgingRow
	for _, load := range loads {
		daysOut := int(asOf.Sub(load.DispatchDate).Hours() / 24)
		for _, line := range load.Lines {
			if daysOut <= line.PackagingType.ExpectedTurnaroundDays {
				continue
			}
			rows = append(rows, AgingRow{
				LoadNumber:        load.LoadNumber,
				DispatchDate:      load.DispatchDate,
				OriginSite:        load.OriginSite.Code,
				DestinationSite:   load.DestinationSite.Code,
				PackagingTypeCode: line.PackagingType.Code,
				QtyOutstanding:    line.QtyDispatched,
				DaysOut:           daysOut,
				TurnaroundDays:    line.PackagingType.ExpectedTurnaroundDays,
			})
		}
	}
	return rows, nil
}

// CSV projections. Headers stay in sync with the row structs above.

func StatementCSV(rows []StatementRow) ([]string, [][]string) {
	header := []string{"site_code", "site_name", "packaging_type", "dispatched", "received", "adjusted", "net_change", "closing_quantity"}
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.SiteCode,
			row.SiteName,
			row.PackagingTypeCode,
			strconv.Itoa(row.Dispatched),
			strconv.Itoa(row.Received),
			strconv.Itoa(row.Adjusted),
			strconv.Itoa(row.NetChange),
			strconv.Itoa(row.ClosingQuantity),
		})
	}
	return header, records
}

func DiscrepancyCSV(rows []DiscrepancyRow) ([]string, [][]string) {
	header := []string{"load_number", "dispatch_date", "origin", "destination", "packaging_type", "dispatched", "received", "damaged", "missing", "notes"}
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.LoadNumber,
			row.DispatchDate.Format("2006-01-02"),
			row.OriginSite,
			row.DestinationSite,
			row.PackagingTypeCode,
			strconv.Itoa(row.QtyDispatched),
			strconv.Itoa(row.QtyReceived),
			strconv.Itoa(row.QtyDamaged),
			strconv.Itoa(row.QtyMissing),
			row.Notes,
		})
	}
	return header, records
}

func ExceptionCSV(rows []ExceptionRow) ([]string, [][]string) {
	header := []string{"load_number", "dispatch_date", "origin", "destination", "status", "departure_status", "arrival_status", "farm_arrival_overtime_mins", "farm_departure_overtime_mins"}
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.LoadNumber,
			row.DispatchDate.Format("2006-01-02"),
			row.OriginSite,
			row.DestinationSite,
			row.Status,
			row.DepartureStatus,
			row.ArrivalStatus,
			strconv.Itoa(row.FarmArrivalOvertimeMins),
			strconv.Itoa(row.FarmDepartureOvertimeMins),
		})
	}
	return header, records
}

func AgingCSV(rows []AgingRow) ([]string, [][]string) {
	header := []string{"load_number", "dispatch_date", "origin", "destination", "packaging_type", "qty_outstanding", "days_out", "turnaround_days"}
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.LoadNumber,
			row.DispatchDate.Format("2006-01-02"),
			row.OriginSite,
			row.DestinationSite,
			row.PackagingTypeCode,
			strconv.Itoa(row.QtyOutstanding),
			strconv.Itoa(row.DaysOut),
			strconv.Itoa(row.TurnaroundDays),
		})
	}
	return header, records
}

func ontimeString(status *enums.OnTimeStatus) string {
	if status == nil {
		return ""
	}
	return status.String()
}
