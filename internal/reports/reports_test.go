package reports

import (
	"context"
	"testing"
	"time"

	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupReportsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Site{},
		&models.User{},
		&models.Channel{},
		&models.Vehicle{},
		&models.Driver{},
		&models.PackagingType{},
		&models.Load{},
		&models.LoadPackagingLine{},
		&models.PackagingMovement{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedReportSite(t *testing.T, conn *gorm.DB, code string) *models.Site {
	t.Helper()

	site := &models.Site{ID: uuid.New(), Code: code, Name: code + " site", Type: enums.SiteTypeDepot, IsActive: true}
	if err := conn.Create(site).Error; err != nil {
		t.Fatalf("seed site: %v", err)
	}
	return site
}

func seedReportType(t *testing.T, conn *gorm.DB, code string, turnaround int) *models.PackagingType {
	t.Helper()

	pt := &models.PackagingType{ID: uuid.New(), Code: code, Name: code, ExpectedTurnaroundDays: turnaround, IsActive: true}
	if err := conn.Create(pt).Error; err != nil {
		t.Fatalf("seed packaging type: %v", err)
	}
	return pt
}

func TestStatementsAggregatesMovements(t *testing.T) {
	conn := setupReportsTestDB(t)
	svc := NewService(conn)
	site := seedReportSite(t, conn, "CD")
	pt := seedReportType(t, conn, "CRATE-20", 7)

	movements := []models.PackagingMovement{
		{ID: uuid.New(), SiteID: site.ID, PackagingTypeID: pt.ID, Type: enums.MovementTypeAdjustment, Delta: 100, ResultingQty: 100},
		{ID: uuid.New(), SiteID: site.ID, PackagingTypeID: pt.ID, Type: enums.MovementTypeDispatch, Delta: -30, ResultingQty: 70},
		{ID: uuid.New(), SiteID: site.ID, PackagingTypeID: pt.ID, Type: enums.MovementTypeReceipt, Delta: 25, ResultingQty: 95},
	}
	for i := range movements {
		if err := conn.Create(&movements[i]).Error; err != nil {
			t.Fatalf("seed movement: %v", err)
		}
	}

	from := time.Now().UTC().AddDate(0, 0, -1)
	to := time.Now().UTC()
	rows, err := svc.Statements(context.Background(), from, to, nil)
	if err != nil {
		t.Fatalf("statements: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row per site and type, got %d", len(rows))
	}

	row := rows[0]
	if row.SiteCode != "CD" || row.PackagingTypeCode != "CRATE-20" {
		t.Fatalf("row identity mismatch: %+v", row)
	}
	if row.Dispatched != 30 {
		t.Fatalf("dispatched should be positive units out, got %d", row.Dispatched)
	}
	if row.Received != 25 || row.Adjusted != 100 {
		t.Fatalf("received/adjusted mismatch: %+v", row)
	}
	if row.NetChange != 95 || row.ClosingQuantity != 95 {
		t.Fatalf("net/closing mismatch: %+v", row)
	}
}

func TestDiscrepanciesListsOnlyFlaggedLines(t *testing.T) {
	conn := setupReportsTestDB(t)
	svc := NewService(conn)
	origin := seedReportSite(t, conn, "BV")
	destination := seedReportSite(t, conn, "CD")
	crate := seedReportType(t, conn, "CRATE-20", 7)
	bin := seedReportType(t, conn, "BIN-400", 10)

	notes := "two crates crushed in transit"
	load := &models.Load{
		ID:                uuid.New(),
		LoadNumber:        "BV240501",
		OriginSiteID:      origin.ID,
		DestinationSiteID: destination.ID,
		DispatchDate:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Status:            enums.LoadStatusCompleted,
		HasDiscrepancy:    true,
		DiscrepancyNotes:  &notes,
		Lines: []models.LoadPackagingLine{
			{ID: uuid.New(), PackagingTypeID: crate.ID, QtyDispatched: 100, QtyReceived: 98, QtyDamaged: 2},
			{ID: uuid.New(), PackagingTypeID: bin.ID, QtyDispatched: 10, QtyReceived: 10},
		},
	}
	if err := conn.Create(load).Error; err != nil {
		t.Fatalf("seed load: %v", err)
	}

	rows, err := svc.Discrepancies(context.Background(),
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("discrepancies: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("clean lines must be excluded, got %d rows", len(rows))
	}
	if rows[0].PackagingTypeCode != "CRATE-20" || rows[0].QtyDamaged != 2 {
		t.Fatalf("row mismatch: %+v", rows[0])
	}
	if rows[0].Notes != notes {
		t.Fatalf("notes mismatch: %q", rows[0].Notes)
	}
}

func TestExceptionsMatchesLateAndOvertimeLoads(t *testing.T) {
	conn := setupReportsTestDB(t)
	svc := NewService(conn)
	origin := seedReportSite(t, conn, "BV")
	destination := seedReportSite(t, conn, "CD")

	delayed := enums.OnTimeStatusDelayed
	onTime := enums.OnTimeStatusOnTime
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	seedLoad := func(number string, departure *enums.OnTimeStatus, overtime bool) {
		load := &models.Load{
			ID:                    uuid.New(),
			LoadNumber:            number,
			OriginSiteID:          origin.ID,
			DestinationSiteID:     destination.ID,
			DispatchDate:          date,
			Status:                enums.LoadStatusCompleted,
			DepartureOnTimeStatus: departure,
			HasOvertime:           overtime,
		}
		if err := conn.Create(load).Error; err != nil {
			t.Fatalf("seed load %s: %v", number, err)
		}
	}
	seedLoad("BV240501", &delayed, false)
	seedLoad("BV240501A", &onTime, true)
	seedLoad("BV240501B", &onTime, false)

	rows, err := svc.Exceptions(context.Background(), date, date.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("exceptions: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected the late and the overtime load, got %d", len(rows))
	}
}

func TestAgingFlagsOverdueTurnaround(t *testing.T) {
	conn := setupReportsTestDB(t)
	svc := NewService(conn)
	origin := seedReportSite(t, conn, "BV")
	destination := seedReportSite(t, conn, "CD")
	crate := seedReportType(t, conn, "CRATE-20", 7)
	pallet := seedReportType(t, conn, "PALLET-STD", 14)

	dispatchDate := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	load := &models.Load{
		ID:                uuid.New(),
		LoadNumber:        "BV240501",
		OriginSiteID:      origin.ID,
		DestinationSiteID: destination.ID,
		DispatchDate:      dispatchDate,
		Status:            enums.LoadStatusInTransit,
		Lines: []models.LoadPackagingLine{
			{ID: uuid.New(), PackagingTypeID: crate.ID, QtyDispatched: 100},
			{ID: uuid.New(), PackagingTypeID: pallet.ID, QtyDispatched: 4},
		},
	}
	if err := conn.Create(load).Error; err != nil {
		t.Fatalf("seed load: %v", err)
	}

	asOf := dispatchDate.AddDate(0, 0, 10)
	rows, err := svc.Aging(context.Background(), asOf)
	if err != nil {
		t.Fatalf("aging: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("only the crate line is past its turnaround, got %d rows", len(rows))
	}
	if rows[0].PackagingTypeCode != "CRATE-20" || rows[0].DaysOut != 10 || rows[0].TurnaroundDays != 7 {
		t.Fatalf("aging row mismatch: %+v", rows[0])
	}
}

func TestStatementCSVProjection(t *testing.T) {
	header, records := StatementCSV([]StatementRow{{
		SiteCode:          "CD",
		SiteName:          "Central Depot",
		PackagingTypeCode: "CRATE-20",
		Dispatched:        30,
		Received:          25,
		Adjusted:          100,
		NetChange:         95,
		ClosingQuantity:   95,
	}})

	if len(header) != 8 {
		t.Fatalf("expected 8 columns, got %d", len(header))
	}
	if len(records) != 1 || len(records[0]) != len(header) {
		t.Fatalf("records must match the header width: %+v", records)
	}
	if records[0][0] != "CD" || records[0][3] != "30" || records[0][7] != "95" {
		t.Fatalf("record values mismatch: %+v", records[0])
	}
}
