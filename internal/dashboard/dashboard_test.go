package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/agrilogix/crateflow-backend/internal/inventory"
	"github.com/agrilogix/crateflow-backend/internal/loads"
	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	pkgerrors "github.com/agrilogix/crateflow-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newDashboardTestService(t *testing.T) (*Service, *gorm.DB) {
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
		&models.SitePackagingInventory{},
		&models.PackagingMovement{},
		&models.StockThreshold{},
		&models.Alert{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(inventory.NewRepository(conn), loads.NewRepository(conn)), conn
}

func seedDashboardSite(t *testing.T, conn *gorm.DB, code string) *models.Site {
	t.Helper()

	site := &models.Site{ID: uuid.New(), Code: code, Name: code + " site", Type: enums.SiteTypeDepot, IsActive: true}
	if err := conn.Create(site).Error; err != nil {
		t.Fatalf("seed site: %v", err)
	}
	return site
}

func seedDashboardType(t *testing.T, conn *gorm.DB, code string) *models.PackagingType {
	t.Helper()

	pt := &models.PackagingType{ID: uuid.New(), Code: code, Name: code, IsActive: true}
	if err := conn.Create(pt).Error; err != nil {
		t.Fatalf("seed packaging type: %v", err)
	}
	return pt
}

func TestSummaryClassifiesStockAgainstThresholds(t *testing.T) {
	svc, conn := newDashboardTestService(t)
	site := seedDashboardSite(t, conn, "CD")
	crate := seedDashboardType(t, conn, "CRATE-20")
	bin := seedDashboardType(t, conn, "BIN-400")

	balances := []models.SitePackagingInventory{
		{ID: uuid.New(), SiteID: site.ID, PackagingTypeID: crate.ID, Quantity: 40},
		{ID: uuid.New(), SiteID: site.ID, PackagingTypeID: bin.ID, Quantity: 500},
	}
	for i := range balances {
		if err := conn.Create(&balances[i]).Error; err != nil {
			t.Fatalf("seed balance: %v", err)
		}
	}
	threshold := &models.StockThreshold{ID: uuid.New(), SiteID: site.ID, PackagingTypeID: crate.ID, MinimumLevel: 50, MaximumLevel: 500}
	if err := conn.Create(threshold).Error; err != nil {
		t.Fatalf("seed threshold: %v", err)
	}

	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary.Stock) != 2 {
		t.Fatalf("expected 2 stock entries, got %d", len(summary.Stock))
	}

	byCode := map[string]StockEntry{}
	for _, entry := range summary.Stock {
		byCode[entry.PackagingTypeCode] = entry
	}
	if byCode["CRATE-20"].Status != enums.StockStatusCritical {
		t.Fatalf("expected critical crate stock, got %s", byCode["CRATE-20"].Status)
	}
	if byCode["CRATE-20"].MinimumLevel != 50 {
		t.Fatalf("threshold band should surface, got %+v", byCode["CRATE-20"])
	}
	if byCode["BIN-400"].Status != enums.StockStatusNormal {
		t.Fatalf("no threshold means normal, got %s", byCode["BIN-400"].Status)
	}
}

func TestSummaryTotalsInTransitPackaging(t *testing.T) {
	svc, conn := newDashboardTestService(t)
	origin := seedDashboardSite(t, conn, "BV")
	destination := seedDashboardSite(t, conn, "CD")
	crate := seedDashboardType(t, conn, "CRATE-20")

	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	seedLoad := func(number string, status enums.LoadStatus, qty int) {
		load := &models.Load{
			ID:                uuid.New(),
			LoadNumber:        number,
			OriginSiteID:      origin.ID,
			DestinationSiteID: destination.ID,
			DispatchDate:      date,
			Status:            status,
			Lines: []models.LoadPackagingLine{
				{ID: uuid.New(), PackagingTypeID: crate.ID, QtyDispatched: qty},
			},
		}
		if err := conn.Create(load).Error; err != nil {
			t.Fatalf("seed load %s: %v", number, err)
		}
	}
	seedLoad("BV240501", enums.LoadStatusDeparted, 100)
	seedLoad("BV240501A", enums.LoadStatusInTransit, 50)
	// terminal loads are not in transit
	seedLoad("BV240501B", enums.LoadStatusCompleted, 999)

	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary.InTransit) != 1 {
		t.Fatalf("expected one packaging type in transit, got %d", len(summary.InTransit))
	}
	entry := summary.InTransit[0]
	if entry.Quantity != 150 {
		t.Fatalf("expected 150 units in transit, got %d", entry.Quantity)
	}
	if entry.LoadCount != 2 {
		t.Fatalf("expected 2 active loads counted, got %d", entry.LoadCount)
	}
}

func TestSiteDetailScopesToSite(t *testing.T) {
	svc, conn := newDashboardTestService(t)
	site := seedDashboardSite(t, conn, "CD")
	other := seedDashboardSite(t, conn, "BV")
	crate := seedDashboardType(t, conn, "CRATE-20")

	for _, target := range []*models.Site{site, other} {
		balance := &models.SitePackagingInventory{ID: uuid.New(), SiteID: target.ID, PackagingTypeID: crate.ID, Quantity: 10}
		if err := conn.Create(balance).Error; err != nil {
			t.Fatalf("seed balance: %v", err)
		}
		alert := &models.Alert{ID: uuid.New(), SiteID: target.ID, PackagingTypeID: crate.ID, Severity: enums.AlertSeverityWarning, Message: "stock level 10 at or near minimum 9"}
		if err := conn.Create(alert).Error; err != nil {
			t.Fatalf("seed alert: %v", err)
		}
	}

	detail, err := svc.SiteDetail(context.Background(), site.ID)
	if err != nil {
		t.Fatalf("site detail: %v", err)
	}
	if len(detail.Stock) != 1 || detail.Stock[0].SiteID != site.ID {
		t.Fatalf("stock must be scoped to the site: %+v", detail.Stock)
	}
	if len(detail.RecentAlerts) != 1 || detail.RecentAlerts[0].SiteID != site.ID {
		t.Fatalf("alerts must be scoped to the site: %+v", detail.RecentAlerts)
	}
}

func TestSiteDetailUnknownSite(t *testing.T) {
	svc, _ := newDashboardTestService(t)

	_, err := svc.SiteDetail(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
