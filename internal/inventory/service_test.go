package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/agrilogix/crateflow-backend/pkg/db"
	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Site{},
		&models.User{},
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
	return conn
}

func newInventoryTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	conn := setupInventoryTestDB(t)
	return NewService(NewRepository(conn), db.FromGorm(conn), nil), conn
}

func seedInventorySite(t *testing.T, conn *gorm.DB, code string) *models.Site {
	t.Helper()

	site := &models.Site{
		ID:       uuid.New(),
		Code:     code,
		Name:     code + " site",
		Type:     enums.SiteTypeDepot,
		IsActive: true,
	}
	if err := conn.Create(site).Error; err != nil {
		t.Fatalf("seed site: %v", err)
	}
	return site
}

func seedInventoryType(t *testing.T, conn *gorm.DB, code string) *models.PackagingType {
	t.Helper()

	pt := &models.PackagingType{
		ID:       uuid.New(),
		Code:     code,
		Name:     code,
		IsActive: true,
	}
	if err := conn.Create(pt).Error; err != nil {
		t.Fatalf("seed packaging type: %v", err)
	}
	return pt
}

func seedThreshold(t *testing.T, conn *gorm.DB, siteID, typeID uuid.UUID, minimum int) {
	t.Helper()

	threshold := &models.StockThreshold{
		ID:              uuid.New(),
		SiteID:          siteID,
		PackagingTypeID: typeID,
		MinimumLevel:    minimum,
	}
	if err := conn.Create(threshold).Error; err != nil {
		t.Fatalf("seed threshold: %v", err)
	}
}

func countMovements(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()

	var count int64
	if err := conn.Model(&models.PackagingMovement{}).Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	return count
}

func TestClassifyStock(t *testing.T) {
	cases := []struct {
		name     string
		quantity int
		minimum  int
		want     enums.StockStatus
	}{
		{"no threshold configured", 5, 0, enums.StockStatusNormal},
		{"below minimum", 40, 50, enums.StockStatusCritical},
		{"at minimum", 50, 50, enums.StockStatusCritical},
		{"inside warning band", 58, 50, enums.StockStatusWarning},
		{"at warning boundary", 60, 50, enums.StockStatusWarning},
		{"above warning band", 61, 50, enums.StockStatusNormal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyStock(tc.quantity, tc.minimum); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestAdjustCreatesBalanceAndMovement(t *testing.T) {
	svc, conn := newInventoryTestService(t)
	site := seedInventorySite(t, conn, "CD")
	pt := seedInventoryType(t, conn, "CRATE-20")

	balance, err := svc.Adjust(context.Background(), AdjustInput{
		SiteID:          site.ID,
		PackagingTypeID: pt.ID,
		NewQuantity:     120,
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if balance.Quantity != 120 {
		t.Fatalf("expected quantity 120, got %d", balance.Quantity)
	}
	if balance.LastCountedAt == nil {
		t.Fatal("adjust should stamp the count time")
	}

	var movement models.PackagingMovement
	if err := conn.First(&movement).Error; err != nil {
		t.Fatalf("load movement: %v", err)
	}
	if movement.Type != enums.MovementTypeAdjustment {
		t.Fatalf("expected adjustment movement, got %s", movement.Type)
	}
	if movement.Delta != 120 || movement.ResultingQty != 120 {
		t.Fatalf("movement should record delta and resulting quantity: %+v", movement)
	}
}

func TestAdjustZeroDeltaWritesNoMovement(t *testing.T) {
	svc, conn := newInventoryTestService(t)
	site := seedInventorySite(t, conn, "CD")
	pt := seedInventoryType(t, conn, "CRATE-20")

	if _, err := svc.Adjust(context.Background(), AdjustInput{SiteID: site.ID, PackagingTypeID: pt.ID, NewQuantity: 50}); err != nil {
		t.Fatalf("first adjust: %v", err)
	}
	if _, err := svc.Adjust(context.Background(), AdjustInput{SiteID: site.ID, PackagingTypeID: pt.ID, NewQuantity: 50}); err != nil {
		t.Fatalf("second adjust: %v", err)
	}

	if got := countMovements(t, conn); got != 1 {
		t.Fatalf("zero delta recount must not append a movement, got %d rows", got)
	}
}

func TestAdjustRaisesAlertOnceBelowMinimum(t *testing.T) {
	svc, conn := newInventoryTestService(t)
	site := seedInventorySite(t, conn, "CD")
	pt := seedInventoryType(t, conn, "CRATE-20")
	seedThreshold(t, conn, site.ID, pt.ID, 100)

	if _, err := svc.Adjust(context.Background(), AdjustInput{SiteID: site.ID, PackagingTypeID: pt.ID, NewQuantity: 80}); err != nil {
		t.Fatalf("adjust below minimum: %v", err)
	}
	if _, err := svc.Adjust(context.Background(), AdjustInput{SiteID: site.ID, PackagingTypeID: pt.ID, NewQuantity: 70}); err != nil {
		t.Fatalf("second adjust below minimum: %v", err)
	}

	var alerts []models.Alert
	if err := conn.Find(&alerts).Error; err != nil {
		t.Fatalf("load alerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("open alert must be deduplicated, got %d", len(alerts))
	}
	if alerts[0].Severity != enums.AlertSeverityCritical {
		t.Fatalf("expected critical severity, got %s", alerts[0].Severity)
	}
}

func TestApplyLoadDispatchDecrementsOrigin(t *testing.T) {
	svc, conn := newInventoryTestService(t)
	origin := seedInventorySite(t, conn, "BV")
	pt := seedInventoryType(t, conn, "CRATE-20")

	if _, err := svc.Adjust(context.Background(), AdjustInput{SiteID: origin.ID, PackagingTypeID: pt.ID, NewQuantity: 30}); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	load := &models.Load{
		ID:           uuid.New(),
		OriginSiteID: origin.ID,
		Lines: []models.LoadPackagingLine{
			{ID: uuid.New(), PackagingTypeID: pt.ID, QtyDispatched: 50},
		},
	}
	if err := svc.ApplyLoadDispatch(context.Background(), conn, load, nil); err != nil {
		t.Fatalf("apply dispatch: %v", err)
	}

	var balance models.SitePackagingInventory
	if err := conn.Where("site_id = ? AND packaging_type_id = ?", origin.ID, pt.ID).First(&balance).Error; err != nil {
		t.Fatalf("load balance: %v", err)
	}
	if balance.Quantity != -20 {
		t.Fatalf("dispatch may drive a balance negative, got %d", balance.Quantity)
	}

	var movement models.PackagingMovement
	if err := conn.Where("type = ?", enums.MovementTypeDispatch).First(&movement).Error; err != nil {
		t.Fatalf("load movement: %v", err)
	}
	if movement.Delta != -50 || movement.ResultingQty != -20 {
		t.Fatalf("dispatch movement mismatch: %+v", movement)
	}
	if movement.LoadID == nil || *movement.LoadID != load.ID {
		t.Fatal("dispatch movement must reference the load")
	}
}

func TestApplyLoadReceiptCreditsDestination(t *testing.T) {
	svc, conn := newInventoryTestService(t)
	destination := seedInventorySite(t, conn, "CD")
	pt := seedInventoryType(t, conn, "CRATE-20")

	load := &models.Load{
		ID:                uuid.New(),
		DestinationSiteID: destination.ID,
		Lines: []models.LoadPackagingLine{
			{ID: uuid.New(), PackagingTypeID: pt.ID, QtyDispatched: 100, QtyReceived: 95, QtyDamaged: 3, QtyMissing: 2},
		},
	}
	if err := svc.ApplyLoadReceipt(context.Background(), conn, load, nil); err != nil {
		t.Fatalf("apply receipt: %v", err)
	}

	var balance models.SitePackagingInventory
	if err := conn.Where("site_id = ? AND packaging_type_id = ?", destination.ID, pt.ID).First(&balance).Error; err != nil {
		t.Fatalf("load balance: %v", err)
	}
	if balance.Quantity != 95 {
		t.Fatalf("expected received units credited, got %d", balance.Quantity)
	}
	if balance.DamagedQuantity != 3 {
		t.Fatalf("expected damaged units bucketed, got %d", balance.DamagedQuantity)
	}

	var movement models.PackagingMovement
	if err := conn.Where("type = ?", enums.MovementTypeReceipt).First(&movement).Error; err != nil {
		t.Fatalf("load movement: %v", err)
	}
	if movement.Delta != 95 {
		t.Fatalf("receipt movement credits received units only, got %d", movement.Delta)
	}
}

func TestAcknowledgeAlertIsIdempotent(t *testing.T) {
	svc, conn := newInventoryTestService(t)
	site := seedInventorySite(t, conn, "CD")
	pt := seedInventoryType(t, conn, "CRATE-20")

	alert := &models.Alert{
		ID:              uuid.New(),
		SiteID:          site.ID,
		PackagingTypeID: pt.ID,
		Severity:        enums.AlertSeverityWarning,
		Message:         "stock level 55 at or near minimum 50",
	}
	if err := conn.Create(alert).Error; err != nil {
		t.Fatalf("seed alert: %v", err)
	}

	actor := uuid.New()
	first, err := svc.AcknowledgeAlert(context.Background(), alert.ID, &actor)
	if err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if !first.Acknowledged || first.AcknowledgedAt == nil {
		t.Fatal("alert should be acknowledged with a timestamp")
	}
	ackedAt := *first.AcknowledgedAt

	time.Sleep(time.Millisecond)
	second, err := svc.AcknowledgeAlert(context.Background(), alert.ID, &actor)
	if err != nil {
		t.Fatalf("second acknowledge: %v", err)
	}
	if !second.AcknowledgedAt.Equal(ackedAt) {
		t.Fatal("second acknowledge must not move the timestamp")
	}
}
