package loads

import (
	"context"
	"testing"
	"time"

	"github.com/agrilogix/crateflow-backend/pkg/config"
	"github.com/agrilogix/crateflow-backend/pkg/db"
	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	pkgerrors "github.com/agrilogix/crateflow-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type ledgerStub struct {
	dispatched int
	received   int
}

func (l *ledgerStub) ApplyLoadDispatch(ctx context.Context, tx *gorm.DB, load *models.Load, actorID *uuid.UUID) error {
	l.dispatched++
	return nil
}

func (l *ledgerStub) ApplyLoadReceipt(ctx context.Context, tx *gorm.DB, load *models.Load, actorID *uuid.UUID) error {
	l.received++
	return nil
}

func setupLoadsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Site{},
		&models.User{},
		&models.Vehicle{},
		&models.Driver{},
		&models.Channel{},
		&models.Product{},
		&models.PackagingType{},
		&models.Load{},
		&models.LoadPackagingLine{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newLoadsTestService(t *testing.T) (*Service, *ledgerStub, *gorm.DB) {
	t.Helper()

	conn := setupLoadsTestDB(t)
	ledger := &ledgerStub{}
	svc := NewService(NewRepository(conn), db.FromGorm(conn), ledger, config.DispatchConfig{
		OnTimeWindowMinutes:   5,
		FarmArrivalExpected:   "14:00",
		FarmDepartureExpected: "17:00",
	}, nil)
	return svc, ledger, conn
}

func seedSite(t *testing.T, conn *gorm.DB, code string, siteType enums.SiteType) *models.Site {
	t.Helper()

	site := &models.Site{
		ID:       uuid.New(),
		Code:     code,
		Name:     code + " site",
		Type:     siteType,
		IsActive: true,
	}
	if err := conn.Create(site).Error; err != nil {
		t.Fatalf("seed site %s: %v", code, err)
	}
	return site
}

func seedPackagingType(t *testing.T, conn *gorm.DB, code string) *models.PackagingType {
	t.Helper()

	pt := &models.PackagingType{
		ID:                     uuid.New(),
		Code:                   code,
		Name:                   code,
		IsReturnable:           true,
		ExpectedTurnaroundDays: 7,
		IsActive:               true,
	}
	if err := conn.Create(pt).Error; err != nil {
		t.Fatalf("seed packaging type %s: %v", code, err)
	}
	return pt
}

func createTestLoad(t *testing.T, svc *Service, origin, destination *models.Site, pt *models.PackagingType, qty int) *models.Load {
	t.Helper()

	load, err := svc.Create(context.Background(), CreateInput{
		OriginSiteID:      origin.ID,
		DestinationSiteID: destination.ID,
		DispatchDate:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Lines:             []LineInput{{PackagingTypeID: pt.ID, QtyDispatched: qty}},
	})
	if err != nil {
		t.Fatalf("create load: %v", err)
	}
	return load
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func TestCreateAllocatesSequentialNumbers(t *testing.T) {
	svc, _, conn := newLoadsTestService(t)
	origin := seedSite(t, conn, "BV", enums.SiteTypePackhouse)
	destination := seedSite(t, conn, "CD", enums.SiteTypeDepot)
	pt := seedPackagingType(t, conn, "CRATE-20")

	want := []string{"BV240501", "BV240501A", "BV240501B"}
	for _, expected := range want {
		load := createTestLoad(t, svc, origin, destination, pt, 10)
		if load.LoadNumber != expected {
			t.Fatalf("expected load number %s, got %s", expected, load.LoadNumber)
		}
		if load.Status != enums.LoadStatusScheduled {
			t.Fatalf("new load should be scheduled, got %s", load.Status)
		}
	}
}

func TestCreateRejectsSameOriginAndDestination(t *testing.T) {
	svc, _, conn := newLoadsTestService(t)
	origin := seedSite(t, conn, "BV", enums.SiteTypePackhouse)
	pt := seedPackagingType(t, conn, "CRATE-20")

	_, err := svc.Create(context.Background(), CreateInput{
		OriginSiteID:      origin.ID,
		DestinationSiteID: origin.ID,
		DispatchDate:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Lines:             []LineInput{{PackagingTypeID: pt.ID, QtyDispatched: 10}},
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateRejectsInactiveOrigin(t *testing.T) {
	svc, _, conn := newLoadsTestService(t)
	origin := seedSite(t, conn, "BV", enums.SiteTypePackhouse)
	destination := seedSite(t, conn, "CD", enums.SiteTypeDepot)
	pt := seedPackagingType(t, conn, "CRATE-20")

	if err := conn.Model(origin).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate origin: %v", err)
	}

	_, err := svc.Create(context.Background(), CreateInput{
		OriginSiteID:      origin.ID,
		DestinationSiteID: destination.ID,
		DispatchDate:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Lines:             []LineInput{{PackagingTypeID: pt.ID, QtyDispatched: 10}},
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateRejectsDuplicateLineTypes(t *testing.T) {
	svc, _, conn := newLoadsTestService(t)
	origin := seedSite(t, conn, "BV", enums.SiteTypePackhouse)
	destination := seedSite(t, conn, "CD", enums.SiteTypeDepot)
	pt := seedPackagingType(t, conn, "CRATE-20")

	_, err := svc.Create(context.Background(), CreateInput{
		OriginSiteID:      origin.ID,
		DestinationSiteID: destination.ID,
		DispatchDate:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Lines: []LineInput{
			{PackagingTypeID: pt.ID, QtyDispatched: 10},
			{PackagingTypeID: pt.ID, QtyDispatched: 5},
		},
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestConfirmDispatchClassifiesDeparture(t *testing.T) {
	svc, ledger, conn := newLoadsTestService(t)
	origin := seedSite(t, conn, "BV", enums.SiteTypePackhouse)
	destination := seedSite(t, conn, "CD", enums.SiteTypeDepot)
	pt := seedPackagingType(t, conn, "CRATE-20")

	scheduled := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	load, err := svc.Create(context.Background(), CreateInput{
		OriginSiteID:           origin.ID,
		DestinationSiteID:      destination.ID,
		DispatchDate:           time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		ScheduledDepartureTime: &scheduled,
		Lines:                  []LineInput{{PackagingTypeID: pt.ID, QtyDispatched: 10}},
	})
	if err != nil {
		t.Fatalf("create load: %v", err)
	}

	actual := scheduled.Add(12 * time.Minute)
	dispatched, err := svc.ConfirmDispatch(context.Background(), load.ID, DispatchInput{ActualDepartureTime: &actual})
	if err != nil {
		t.Fatalf("confirm dispatch: %v", err)
	}

	if dispatched.Status != enums.LoadStatusDeparted {
		t.Fatalf("expected departed, got %s", dispatched.Status)
	}
	if dispatched.DepartureOnTimeStatus == nil || *dispatched.DepartureOnTimeStatus != enums.OnTimeStatusDelayed {
		t.Fatalf("expected delayed departure classification, got %v", dispatched.DepartureOnTimeStatus)
	}
	if ledger.dispatched != 1 {
		t.Fatalf("expected one ledger dispatch call, got %d", ledger.dispatched)
	}
}

func TestConfirmDispatchTwiceConflicts(t *testing.T) {
	svc, ledger, conn := newLoadsTestService(t)
	origin := seedSite(t, conn, "BV", enums.SiteTypePackhouse)
	destination := seedSite(t, conn, "CD", enums.SiteTypeDepot)
	pt := seedPackagingType(t, conn, "CRATE-20")
	load := createTestLoad(t, svc, origin, destination, pt, 10)

	if _, err := svc.ConfirmDispatch(context.Background(), load.ID, DispatchInput{}); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	_, err := svc.ConfirmDispatch(context.Background(), load.ID, DispatchInput{})
	expectCode(t, err, pkgerrors.CodeStateConflict)

	if ledger.dispatched != 1 {
		t.Fatalf("double dispatch must not hit the ledger twice, got %d", ledger.dispatched)
	}
}

func TestConfirmReceiptFlagsDiscrepancy(t *testing.T) {
	svc, ledger, conn := newLoadsTestService(t)
	origin := seedSite(t, conn, "BV", enums.SiteTypePackhouse)
	destination := seedSite(t, conn, "CD", enums.SiteTypeDepot)
	pt := seedPackagingType(t, conn, "CRATE-20")
	load := createTestLoad(t, svc, origin, destination, pt, 100)

	if _, err := svc.ConfirmDispatch(context.Background(), load.ID, DispatchInput{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	received, err := svc.ConfirmReceipt(context.Background(), load.ID, ReceiptInput{
		Lines: []ReceiptLine{{
			LineID:      load.Lines[0].ID,
			QtyReceived: 95,
			QtyDamaged:  3,
			QtyMissing:  2,
		}},
	})
	if err != nil {
		t.Fatalf("confirm receipt: %v", err)
	}

	if received.Status != enums.LoadStatusCompleted {
		t.Fatalf("expected completed, got %s", received.Status)
	}
	if !received.HasDiscrepancy {
		t.Fatal("damaged and missing units must flag a discrepancy")
	}
	line := received.Lines[0]
	if line.QtyReceived != 95 || line.QtyDamaged != 3 || line.QtyMissing != 2 {
		t.Fatalf("line not reconciled: %+v", line)
	}
	if ledger.received != 1 {
		t.Fatalf("expected one ledger receipt call, got %d", ledger.received)
	}
}

func TestConfirmReceiptShortCountWithoutDamageIsClean(t *testing.T) {
	svc, _, conn := newLoadsTestService(t)
	origin := seedSite(t, conn, "BV", enums.SiteTypePackhouse)
	destination := seedSite(t, conn, "CD", enums.SiteTypeDepot)
	pt := seedPackagingType(t, conn, "CRATE-20")
	load := createTestLoad(t, svc, origin, destination, pt, 10)

	if _, err := svc.ConfirmDispatch(context.Background(), load.ID, DispatchInput{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	received, err := svc.ConfirmReceipt(context.Background(), load.ID, ReceiptInput{
		Lines: []ReceiptLine{{LineID: load.Lines[0].ID, QtyReceived: 8}},
	})
	if err != nil {
		t.Fatalf("confirm receipt: %v", err)
	}
	if received.HasDiscrepancy {
		t.Fatal("short count with zero damaged and missing should not flag a discrepancy")
	}
}

func TestConfirmReceiptRequiresEveryLine(t *testing.T) {
	svc, _, conn := newLoadsTestService(t)
	origin := seedSite(t, conn, "BV", enums.SiteTypePackhouse)
	destination := seedSite(t, conn, "CD", enums.SiteTypeDepot)
	crate := seedPackagingType(t, conn, "CRATE-20")
	bin := seedPackagingType(t, conn, "BIN-400")

	load, err := svc.Create(context.Background(), CreateInput{
		OriginSiteID:      origin.ID,
		DestinationSiteID: destination.ID,
		DispatchDate:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Lines: []LineInput{
			{PackagingTypeID: crate.ID, QtyDispatched: 10},
			{PackagingTypeID: bin.ID, QtyDispatched: 4},
		},
	})
	if err != nil {
		t.Fatalf("create load: %v", err)
	}
	if _, err := svc.ConfirmDispatch(context.Background(), load.ID, DispatchInput{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	_, err = svc.ConfirmReceipt(context.Background(), load.ID, ReceiptInput{
		Lines: []ReceiptLine{{LineID: load.Lines[0].ID, QtyReceived: 10}},
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestConfirmReceiptBeforeDispatchConflicts(t *testing.T) {
	svc, _, conn := newLoadsTestService(t)
	origin := seedSite(t, conn, "BV", enums.SiteTypePackhouse)
	destination := seedSite(t, conn, "CD", enums.SiteTypeDepot)
	pt := seedPackagingType(t, conn, "CRATE-20")
	load := createTestLoad(t, svc, origin, destination, pt, 10)

	_, err := svc.ConfirmReceipt(context.Background(), load.ID, ReceiptInput{
		Lines: []ReceiptLine{{LineID: load.Lines[0].ID, QtyReceived: 10}},
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestFarmWaypointOvertime(t *testing.T) {
	svc, _, conn := newLoadsTestService(t)
	origin := seedSite(t, conn, "BV", enums.SiteTypePackhouse)
	destination := seedSite(t, conn, "CD", enums.SiteTypeDepot)
	pt := seedPackagingType(t, conn, "CRATE-20")
	load := createTestLoad(t, svc, origin, destination, pt, 10)

	arrival := time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)
	updated, err := svc.ConfirmFarmArrival(context.Background(), load.ID, WaypointInput{ActualTime: &arrival})
	if err != nil {
		t.Fatalf("confirm farm arrival: %v", err)
	}
	if updated.FarmArrivalOvertimeMins != 30 {
		t.Fatalf("expected 30 minutes arrival overtime, got %d", updated.FarmArrivalOvertimeMins)
	}
	if !updated.HasOvertime {
		t.Fatal("arrival overtime should mark the load")
	}
	expectedArrival := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)
	if updated.FarmArrivalExpected == nil || !updated.FarmArrivalExpected.Equal(expectedArrival) {
		t.Fatalf("expected arrival clock from config, got %v", updated.FarmArrivalExpected)
	}

	departure := time.Date(2024, 5, 1, 16, 45, 0, 0, time.UTC)
	updated, err = svc.ConfirmFarmDeparture(context.Background(), load.ID, WaypointInput{ActualTime: &departure})
	if err != nil {
		t.Fatalf("confirm farm departure: %v", err)
	}
	if updated.FarmDepartureOvertimeMins != 0 {
		t.Fatalf("early departure should accrue no overtime, got %d", updated.FarmDepartureOvertimeMins)
	}
	if !updated.HasOvertime {
		t.Fatal("load keeps its overtime flag from the arrival leg")
	}
}

func TestCancelFromInTransit(t *testing.T) {
	svc, _, conn := newLoadsTestService(t)
	origin := seedSite(t, conn, "BV", enums.SiteTypePackhouse)
	destination := seedSite(t, conn, "CD", enums.SiteTypeDepot)
	pt := seedPackagingType(t, conn, "CRATE-20")
	load := createTestLoad(t, svc, origin, destination, pt, 10)

	if _, err := svc.ConfirmDispatch(context.Background(), load.ID, DispatchInput{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if _, err := svc.MarkInTransit(context.Background(), load.ID); err != nil {
		t.Fatalf("mark in transit: %v", err)
	}

	cancelled, err := svc.Cancel(context.Background(), load.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.LoadStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	_, err = svc.Cancel(context.Background(), load.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestDeleteOnlyScheduledLoads(t *testing.T) {
	svc, _, conn := newLoadsTestService(t)
	origin := seedSite(t, conn, "BV", enums.SiteTypePackhouse)
	destination := seedSite(t, conn, "CD", enums.SiteTypeDepot)
	pt := seedPackagingType(t, conn, "CRATE-20")
	load := createTestLoad(t, svc, origin, destination, pt, 10)

	if _, err := svc.StartLoading(context.Background(), load.ID); err != nil {
		t.Fatalf("start loading: %v", err)
	}
	expectCode(t, svc.Delete(context.Background(), load.ID), pkgerrors.CodeStateConflict)

	second := createTestLoad(t, svc, origin, destination, pt, 5)
	if err := svc.Delete(context.Background(), second.ID); err != nil {
		t.Fatalf("delete scheduled load: %v", err)
	}
	_, err := svc.Get(context.Background(), second.ID)
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestDuplicateCopiesPlannedFieldsOnly(t *testing.T) {
	svc, _, conn := newLoadsTestService(t)
	origin := seedSite(t, conn, "BV", enums.SiteTypePackhouse)
	destination := seedSite(t, conn, "CD", enums.SiteTypeDepot)
	pt := seedPackagingType(t, conn, "CRATE-20")

	scheduled := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	load, err := svc.Create(context.Background(), CreateInput{
		OriginSiteID:           origin.ID,
		DestinationSiteID:      destination.ID,
		DispatchDate:           time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		ScheduledDepartureTime: &scheduled,
		Lines:                  []LineInput{{PackagingTypeID: pt.ID, QtyDispatched: 20}},
	})
	if err != nil {
		t.Fatalf("create load: %v", err)
	}
	if _, err := svc.ConfirmDispatch(context.Background(), load.ID, DispatchInput{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	newDate := time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC)
	dup, err := svc.Duplicate(context.Background(), load.ID, newDate, nil)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}

	if dup.LoadNumber != "BV240508" {
		t.Fatalf("expected fresh number for new date, got %s", dup.LoadNumber)
	}
	if dup.Status != enums.LoadStatusScheduled {
		t.Fatalf("duplicate must start scheduled, got %s", dup.Status)
	}
	if dup.ActualDepartureTime != nil || dup.DepartureOnTimeStatus != nil {
		t.Fatal("duplicate must not carry lifecycle state")
	}
	if len(dup.Lines) != 1 || dup.Lines[0].QtyDispatched != 20 || dup.Lines[0].QtyReceived != 0 {
		t.Fatalf("duplicate lines not reset: %+v", dup.Lines)
	}
	if dup.ScheduledDepartureTime == nil {
		t.Fatal("planned departure clock should carry over")
	}
	want := time.Date(2024, 5, 8, 8, 0, 0, 0, time.UTC)
	if !dup.ScheduledDepartureTime.Equal(want) {
		t.Fatalf("expected departure re-anchored to %s, got %s", want, dup.ScheduledDepartureTime)
	}
}
