package planner

import (
	"context"
	"testing"
	"time"

	"github.com/agrilogix/crateflow-backend/internal/loads"
	"github.com/agrilogix/crateflow-backend/pkg/config"
	"github.com/agrilogix/crateflow-backend/pkg/db"
	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	pkgerrors "github.com/agrilogix/crateflow-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newPlannerTestService(t *testing.T) (*Service, *gorm.DB) {
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
		&models.DispatchSchedule{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	promotion := config.PromotionConfig{
		CrateTypeCode:  "CRATE-20",
		BinTypeCode:    "BIN-400",
		BoxTypeCode:    "BOX-10",
		PalletTypeCode: "PALLET-STD",
	}
	svc := NewService(NewRepository(conn), loads.NewRepository(conn), db.FromGorm(conn), promotion, nil)
	return svc, conn
}

func seedPlannerSite(t *testing.T, conn *gorm.DB, code string) *models.Site {
	t.Helper()

	site := &models.Site{
		ID:       uuid.New(),
		Code:     code,
		Name:     code + " site",
		Type:     enums.SiteTypePackhouse,
		IsActive: true,
	}
	if err := conn.Create(site).Error; err != nil {
		t.Fatalf("seed site: %v", err)
	}
	return site
}

func seedPlannerType(t *testing.T, conn *gorm.DB, code string) *models.PackagingType {
	t.Helper()

	pt := &models.PackagingType{ID: uuid.New(), Code: code, Name: code, IsActive: true}
	if err := conn.Create(pt).Error; err != nil {
		t.Fatalf("seed packaging type: %v", err)
	}
	return pt
}

func createTestSchedule(t *testing.T, svc *Service, origin, destination *models.Site, date time.Time) *models.DispatchSchedule {
	t.Helper()

	schedule, err := svc.Create(context.Background(), CreateInput{
		OriginSiteID:      origin.ID,
		DestinationSiteID: destination.ID,
		DispatchDate:      date,
		CrateCount:        200,
		BinCount:          12,
		PalletCount:       4,
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	return schedule
}

func expectPlannerCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func TestCreateRequiresSomeDemand(t *testing.T) {
	svc, conn := newPlannerTestService(t)
	origin := seedPlannerSite(t, conn, "BV")
	destination := seedPlannerSite(t, conn, "CD")

	_, err := svc.Create(context.Background(), CreateInput{
		OriginSiteID:      origin.ID,
		DestinationSiteID: destination.ID,
		DispatchDate:      time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
	})
	expectPlannerCode(t, err, pkgerrors.CodeValidation)
}

func TestPromoteBuildsLoadFromDemand(t *testing.T) {
	svc, conn := newPlannerTestService(t)
	origin := seedPlannerSite(t, conn, "BV")
	destination := seedPlannerSite(t, conn, "CD")
	crate := seedPlannerType(t, conn, "CRATE-20")
	bin := seedPlannerType(t, conn, "BIN-400")
	// no PALLET-STD row: the pallet count should be skipped

	date := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	schedule := createTestSchedule(t, svc, origin, destination, date)

	promoted, err := svc.Promote(context.Background(), schedule.ID, nil)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if promoted.LoadID == nil {
		t.Fatal("promotion must link the created load")
	}
	if promoted.Status != enums.ScheduleStatusConfirmed {
		t.Fatalf("expected confirmed schedule, got %s", promoted.Status)
	}

	var load models.Load
	if err := conn.Preload("Lines").First(&load, "id = ?", *promoted.LoadID).Error; err != nil {
		t.Fatalf("load promoted load: %v", err)
	}
	if load.LoadNumber != "BV240506" {
		t.Fatalf("expected first number of the day, got %s", load.LoadNumber)
	}
	if load.Status != enums.LoadStatusScheduled {
		t.Fatalf("promoted load must start scheduled, got %s", load.Status)
	}
	if len(load.Lines) != 2 {
		t.Fatalf("expected crate and bin lines only, got %d", len(load.Lines))
	}
	byType := map[uuid.UUID]int{}
	for _, line := range load.Lines {
		byType[line.PackagingTypeID] = line.QtyDispatched
	}
	if byType[crate.ID] != 200 || byType[bin.ID] != 12 {
		t.Fatalf("line quantities mismatch: %+v", byType)
	}
}

func TestPromoteTwiceConflicts(t *testing.T) {
	svc, conn := newPlannerTestService(t)
	origin := seedPlannerSite(t, conn, "BV")
	destination := seedPlannerSite(t, conn, "CD")
	seedPlannerType(t, conn, "CRATE-20")

	schedule := createTestSchedule(t, svc, origin, destination, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC))
	if _, err := svc.Promote(context.Background(), schedule.ID, nil); err != nil {
		t.Fatalf("first promote: %v", err)
	}

	_, err := svc.Promote(context.Background(), schedule.ID, nil)
	expectPlannerCode(t, err, pkgerrors.CodeConflict)

	var count int64
	if err := conn.Model(&models.Load{}).Count(&count).Error; err != nil {
		t.Fatalf("count loads: %v", err)
	}
	if count != 1 {
		t.Fatalf("repeat promotion must not create another load, got %d", count)
	}
}

func TestPromoteFailsWhenNoTypesMap(t *testing.T) {
	svc, conn := newPlannerTestService(t)
	origin := seedPlannerSite(t, conn, "BV")
	destination := seedPlannerSite(t, conn, "CD")
	// no packaging types seeded at all

	schedule := createTestSchedule(t, svc, origin, destination, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC))
	_, err := svc.Promote(context.Background(), schedule.ID, nil)
	expectPlannerCode(t, err, pkgerrors.CodeValidation)
}

func TestPromotedScheduleIsReadOnly(t *testing.T) {
	svc, conn := newPlannerTestService(t)
	origin := seedPlannerSite(t, conn, "BV")
	destination := seedPlannerSite(t, conn, "CD")
	seedPlannerType(t, conn, "CRATE-20")

	schedule := createTestSchedule(t, svc, origin, destination, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC))
	if _, err := svc.Promote(context.Background(), schedule.ID, nil); err != nil {
		t.Fatalf("promote: %v", err)
	}

	count := 5
	_, err := svc.Update(context.Background(), schedule.ID, UpdateInput{CrateCount: &count})
	expectPlannerCode(t, err, pkgerrors.CodeStateConflict)

	expectPlannerCode(t, svc.Delete(context.Background(), schedule.ID), pkgerrors.CodeStateConflict)
}

func TestWeeklyReturnsSevenBuckets(t *testing.T) {
	svc, conn := newPlannerTestService(t)
	origin := seedPlannerSite(t, conn, "BV")
	destination := seedPlannerSite(t, conn, "CD")

	monday := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	createTestSchedule(t, svc, origin, destination, monday)
	createTestSchedule(t, svc, origin, destination, monday.AddDate(0, 0, 2))
	// outside the window
	createTestSchedule(t, svc, origin, destination, monday.AddDate(0, 0, 9))

	plans, err := svc.Weekly(context.Background(), monday)
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}
	if len(plans) != 7 {
		t.Fatalf("expected 7 day buckets, got %d", len(plans))
	}
	if plans[0].Date != "2024-05-06" || len(plans[0].Schedules) != 1 {
		t.Fatalf("monday bucket mismatch: %+v", plans[0])
	}
	if len(plans[1].Schedules) != 0 {
		t.Fatal("empty days must still produce a bucket")
	}
	if len(plans[2].Schedules) != 1 {
		t.Fatalf("wednesday bucket mismatch: %+v", plans[2])
	}
}

func TestPackagingDemandTotalsPerDay(t *testing.T) {
	svc, conn := newPlannerTestService(t)
	origin := seedPlannerSite(t, conn, "BV")
	destination := seedPlannerSite(t, conn, "CD")

	day := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	createTestSchedule(t, svc, origin, destination, day)
	createTestSchedule(t, svc, origin, destination, day)
	createTestSchedule(t, svc, origin, destination, day.AddDate(0, 0, 1))

	demands, err := svc.PackagingDemand(context.Background(), day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("packaging demand: %v", err)
	}
	if len(demands) != 2 {
		t.Fatalf("expected 2 demand days, got %d", len(demands))
	}
	if demands[0].Date != "2024-05-06" || demands[0].CrateCount != 400 || demands[0].BinCount != 24 {
		t.Fatalf("first day totals mismatch: %+v", demands[0])
	}
	if demands[1].CrateCount != 200 {
		t.Fatalf("second day totals mismatch: %+v", demands[1])
	}
}
