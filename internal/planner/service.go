package planner

import (
	"context"
	stdErrors "errors"
	"time"

	"github.com/agrilogix/crateflow-backend/internal/loads"
	"github.com/agrilogix/crateflow-backend/pkg/config"
	"github.com/agrilogix/crateflow-backend/pkg/db"
	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	pkgerrors "github.com/agrilogix/crateflow-backend/pkg/errors"
	"github.com/agrilogix/crateflow-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service implements forward dispatch planning and promotion to loads.
type Service struct {
	repo      *Repository
	loadsRepo *loads.Repository
	dbc       *db.Client
	promotion config.PromotionConfig
	logg      *logger.Logger
}

func NewService(repo *Repository, loadsRepo *loads.Repository, dbc *db.Client, promotion config.PromotionConfig, logg *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		loadsRepo: loadsRepo,
		dbc:       dbc,
		promotion: promotion,
		logg:      logg,
	}
}

// CreateInput carries a new forward plan.
type CreateInput struct {
	OriginSiteID       uuid.UUID  `json:"originSiteId" validate:"required"`
	DestinationSiteID  uuid.UUID  `json:"destinationSiteId" validate:"required"`
	ChannelID          *uuid.UUID `json:"channelId"`
	VehicleID          *uuid.UUID `json:"vehicleId"`
	DriverID           *uuid.UUID `json:"driverId"`
	DispatchDate       time.Time  `json:"dispatchDate" validate:"required"`
	CrateCount         int        `json:"crateCount" validate:"gte=0"`
	BinCount           int        `json:"binCount" validate:"gte=0"`
	BoxCount           int        `json:"boxCount" validate:"gte=0"`
	PalletCount        int        `json:"palletCount" validate:"gte=0"`
	PackagingETAToFarm *time.Time `json:"packagingEtaToFarm"`
	RipeningStartDate  *time.Time `json:"ripeningStartDate"`
	CollectionDate     *time.Time `json:"collectionDate"`
	ReturnDate         *time.Time `json:"returnDate"`
	Notes              *string    `json:"notes"`
}

// UpdateInput mutates an unpromoted schedule. Nil fields are left unchanged.
type UpdateInput struct {
	ChannelID          *uuid.UUID `json:"channelId"`
	VehicleID          *uuid.UUID `json:"vehicleId"`
	DriverID           *uuid.UUID `json:"driverId"`
	DispatchDate       *time.Time `json:"dispatchDate"`
	CrateCount         *int       `json:"crateCount" validate:"omitempty,gte=0"`
	BinCount           *int       `json:"binCount" validate:"omitempty,gte=0"`
	BoxCount           *int       `json:"boxCount" validate:"omitempty,gte=0"`
	PalletCount        *int       `json:"palletCount" validate:"omitempty,gte=0"`
	PackagingETAToFarm *time.Time `json:"packagingEtaToFarm"`
	RipeningStartDate  *time.Time `json:"ripeningStartDate"`
	CollectionDate     *time.Time `json:"collectionDate"`
	ReturnDate         *time.Time `json:"returnDate"`
	Notes              *string    `json:"notes"`
}

// DayPlan groups one day's schedules for the weekly board.
type DayPlan struct {
	Date      string                    `json:"date"`
	Schedules []models.DispatchSchedule `json:"schedules"`
}

// DayDemand totals the packaging counts planned for one dispatch date.
type DayDemand struct {
	Date        string `json:"date"`
	CrateCount  int    `json:"crateCount"`
	BinCount    int    `json:"binCount"`
	BoxCount    int    `json:"boxCount"`
	PalletCount int    `json:"palletCount"`
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.DispatchSchedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "schedule not found")
	}
	return schedule, nil
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]models.DispatchSchedule, int64, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*models.DispatchSchedule, error) {
	if input.OriginSiteID == input.DestinationSiteID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "origin and destination must differ")
	}
	if input.CrateCount+input.BinCount+input.BoxCount+input.PalletCount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one packaging count is required")
	}

	schedule := &models.DispatchSchedule{
		ID:                 uuid.New(),
		OriginSiteID:       input.OriginSiteID,
		DestinationSiteID:  input.DestinationSiteID,
		ChannelID:          input.ChannelID,
		VehicleID:          input.VehicleID,
		DriverID:           input.DriverID,
		DispatchDate:       input.DispatchDate,
		Status:             enums.ScheduleStatusPlanned,
		CrateCount:         input.CrateCount,
		BinCount:           input.BinCount,
		BoxCount:           input.BoxCount,
		PalletCount:        input.PalletCount,
		PackagingETAToFarm: input.PackagingETAToFarm,
		RipeningStartDate:  input.RipeningStartDate,
		CollectionDate:     input.CollectionDate,
		ReturnDate:         input.ReturnDate,
		Notes:              input.Notes,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, schedule.ID)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.DispatchSchedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "schedule not found")
	}
	if schedule.LoadID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "promoted schedules are read-only")
	}

	if input.ChannelID != nil {
		schedule.ChannelID = input.ChannelID
	}
	if input.VehicleID != nil {
		schedule.VehicleID = input.VehicleID
	}
	if input.DriverID != nil {
		schedule.DriverID = input.DriverID
	}
	if input.DispatchDate != nil {
		schedule.DispatchDate = *input.DispatchDate
	}
	if input.CrateCount != nil {
		schedule.CrateCount = *input.CrateCount
	}
	if input.BinCount != nil {
		schedule.BinCount = *input.BinCount
	}
	if input.BoxCount != nil {
		schedule.BoxCount = *input.BoxCount
	}
	if input.PalletCount != nil {
		schedule.PalletCount = *input.PalletCount
	}
	if input.PackagingETAToFarm != nil {
		schedule.PackagingETAToFarm = input.PackagingETAToFarm
	}
	if input.RipeningStartDate != nil {
		schedule.RipeningStartDate = input.RipeningStartDate
	}
	if input.CollectionDate != nil {
		schedule.CollectionDate = input.CollectionDate
	}
	if input.ReturnDate != nil {
		schedule.ReturnDate = input.ReturnDate
	}
	if input.Notes != nil {
		schedule.Notes = input.Notes
	}

	if err := s.repo.Save(ctx, schedule); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "schedule not found")
	}
	if schedule.LoadID != nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "promoted schedules cannot be deleted")
	}
	return s.repo.Delete(ctx, id)
}

// Weekly returns a seven day board starting at weekStart, one bucket per day
// including empty days.
func (s *Service) Weekly(ctx context.Context, weekStart time.Time) ([]DayPlan, error) {
	start := time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, weekStart.Location())
	end := start.AddDate(0, 0, 7)

	schedules, err := s.repo.ListBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string][]models.DispatchSchedule)
	for _, schedule := range schedules {
		key := schedule.DispatchDate.Format("2006-01-02")
		byDay[key] = append(byDay[key], schedule)
	}

	plans := make([]DayPlan, 0, 7)
	for day := 0; day < 7; day++ {
		key := start.AddDate(0, 0, day).Format("2006-01-02")
		bucket := byDay[key]
		if bucket == nil {
			bucket = []models.DispatchSchedule{}
		}
		plans = append(plans, DayPlan{Date: key, Schedules: bucket})
	}
	return plans, nil
}

// PackagingDemand totals the planned packaging counts per dispatch date over
// [from, to].
func (s *Service) PackagingDemand(ctx context.Context, from, to time.Time) ([]DayDemand, error) {
	schedules, err := s.repo.ListBetween(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*DayDemand)
	order := []string{}
	for _, schedule := range schedules {
		key := schedule.DispatchDate.Format("2006-01-02")
		demand, ok := byDay[key]
		if !ok {
			demand = &DayDemand{Date: key}
			byDay[key] = demand
			order = append(order, key)
		}
		demand.CrateCount += schedule.CrateCount
		demand.BinCount += schedule.BinCount
		demand.BoxCount += schedule.BoxCount
		demand.PalletCount += schedule.PalletCount
	}

	demands := make([]DayDemand, 0, len(order))
	for _, key := range order {
		demands = append(demands, *byDay[key])
	}
	return demands, nil
}

// Promote converts a schedule into a scheduled load exactly once. The
// schedule's crate/bin/box/pallet estimates become packaging lines through
// the configured type-code mapping; a count with no matching packaging type
// row is skipped.
func (s *Service) Promote(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*models.DispatchSchedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "schedule not found")
	}
	if schedule.LoadID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "schedule already promoted")
	}
	if schedule.Status == enums.ScheduleStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled schedules cannot be promoted")
	}

	origin, err := s.loadsRepo.FindSite(ctx, schedule.OriginSiteID)
	if err != nil {
		return nil, notFoundOr(err, "origin site not found")
	}

	err = s.dbc.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txLoadsRepo := s.loadsRepo.WithTx(tx)

		prefix := loads.DayPrefix(origin.Code, schedule.DispatchDate)
		last, err := txLoadsRepo.MaxNumberForPrefix(ctx, prefix)
		if err != nil {
			return err
		}
		number, err := loads.NextLoadNumber(prefix, last)
		if err != nil {
			return err
		}

		load := &models.Load{
			ID:                uuid.New(),
			LoadNumber:        number,
			OriginSiteID:      schedule.OriginSiteID,
			DestinationSiteID: schedule.DestinationSiteID,
			ChannelID:         schedule.ChannelID,
			VehicleID:         schedule.VehicleID,
			DriverID:          schedule.DriverID,
			DispatchDate:      schedule.DispatchDate,
			Status:            enums.LoadStatusScheduled,
			CreatedBy:         actorID,
		}

		lines, err := s.demandLines(ctx, txRepo, load.ID, schedule)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "no packaging counts map to known packaging types")
		}
		load.Lines = lines

		if err := txLoadsRepo.Create(ctx, load); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "load number already allocated, retry")
			}
			return err
		}

		rows, err := txRepo.ClaimForPromotion(ctx, schedule.ID, load.ID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "schedule already promoted")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(ctx, "schedule.promoted")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *Service) demandLines(ctx context.Context, txRepo *Repository, loadID uuid.UUID, schedule *models.DispatchSchedule) ([]models.LoadPackagingLine, error) {
	demand := []struct {
		code  string
		count int
	}{
		{s.promotion.CrateTypeCode, schedule.CrateCount},
		{s.promotion.BinTypeCode, schedule.BinCount},
		{s.promotion.BoxTypeCode, schedule.BoxCount},
		{s.promotion.PalletTypeCode, schedule.PalletCount},
	}

	var lines []models.LoadPackagingLine
	for _, d := range demand {
		if d.count <= 0 || d.code == "" {
			continue
		}
		pt, err := txRepo.FindPackagingTypeByCode(ctx, d.code)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		lines = append(lines, models.LoadPackagingLine{
			ID:              uuid.New(),
			LoadID:          loadID,
			PackagingTypeID: pt.ID,
			QtyDispatched:   d.count,
		})
	}
	return lines, nil
}

func notFoundOr(err error, message string) error {
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return err
}
