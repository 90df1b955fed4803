package loads

import (
	"context"
	stdErrors "errors"
	"time"

	"github.com/agrilogix/crateflow-backend/pkg/config"
	"github.com/agrilogix/crateflow-backend/pkg/db"
	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	pkgerrors "github.com/agrilogix/crateflow-backend/pkg/errors"
	"github.com/agrilogix/crateflow-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryLedger applies the stock side effects of load transitions inside
// the caller's transaction.
type InventoryLedger interface {
	ApplyLoadDispatch(ctx context.Context, tx *gorm.DB, load *models.Load, actorID *uuid.UUID) error
	ApplyLoadReceipt(ctx context.Context, tx *gorm.DB, load *models.Load, actorID *uuid.UUID) error
}

// Service implements load lifecycle operations.
type Service struct {
	repo     *Repository
	dbc      *db.Client
	ledger   InventoryLedger
	dispatch config.DispatchConfig
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(repo *Repository, dbc *db.Client, ledger InventoryLedger, dispatch config.DispatchConfig, logg *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		dbc:      dbc,
		ledger:   ledger,
		dispatch: dispatch,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// LineInput is one packaging type on a new load.
type LineInput struct {
	PackagingTypeID uuid.UUID `json:"packagingTypeId" validate:"required"`
	QtyDispatched   int       `json:"qtyDispatched" validate:"required,gt=0"`
}

// CreateInput carries everything needed to schedule a new load.
type CreateInput struct {
	OriginSiteID           uuid.UUID   `json:"originSiteId" validate:"required"`
	DestinationSiteID      uuid.UUID   `json:"destinationSiteId" validate:"required"`
	ChannelID              *uuid.UUID  `json:"channelId"`
	VehicleID              *uuid.UUID  `json:"vehicleId"`
	DriverID               *uuid.UUID  `json:"driverId"`
	ProductID              *uuid.UUID  `json:"productId"`
	DispatchDate           time.Time   `json:"dispatchDate" validate:"required"`
	ScheduledDepartureTime *time.Time  `json:"scheduledDepartureTime"`
	EstimatedArrivalTime   *time.Time  `json:"estimatedArrivalTime"`
	ExpectedArrivalDate    *time.Time  `json:"expectedArrivalDate"`
	Notes                  *string     `json:"notes"`
	Lines                  []LineInput `json:"lines" validate:"required,min=1,dive"`
	ActorID                *uuid.UUID  `json:"-"`
}

// UpdateInput mutates the editable fields of a load that has not yet
// departed. Nil fields are left unchanged.
type UpdateInput struct {
	ChannelID              *uuid.UUID `json:"channelId"`
	VehicleID              *uuid.UUID `json:"vehicleId"`
	DriverID               *uuid.UUID `json:"driverId"`
	ProductID              *uuid.UUID `json:"productId"`
	ScheduledDepartureTime *time.Time `json:"scheduledDepartureTime"`
	EstimatedArrivalTime   *time.Time `json:"estimatedArrivalTime"`
	ExpectedArrivalDate    *time.Time `json:"expectedArrivalDate"`
	FarmArrivalExpected    *time.Time `json:"farmArrivalExpected"`
	FarmDepartureExpected  *time.Time `json:"farmDepartureExpected"`
	Notes                  *string    `json:"notes"`
}

// DispatchInput confirms physical departure from the origin site.
type DispatchInput struct {
	ActualDepartureTime *time.Time `json:"actualDepartureTime"`
	ActorID             *uuid.UUID `json:"-"`
}

// WaypointInput records an actual time at a farm waypoint.
type WaypointInput struct {
	ActualTime *time.Time `json:"actualTime"`
}

// ReceiptLine reports the reconciliation counts for one line.
type ReceiptLine struct {
	LineID      uuid.UUID `json:"lineId" validate:"required"`
	QtyReceived int       `json:"qtyReceived" validate:"gte=0"`
	QtyDamaged  int       `json:"qtyDamaged" validate:"gte=0"`
	QtyMissing  int       `json:"qtyMissing" validate:"gte=0"`
}

// ReceiptInput confirms arrival at the destination and reconciles every line.
type ReceiptInput struct {
	ActualArrivalTime *time.Time    `json:"actualArrivalTime"`
	Lines             []ReceiptLine `json:"lines" validate:"required,min=1,dive"`
	Notes             *string       `json:"notes"`
	ActorID           *uuid.UUID    `json:"-"`
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Load, error) {
	load, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load not found")
	}
	return load, nil
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]models.Load, int64, error) {
	return s.repo.List(ctx, filters)
}

// Create schedules a new load and allocates its site/day number inside the
// same transaction as the insert, so the unique index is the final arbiter
// of concurrent allocations.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Load, error) {
	if input.OriginSiteID == input.DestinationSiteID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "origin and destination must differ")
	}
	if err := validateLines(input.Lines); err != nil {
		return nil, err
	}

	origin, err := s.repo.FindSite(ctx, input.OriginSiteID)
	if err != nil {
		return nil, notFoundOr(err, "origin site not found")
	}
	if !origin.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "origin site is inactive")
	}
	destination, err := s.repo.FindSite(ctx, input.DestinationSiteID)
	if err != nil {
		return nil, notFoundOr(err, "destination site not found")
	}
	if !destination.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination site is inactive")
	}

	var created *models.Load
	err = s.dbc.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		prefix := DayPrefix(origin.Code, input.DispatchDate)
		last, err := txRepo.MaxNumberForPrefix(ctx, prefix)
		if err != nil {
			return err
		}
		number, err := NextLoadNumber(prefix, last)
		if err != nil {
			return err
		}

		load := &models.Load{
			ID:                     uuid.New(),
			LoadNumber:             number,
			OriginSiteID:           input.OriginSiteID,
			DestinationSiteID:      input.DestinationSiteID,
			ChannelID:              input.ChannelID,
			VehicleID:              input.VehicleID,
			DriverID:               input.DriverID,
			ProductID:              input.ProductID,
			DispatchDate:           input.DispatchDate,
			Status:                 enums.LoadStatusScheduled,
			ScheduledDepartureTime: input.ScheduledDepartureTime,
			EstimatedArrivalTime:   input.EstimatedArrivalTime,
			ExpectedArrivalDate:    input.ExpectedArrivalDate,
			Notes:                  input.Notes,
			CreatedBy:              input.ActorID,
		}
		for _, line := range input.Lines {
			load.Lines = append(load.Lines, models.LoadPackagingLine{
				ID:              uuid.New(),
				LoadID:          load.ID,
				PackagingTypeID: line.PackagingTypeID,
				QtyDispatched:   line.QtyDispatched,
			})
		}

		if err := txRepo.Create(ctx, load); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "load number already allocated, retry")
			}
			return err
		}
		created = load
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithLoadNumber(ctx, created.LoadNumber), "load.created")
	}
	return s.repo.FindByID(ctx, created.ID)
}

// Update edits a load that has not yet departed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Load, error) {
	load, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load not found")
	}
	if load.Status != enums.LoadStatusScheduled && load.Status != enums.LoadStatusLoading {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "load can only be edited before departure")
	}

	if input.ChannelID != nil {
		load.ChannelID = input.ChannelID
	}
	if input.VehicleID != nil {
		load.VehicleID = input.VehicleID
	}
	if input.DriverID != nil {
		load.DriverID = input.DriverID
	}
	if input.ProductID != nil {
		load.ProductID = input.ProductID
	}
	if input.ScheduledDepartureTime != nil {
		load.ScheduledDepartureTime = input.ScheduledDepartureTime
	}
	if input.EstimatedArrivalTime != nil {
		load.EstimatedArrivalTime = input.EstimatedArrivalTime
	}
	if input.ExpectedArrivalDate != nil {
		load.ExpectedArrivalDate = input.ExpectedArrivalDate
	}
	if input.FarmArrivalExpected != nil {
		load.FarmArrivalExpected = input.FarmArrivalExpected
	}
	if input.FarmDepartureExpected != nil {
		load.FarmDepartureExpected = input.FarmDepartureExpected
	}
	if input.Notes != nil {
		load.Notes = input.Notes
	}

	if err := s.repo.Save(ctx, load); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete removes a load that is still only scheduled.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	load, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "load not found")
	}
	if load.Status != enums.LoadStatusScheduled {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only scheduled loads can be deleted")
	}
	return s.repo.Delete(ctx, id)
}

// StartLoading moves a scheduled load into the loading state.
func (s *Service) StartLoading(ctx context.Context, id uuid.UUID) (*models.Load, error) {
	return s.transition(ctx, id, []enums.LoadStatus{enums.LoadStatusScheduled}, enums.LoadStatusLoading, nil)
}

// MarkInTransit moves a departed load into in-transit tracking.
func (s *Service) MarkInTransit(ctx context.Context, id uuid.UUID) (*models.Load, error) {
	return s.transition(ctx, id, []enums.LoadStatus{enums.LoadStatusDeparted}, enums.LoadStatusInTransit, nil)
}

// MarkArrivedDepot records physical arrival at the depot gate ahead of the
// receipt confirmation.
func (s *Service) MarkArrivedDepot(ctx context.Context, id uuid.UUID) (*models.Load, error) {
	from := []enums.LoadStatus{enums.LoadStatusDeparted, enums.LoadStatusInTransit}
	return s.transition(ctx, id, from, enums.LoadStatusArrivedDepot, nil)
}

// Cancel aborts a load from any non-terminal state. Stock already dispatched
// stays attributed to the load; reconciliation happens through a manual
// adjustment if the packaging comes back.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*models.Load, error) {
	from := []enums.LoadStatus{
		enums.LoadStatusScheduled,
		enums.LoadStatusLoading,
		enums.LoadStatusDeparted,
		enums.LoadStatusInTransit,
		enums.LoadStatusArrivedDepot,
	}
	return s.transition(ctx, id, from, enums.LoadStatusCancelled, nil)
}

// ConfirmDispatch marks the load departed, classifies departure punctuality,
// and decrements origin stock per line inside one transaction.
func (s *Service) ConfirmDispatch(ctx context.Context, id uuid.UUID, input DispatchInput) (*models.Load, error) {
	load, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load not found")
	}

	actual := s.now()
	if input.ActualDepartureTime != nil {
		actual = *input.ActualDepartureTime
	}

	updates := map[string]any{"actual_departure_time": actual}
	if load.ScheduledDepartureTime != nil {
		status := ClassifyOnTime(*load.ScheduledDepartureTime, actual, s.dispatch.OnTimeWindow())
		updates["departure_ontime_status"] = status
	}

	from := []enums.LoadStatus{enums.LoadStatusScheduled, enums.LoadStatusLoading}
	err = s.dbc.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		rows, err := txRepo.UpdateStatusIf(ctx, id, from, enums.LoadStatusDeparted, updates)
		if err != nil {
			return err
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "load is not awaiting dispatch")
		}
		return s.ledger.ApplyLoadDispatch(ctx, tx, load, input.ActorID)
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithLoadNumber(ctx, load.LoadNumber), "load.dispatched")
	}
	return s.repo.FindByID(ctx, id)
}

// ConfirmFarmArrival records the empty-packaging arrival at the farm and
// accrues overtime past the expected arrival clock.
func (s *Service) ConfirmFarmArrival(ctx context.Context, id uuid.UUID, input WaypointInput) (*models.Load, error) {
	return s.confirmFarmWaypoint(ctx, id, input, true)
}

// ConfirmFarmDeparture records the loaded departure from the farm and
// accrues overtime past the expected departure clock.
func (s *Service) ConfirmFarmDeparture(ctx context.Context, id uuid.UUID, input WaypointInput) (*models.Load, error) {
	return s.confirmFarmWaypoint(ctx, id, input, false)
}

func (s *Service) confirmFarmWaypoint(ctx context.Context, id uuid.UUID, input WaypointInput, arrival bool) (*models.Load, error) {
	load, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load not found")
	}
	if load.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "load lifecycle already closed")
	}

	actual := s.now()
	if input.ActualTime != nil {
		actual = *input.ActualTime
	}

	expected, err := s.resolveWaypointExpectation(load, arrival)
	if err != nil {
		return nil, err
	}
	overtime := OvertimeMinutes(expected, actual)

	if arrival {
		load.FarmArrivalExpected = &expected
		load.FarmArrivalActual = &actual
		load.FarmArrivalOvertimeMins = overtime
	} else {
		load.FarmDepartureExpected = &expected
		load.FarmDepartureActual = &actual
		load.FarmDepartureOvertimeMins = overtime
	}
	load.HasOvertime = load.FarmArrivalOvertimeMins > 0 || load.FarmDepartureOvertimeMins > 0

	if err := s.repo.Save(ctx, load); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *Service) resolveWaypointExpectation(load *models.Load, arrival bool) (time.Time, error) {
	if arrival && load.FarmArrivalExpected != nil {
		return *load.FarmArrivalExpected, nil
	}
	if !arrival && load.FarmDepartureExpected != nil {
		return *load.FarmDepartureExpected, nil
	}

	clock := s.dispatch.FarmArrivalExpected
	if !arrival {
		clock = s.dispatch.FarmDepartureExpected
	}
	expected, err := CombineDateAndClock(load.DispatchDate, clock)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving waypoint expectation")
	}
	return expected, nil
}

// ConfirmReceipt reconciles every line at the destination, flags
// discrepancies, completes the load, and credits destination stock in one
// transaction.
func (s *Service) ConfirmReceipt(ctx context.Context, id uuid.UUID, input ReceiptInput) (*models.Load, error) {
	load, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load not found")
	}

	byID := make(map[uuid.UUID]*models.LoadPackagingLine, len(load.Lines))
	for i := range load.Lines {
		byID[load.Lines[i].ID] = &load.Lines[i]
	}
	if len(input.Lines) != len(load.Lines) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receipt must report every packaging line")
	}

	hasDiscrepancy := false
	for _, reported := range input.Lines {
		line, ok := byID[reported.LineID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown packaging line in receipt")
		}
		line.QtyReceived = reported.QtyReceived
		line.QtyDamaged = reported.QtyDamaged
		line.QtyMissing = reported.QtyMissing
		if reported.QtyDamaged > 0 || reported.QtyMissing > 0 {
			hasDiscrepancy = true
		}
	}

	actual := s.now()
	if input.ActualArrivalTime != nil {
		actual = *input.ActualArrivalTime
	}

	updates := map[string]any{
		"actual_arrival_time": actual,
		"has_discrepancy":     hasDiscrepancy,
	}
	if input.Notes != nil {
		updates["discrepancy_notes"] = *input.Notes
	}
	if load.EstimatedArrivalTime != nil {
		status := ClassifyOnTime(*load.EstimatedArrivalTime, actual, s.dispatch.OnTimeWindow())
		updates["arrival_ontime_status"] = status
	}

	err = s.dbc.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		rows, err := txRepo.UpdateStatusIf(ctx, id, enums.ActiveLoadStatuses, enums.LoadStatusCompleted, updates)
		if err != nil {
			return err
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "load is not awaiting receipt")
		}
		for i := range load.Lines {
			if err := txRepo.SaveLine(ctx, &load.Lines[i]); err != nil {
				return err
			}
		}
		return s.ledger.ApplyLoadReceipt(ctx, tx, load, input.ActorID)
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithLoadNumber(ctx, load.LoadNumber), "load.received")
	}
	return s.repo.FindByID(ctx, id)
}

// Duplicate clones a load onto a new dispatch date with a fresh number and a
// clean lifecycle. Only the planned fields carry over.
func (s *Service) Duplicate(ctx context.Context, id uuid.UUID, dispatchDate time.Time, actorID *uuid.UUID) (*models.Load, error) {
	source, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load not found")
	}

	input := CreateInput{
		OriginSiteID:           source.OriginSiteID,
		DestinationSiteID:      source.DestinationSiteID,
		ChannelID:              source.ChannelID,
		VehicleID:              source.VehicleID,
		DriverID:               source.DriverID,
		ProductID:              source.ProductID,
		DispatchDate:           dispatchDate,
		ScheduledDepartureTime: shiftToDate(source.ScheduledDepartureTime, source.DispatchDate, dispatchDate),
		EstimatedArrivalTime:   shiftToDate(source.EstimatedArrivalTime, source.DispatchDate, dispatchDate),
		Notes:                  source.Notes,
		ActorID:                actorID,
	}
	for _, line := range source.Lines {
		input.Lines = append(input.Lines, LineInput{
			PackagingTypeID: line.PackagingTypeID,
			QtyDispatched:   line.QtyDispatched,
		})
	}
	return s.Create(ctx, input)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, from []enums.LoadStatus, to enums.LoadStatus, updates map[string]any) (*models.Load, error) {
	rows, err := s.repo.UpdateStatusIf(ctx, id, from, to, updates)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		if _, ferr := s.repo.FindByID(ctx, id); ferr != nil {
			return nil, notFoundOr(ferr, "load not found")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transition to "+to.String()+" not allowed from current status")
	}
	return s.repo.FindByID(ctx, id)
}

func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one packaging line is required")
	}
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, line := range lines {
		if line.QtyDispatched <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		if seen[line.PackagingTypeID] {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate packaging type across lines")
		}
		seen[line.PackagingTypeID] = true
	}
	return nil
}

// shiftToDate re-anchors a planned clock time from the old dispatch date to
// the new one, keeping the time of day.
func shiftToDate(t *time.Time, oldDate, newDate time.Time) *time.Time {
	if t == nil {
		return nil
	}
	delta := newDate.Sub(time.Date(oldDate.Year(), oldDate.Month(), oldDate.Day(), 0, 0, 0, 0, oldDate.Location()))
	shifted := t.Add(delta)
	return &shifted
}

func notFoundOr(err error, message string) error {
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return err
}
