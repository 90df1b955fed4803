package inventory

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/agrilogix/crateflow-backend/pkg/db"
	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	pkgerrors "github.com/agrilogix/crateflow-backend/pkg/errors"
	"github.com/agrilogix/crateflow-backend/pkg/logger"
	"github.com/agrilogix/crateflow-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service maintains balances and the append-only movement ledger. Every
// balance mutation writes through this service so the ledger replays to the
// cached quantity.
type Service struct {
	repo *Repository
	dbc  *db.Client
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, dbc *db.Client, logg *logger.Logger) *Service {
	return &Service{
		repo: repo,
		dbc:  dbc,
		logg: logg,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// AdjustInput is a manual stock count correction for one (site, type) pair.
type AdjustInput struct {
	SiteID          uuid.UUID  `json:"siteId" validate:"required"`
	PackagingTypeID uuid.UUID  `json:"packagingTypeId" validate:"required"`
	NewQuantity     int        `json:"newQuantity" validate:"gte=0"`
	DamagedQuantity *int       `json:"damagedQuantity" validate:"omitempty,gte=0"`
	Note            *string    `json:"note"`
	ActorID         *uuid.UUID `json:"-"`
}

// ClassifyStock places a balance in the threshold band: at or below minimum
// is critical, within 120% of minimum is warning.
func ClassifyStock(quantity, minimum int) enums.StockStatus {
	if minimum <= 0 {
		return enums.StockStatusNormal
	}
	if quantity <= minimum {
		return enums.StockStatusCritical
	}
	if float64(quantity) <= float64(minimum)*1.2 {
		return enums.StockStatusWarning
	}
	return enums.StockStatusNormal
}

// Adjust applies a manual count: delta = new - current; a zero delta is a
// no-op, otherwise one movement row is appended and the balance upserted in
// the same transaction.
func (s *Service) Adjust(ctx context.Context, input AdjustInput) (*models.SitePackagingInventory, error) {
	var result *models.SitePackagingInventory

	err := s.dbc.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		balance, err := s.ensureBalance(ctx, txRepo, input.SiteID, input.PackagingTypeID)
		if err != nil {
			return err
		}

		delta := input.NewQuantity - balance.Quantity
		countedAt := s.now()

		if delta == 0 && input.DamagedQuantity == nil {
			balance.LastCountedAt = &countedAt
			result = balance
			return txRepo.SaveBalance(ctx, balance)
		}

		balance.Quantity = input.NewQuantity
		if input.DamagedQuantity != nil {
			balance.DamagedQuantity = *input.DamagedQuantity
		}
		balance.LastCountedAt = &countedAt
		if err := txRepo.SaveBalance(ctx, balance); err != nil {
			return err
		}

		if delta != 0 {
			movement := &models.PackagingMovement{
				ID:              uuid.New(),
				SiteID:          input.SiteID,
				PackagingTypeID: input.PackagingTypeID,
				Type:            enums.MovementTypeAdjustment,
				Delta:           delta,
				ResultingQty:    balance.Quantity,
				ActorID:         input.ActorID,
				Note:            input.Note,
			}
			if err := txRepo.AppendMovement(ctx, movement); err != nil {
				return err
			}
		}

		if err := s.maybeRaiseAlert(ctx, txRepo, input.SiteID, input.PackagingTypeID, balance.Quantity); err != nil {
			return err
		}

		result = balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyLoadDispatch decrements origin stock per line and appends dispatch
// movements. Runs inside the load transition's transaction.
func (s *Service) ApplyLoadDispatch(ctx context.Context, tx *gorm.DB, load *models.Load, actorID *uuid.UUID) error {
	txRepo := s.repo.WithTx(tx)
	for _, line := range load.Lines {
		balance, err := s.ensureBalance(ctx, txRepo, load.OriginSiteID, line.PackagingTypeID)
		if err != nil {
			return err
		}
		balance.Quantity -= line.QtyDispatched
		if err := txRepo.SaveBalance(ctx, balance); err != nil {
			return err
		}

		movement := &models.PackagingMovement{
			ID:              uuid.New(),
			SiteID:          load.OriginSiteID,
			PackagingTypeID: line.PackagingTypeID,
			Type:            enums.MovementTypeDispatch,
			Delta:           -line.QtyDispatched,
			ResultingQty:    balance.Quantity,
			LoadID:          &load.ID,
			ActorID:         actorID,
		}
		if err := txRepo.AppendMovement(ctx, movement); err != nil {
			return err
		}

		if err := s.maybeRaiseAlert(ctx, txRepo, load.OriginSiteID, line.PackagingTypeID, balance.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// ApplyLoadReceipt credits destination stock with received quantities and
// tracks damaged units in the damaged bucket. Runs inside the receipt
// transaction.
func (s *Service) ApplyLoadReceipt(ctx context.Context, tx *gorm.DB, load *models.Load, actorID *uuid.UUID) error {
	txRepo := s.repo.WithTx(tx)
	for _, line := range load.Lines {
		balance, err := s.ensureBalance(ctx, txRepo, load.DestinationSiteID, line.PackagingTypeID)
		if err != nil {
			return err
		}
		balance.Quantity += line.QtyReceived
		balance.DamagedQuantity += line.QtyDamaged
		if err := txRepo.SaveBalance(ctx, balance); err != nil {
			return err
		}

		movement := &models.PackagingMovement{
			ID:              uuid.New(),
			SiteID:          load.DestinationSiteID,
			PackagingTypeID: line.PackagingTypeID,
			Type:            enums.MovementTypeReceipt,
			Delta:           line.QtyReceived,
			ResultingQty:    balance.Quantity,
			LoadID:          &load.ID,
			ActorID:         actorID,
		}
		if err := txRepo.AppendMovement(ctx, movement); err != nil {
			return err
		}

		if err := s.maybeRaiseAlert(ctx, txRepo, load.DestinationSiteID, line.PackagingTypeID, balance.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) ensureBalance(ctx context.Context, txRepo *Repository, siteID, packagingTypeID uuid.UUID) (*models.SitePackagingInventory, error) {
	balance, err := txRepo.FindBalance(ctx, siteID, packagingTypeID)
	if err == nil {
		return balance, nil
	}
	if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	balance = &models.SitePackagingInventory{
		ID:              uuid.New(),
		SiteID:          siteID,
		PackagingTypeID: packagingTypeID,
	}
	if err := txRepo.CreateBalance(ctx, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

func (s *Service) maybeRaiseAlert(ctx context.Context, txRepo *Repository, siteID, packagingTypeID uuid.UUID, quantity int) error {
	threshold, err := txRepo.FindThreshold(ctx, siteID, packagingTypeID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	status := ClassifyStock(quantity, threshold.MinimumLevel)
	if status == enums.StockStatusNormal {
		return nil
	}

	severity := enums.AlertSeverityWarning
	if status == enums.StockStatusCritical {
		severity = enums.AlertSeverityCritical
	}

	exists, err := txRepo.HasOpenAlert(ctx, siteID, packagingTypeID, severity)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	alert := &models.Alert{
		ID:              uuid.New(),
		SiteID:          siteID,
		PackagingTypeID: packagingTypeID,
		Severity:        severity,
		Message:         fmt.Sprintf("stock level %d at or near minimum %d", quantity, threshold.MinimumLevel),
	}
	return txRepo.CreateAlert(ctx, alert)
}

// ListInventory returns balances, optionally scoped to one site.
func (s *Service) ListInventory(ctx context.Context, siteID *uuid.UUID) ([]models.SitePackagingInventory, error) {
	return s.repo.ListBalances(ctx, siteID)
}

// ListMovements pages through the ledger.
func (s *Service) ListMovements(ctx context.Context, filters MovementFilters) ([]models.PackagingMovement, int64, error) {
	return s.repo.ListMovements(ctx, filters)
}

// ListAlerts pages alerts, unacknowledged first by default.
func (s *Service) ListAlerts(ctx context.Context, includeAcknowledged bool, page pagination.Params) ([]models.Alert, int64, error) {
	return s.repo.ListAlerts(ctx, includeAcknowledged, page)
}

// AcknowledgeAlert marks an alert handled by the acting user.
func (s *Service) AcknowledgeAlert(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*models.Alert, error) {
	alert, err := s.repo.FindAlert(ctx, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "alert not found")
		}
		return nil, err
	}
	if alert.Acknowledged {
		return alert, nil
	}

	now := s.now()
	alert.Acknowledged = true
	alert.AcknowledgedBy = actorID
	alert.AcknowledgedAt = &now
	if err := s.repo.SaveAlert(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}
