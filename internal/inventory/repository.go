package inventory

import (
	"context"
	"time"

	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	"github.com/agrilogix/crateflow-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository owns persistence for balances, the movement ledger, thresholds,
// and stock alerts.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// MovementFilters narrows the ledger listing. Nil fields are ignored.
type MovementFilters struct {
	SiteID          *uuid.UUID
	PackagingTypeID *uuid.UUID
	Type            *enums.MovementType
	LoadID          *uuid.UUID
	DateFrom        *time.Time
	DateTo          *time.Time
	Page            pagination.Params
}

func (r *Repository) FindBalance(ctx context.Context, siteID, packagingTypeID uuid.UUID) (*models.SitePackagingInventory, error) {
	var balance models.SitePackagingInventory
	err := r.db.WithContext(ctx).
		First(&balance, "site_id = ? AND packaging_type_id = ?", siteID, packagingTypeID).Error
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *Repository) SaveBalance(ctx context.Context, balance *models.SitePackagingInventory) error {
	return r.db.WithContext(ctx).Save(balance).Error
}

func (r *Repository) CreateBalance(ctx context.Context, balance *models.SitePackagingInventory) error {
	return r.db.WithContext(ctx).Create(balance).Error
}

func (r *Repository) ListBalances(ctx context.Context, siteID *uuid.UUID) ([]models.SitePackagingInventory, error) {
	query := r.db.WithContext(ctx).
		Preload("Site").
		Preload("PackagingType")
	if siteID != nil {
		query = query.Where("site_id = ?", *siteID)
	}

	var balances []models.SitePackagingInventory
	err := query.Order("site_id, packaging_type_id").Find(&balances).Error
	return balances, err
}

func (r *Repository) AppendMovement(ctx context.Context, movement *models.PackagingMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *Repository) ListMovements(ctx context.Context, filters MovementFilters) ([]models.PackagingMovement, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PackagingMovement{})
	if filters.SiteID != nil {
		query = query.Where("site_id = ?", *filters.SiteID)
	}
	if filters.PackagingTypeID != nil {
		query = query.Where("packaging_type_id = ?", *filters.PackagingTypeID)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.LoadID != nil {
		query = query.Where("load_id = ?", *filters.LoadID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := pagination.Normalize(filters.Page)

	var movements []models.PackagingMovement
	err := query.
		Preload("Site").
		Preload("PackagingType").
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&movements).Error
	if err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

func (r *Repository) FindThreshold(ctx context.Context, siteID, packagingTypeID uuid.UUID) (*models.StockThreshold, error) {
	var threshold models.StockThreshold
	err := r.db.WithContext(ctx).
		First(&threshold, "site_id = ? AND packaging_type_id = ?", siteID, packagingTypeID).Error
	if err != nil {
		return nil, err
	}
	return &threshold, nil
}

func (r *Repository) ListThresholds(ctx context.Context, siteID *uuid.UUID) ([]models.StockThreshold, error) {
	query := r.db.WithContext(ctx)
	if siteID != nil {
		query = query.Where("site_id = ?", *siteID)
	}
	var thresholds []models.StockThreshold
	err := query.Find(&thresholds).Error
	return thresholds, err
}

func (r *Repository) CreateAlert(ctx context.Context, alert *models.Alert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

// HasOpenAlert reports whether an unacknowledged alert already exists for
// the (site, type, severity) triple, to avoid stacking duplicates.
func (r *Repository) HasOpenAlert(ctx context.Context, siteID, packagingTypeID uuid.UUID, severity enums.AlertSeverity) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("site_id = ? AND packaging_type_id = ? AND severity = ? AND acknowledged = ?",
			siteID, packagingTypeID, severity, false).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) ListAlerts(ctx context.Context, includeAcknowledged bool, page pagination.Params) ([]models.Alert, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Alert{})
	if !includeAcknowledged {
		query = query.Where("acknowledged = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	normalized := pagination.Normalize(page)

	var alerts []models.Alert
	err := query.
		Preload("Site").
		Preload("PackagingType").
		Order("created_at DESC").
		Limit(normalized.Limit).
		Offset(normalized.Offset).
		Find(&alerts).Error
	if err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

func (r *Repository) FindAlert(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	var alert models.Alert
	if err := r.db.WithContext(ctx).First(&alert, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *Repository) SaveAlert(ctx context.Context, alert *models.Alert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}
