package loads

import (
	"context"
	"time"

	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	"github.com/agrilogix/crateflow-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository owns persistence for loads and their packaging lines.
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

// ListFilters narrows the load listing. Nil fields are ignored.
type ListFilters struct {
	Status            *enums.LoadStatus
	OriginSiteID      *uuid.UUID
	DestinationSiteID *uuid.UUID
	SiteID            *uuid.UUID
	VehicleID         *uuid.UUID
	DriverID          *uuid.UUID
	ChannelID         *uuid.UUID
	DateFrom          *time.Time
	DateTo            *time.Time
	HasDiscrepancy    *bool
	HasOvertime       *bool
	Page              pagination.Params
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Load, error) {
	var load models.Load
	err := r.db.WithContext(ctx).
		Preload("OriginSite").
		Preload("DestinationSite").
		Preload("Channel").
		Preload("Vehicle").
		Preload("Driver").
		Preload("Lines").
		Preload("Lines.PackagingType").
		First(&load, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &load, nil
}

func (r *Repository) FindByNumber(ctx context.Context, loadNumber string) (*models.Load, error) {
	var load models.Load
	err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&load, "load_number = ?", loadNumber).Error
	if err != nil {
		return nil, err
	}
	return &load, nil
}

// MaxNumberForPrefix returns the highest existing load number sharing the
// site/day prefix, or empty when the day has no loads yet.
func (r *Repository) MaxNumberForPrefix(ctx context.Context, prefix string) (string, error) {
	var max *string
	err := r.db.WithContext(ctx).
		Model(&models.Load{}).
		Where("load_number LIKE ?", prefix+"%").
		Select("MAX(load_number)").
		Scan(&max).Error
	if err != nil {
		return "", err
	}
	if max == nil {
		return "", nil
	}
	return *max, nil
}

func (r *Repository) Create(ctx context.Context, load *models.Load) error {
	return r.db.WithContext(ctx).Create(load).Error
}

func (r *Repository) Save(ctx context.Context, load *models.Load) error {
	return r.db.WithContext(ctx).Save(load).Error
}

func (r *Repository) SaveLine(ctx context.Context, line *models.LoadPackagingLine) error {
	return r.db.WithContext(ctx).Save(line).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("load_id = ?", id).
		Delete(&models.LoadPackagingLine{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.Load{}, "id = ?", id).Error
}

// UpdateStatusIf performs a compare-and-swap status transition. It returns
// the number of rows updated; zero means the load was not in any of the
// expected statuses at update time.
func (r *Repository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from []enums.LoadStatus, to enums.LoadStatus, updates map[string]any) (int64, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to
	updates["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).
		Model(&models.Load{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *Repository) List(ctx context.Context, filters ListFilters) ([]models.Load, int64, error) {
	query := r.applyFilters(r.db.WithContext(ctx).Model(&models.Load{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := pagination.Normalize(filters.Page)

	var loads []models.Load
	err := query.
		Preload("OriginSite").
		Preload("DestinationSite").
		Preload("Vehicle").
		Preload("Driver").
		Preload("Lines").
		Preload("Lines.PackagingType").
		Order("dispatch_date DESC, load_number DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&loads).Error
	if err != nil {
		return nil, 0, err
	}
	return loads, total, nil
}

func (r *Repository) applyFilters(query *gorm.DB, filters ListFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.OriginSiteID != nil {
		query = query.Where("origin_site_id = ?", *filters.OriginSiteID)
	}
	if filters.DestinationSiteID != nil {
		query = query.Where("destination_site_id = ?", *filters.DestinationSiteID)
	}
	if filters.SiteID != nil {
		query = query.Where("origin_site_id = ? OR destination_site_id = ?", *filters.SiteID, *filters.SiteID)
	}
	if filters.VehicleID != nil {
		query = query.Where("vehicle_id = ?", *filters.VehicleID)
	}
	if filters.DriverID != nil {
		query = query.Where("driver_id = ?", *filters.DriverID)
	}
	if filters.ChannelID != nil {
		query = query.Where("channel_id = ?", *filters.ChannelID)
	}
	if filters.DateFrom != nil {
		query = query.Where("dispatch_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("dispatch_date <= ?", *filters.DateTo)
	}
	if filters.HasDiscrepancy != nil {
		query = query.Where("has_discrepancy = ?", *filters.HasDiscrepancy)
	}
	if filters.HasOvertime != nil {
		query = query.Where("has_overtime = ?", *filters.HasOvertime)
	}
	return query
}

// ListActiveWithLines returns loads currently counted as in transit, lines
// preloaded, for the dashboard's in-transit totals.
func (r *Repository) ListActiveWithLines(ctx context.Context) ([]models.Load, error) {
	var loads []models.Load
	err := r.db.WithContext(ctx).
		Where("status IN ?", enums.ActiveLoadStatuses).
		Preload("Lines").
		Preload("Lines.PackagingType").
		Find(&loads).Error
	return loads, err
}

func (r *Repository) FindSite(ctx context.Context, id uuid.UUID) (*models.Site, error) {
	var site models.Site
	if err := r.db.WithContext(ctx).First(&site, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &site, nil
}

func (r *Repository) CountByStatusOnDate(ctx context.Context, date time.Time) (map[enums.LoadStatus]int64, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	type row struct {
		Status enums.LoadStatus
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Load{}).
		Select("status, COUNT(*) AS total").
		Where("dispatch_date >= ? AND dispatch_date < ?", dayStart, dayEnd).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[enums.LoadStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}
