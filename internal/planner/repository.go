package planner

import (
	"context"
	"time"

	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	"github.com/agrilogix/crateflow-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository owns persistence for dispatch schedules.
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

// ListFilters narrows the schedule listing. Nil fields are ignored.
type ListFilters struct {
	Status       *enums.ScheduleStatus
	OriginSiteID *uuid.UUID
	DateFrom     *time.Time
	DateTo       *time.Time
	Page         pagination.Params
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DispatchSchedule, error) {
	var schedule models.DispatchSchedule
	err := r.db.WithContext(ctx).
		Preload("OriginSite").
		Preload("DestinationSite").
		Preload("Load").
		First(&schedule, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *Repository) Create(ctx context.Context, schedule *models.DispatchSchedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *Repository) Save(ctx context.Context, schedule *models.DispatchSchedule) error {
	return r.db.WithContext(ctx).Save(schedule).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.DispatchSchedule{}, "id = ?", id).Error
}

func (r *Repository) List(ctx context.Context, filters ListFilters) ([]models.DispatchSchedule, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DispatchSchedule{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.OriginSiteID != nil {
		query = query.Where("origin_site_id = ?", *filters.OriginSiteID)
	}
	if filters.DateFrom != nil {
		query = query.Where("dispatch_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("dispatch_date <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := pagination.Normalize(filters.Page)

	var schedules []models.DispatchSchedule
	err := query.
		Preload("OriginSite").
		Preload("DestinationSite").
		Order("dispatch_date ASC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&schedules).Error
	if err != nil {
		return nil, 0, err
	}
	return schedules, total, nil
}

// ListBetween returns all schedules with dispatch dates inside [from, to),
// unpaged, for the weekly view and demand aggregation.
func (r *Repository) ListBetween(ctx context.Context, from, to time.Time) ([]models.DispatchSchedule, error) {
	var schedules []models.DispatchSchedule
	err := r.db.WithContext(ctx).
		Where("dispatch_date >= ? AND dispatch_date < ?", from, to).
		Preload("OriginSite").
		Preload("DestinationSite").
		Order("dispatch_date ASC").
		Find(&schedules).Error
	return schedules, err
}

// ClaimForPromotion links a schedule to its load only when no load is set
// yet. Zero rows affected means the schedule was already promoted.
func (r *Repository) ClaimForPromotion(ctx context.Context, scheduleID, loadID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DispatchSchedule{}).
		Where("id = ? AND load_id IS NULL", scheduleID).
		Updates(map[string]any{
			"load_id":    loadID,
			"status":     enums.ScheduleStatusConfirmed,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *Repository) FindPackagingTypeByCode(ctx context.Context, code string) (*models.PackagingType, error) {
	var pt models.PackagingType
	if err := r.db.WithContext(ctx).First(&pt, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &pt, nil
}
