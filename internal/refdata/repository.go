package refdata

import (
	"context"

	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository owns persistence for the reference entities loads hang off:
// vehicles, drivers, channels, products, packaging types, and thresholds.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func activeScope(query *gorm.DB, includeInactive bool) *gorm.DB {
	if includeInactive {
		return query
	}
	return query.Where("is_active = ?", true)
}

func (r *Repository) FindVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.db.WithContext(ctx).First(&vehicle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *Repository) ListVehicles(ctx context.Context, includeInactive bool) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := activeScope(r.db.WithContext(ctx), includeInactive).
		Order("registration ASC").Find(&vehicles).Error
	return vehicles, err
}

func (r *Repository) SaveVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Save(vehicle).Error
}

func (r *Repository) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Create(vehicle).Error
}

func (r *Repository) FindDriver(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	var driver models.Driver
	if err := r.db.WithContext(ctx).First(&driver, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *Repository) ListDrivers(ctx context.Context, includeInactive bool) ([]models.Driver, error) {
	var drivers []models.Driver
	err := activeScope(r.db.WithContext(ctx), includeInactive).
		Order("name ASC").Find(&drivers).Error
	return drivers, err
}

func (r *Repository) SaveDriver(ctx context.Context, driver *models.Driver) error {
	return r.db.WithContext(ctx).Save(driver).Error
}

func (r *Repository) CreateDriver(ctx context.Context, driver *models.Driver) error {
	return r.db.WithContext(ctx).Create(driver).Error
}

func (r *Repository) FindChannel(ctx context.Context, id uuid.UUID) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.WithContext(ctx).First(&channel, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *Repository) ListChannels(ctx context.Context, includeInactive bool) ([]models.Channel, error) {
	var channels []models.Channel
	err := activeScope(r.db.WithContext(ctx), includeInactive).
		Order("code ASC").Find(&channels).Error
	return channels, err
}

func (r *Repository) SaveChannel(ctx context.Context, channel *models.Channel) error {
	return r.db.WithContext(ctx).Save(channel).Error
}

func (r *Repository) CreateChannel(ctx context.Context, channel *models.Channel) error {
	return r.db.WithContext(ctx).Create(channel).Error
}

func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) ListProducts(ctx context.Context, includeInactive bool) ([]models.Product, error) {
	var products []models.Product
	err := activeScope(r.db.WithContext(ctx), includeInactive).
		Order("code ASC").Find(&products).Error
	return products, err
}

func (r *Repository) SaveProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *Repository) FindPackagingType(ctx context.Context, id uuid.UUID) (*models.PackagingType, error) {
	var pt models.PackagingType
	if err := r.db.WithContext(ctx).First(&pt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pt, nil
}

func (r *Repository) ListPackagingTypes(ctx context.Context, includeInactive bool) ([]models.PackagingType, error) {
	var types []models.PackagingType
	err := activeScope(r.db.WithContext(ctx), includeInactive).
		Order("code ASC").Find(&types).Error
	return types, err
}

func (r *Repository) SavePackagingType(ctx context.Context, pt *models.PackagingType) error {
	return r.db.WithContext(ctx).Save(pt).Error
}

func (r *Repository) CreatePackagingType(ctx context.Context, pt *models.PackagingType) error {
	return r.db.WithContext(ctx).Create(pt).Error
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
	query := r.db.WithContext(ctx).
		Preload("Site").
		Preload("PackagingType")
	if siteID != nil {
		query = query.Where("site_id = ?", *siteID)
	}
	var thresholds []models.StockThreshold
	err := query.Find(&thresholds).Error
	return thresholds, err
}

func (r *Repository) SaveThreshold(ctx context.Context, threshold *models.StockThreshold) error {
	return r.db.WithContext(ctx).Save(threshold).Error
}

func (r *Repository) CreateThreshold(ctx context.Context, threshold *models.StockThreshold) error {
	return r.db.WithContext(ctx).Create(threshold).Error
}
