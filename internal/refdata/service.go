package refdata

import (
	"context"
	stdErrors "errors"
	"strings"

	"github.com/agrilogix/crateflow-backend/pkg/db"
	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	pkgerrors "github.com/agrilogix/crateflow-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service implements CRUD over the reference entities.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// VehicleInput creates or updates a vehicle. Pointer fields on update mean
// "leave unchanged".
type VehicleInput struct {
	Registration string  `json:"registration" validate:"required"`
	Description  *string `json:"description"`
	CapacityKg   int     `json:"capacityKg" validate:"gte=0"`
}

type VehicleUpdateInput struct {
	Description *string `json:"description"`
	CapacityKg  *int    `json:"capacityKg" validate:"omitempty,gte=0"`
	IsActive    *bool   `json:"isActive"`
}

type DriverInput struct {
	Name          string  `json:"name" validate:"required"`
	Phone         *string `json:"phone"`
	LicenseNumber *string `json:"licenseNumber"`
}

type DriverUpdateInput struct {
	Name          *string `json:"name"`
	Phone         *string `json:"phone"`
	LicenseNumber *string `json:"licenseNumber"`
	IsActive      *bool   `json:"isActive"`
}

type ChannelInput struct {
	Code        string  `json:"code" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

type ChannelUpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

type ProductInput struct {
	Code     string  `json:"code" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Category *string `json:"category"`
}

type ProductUpdateInput struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
	IsActive *bool   `json:"isActive"`
}

type PackagingTypeInput struct {
	Code                   string `json:"code" validate:"required"`
	Name                   string `json:"name" validate:"required"`
	Capacity               int    `json:"capacity" validate:"gte=0"`
	IsReturnable           *bool  `json:"isReturnable"`
	ExpectedTurnaroundDays int    `json:"expectedTurnaroundDays" validate:"gte=0"`
}

type PackagingTypeUpdateInput struct {
	Name                   *string `json:"name"`
	Capacity               *int    `json:"capacity" validate:"omitempty,gte=0"`
	IsReturnable           *bool   `json:"isReturnable"`
	ExpectedTurnaroundDays *int    `json:"expectedTurnaroundDays" validate:"omitempty,gte=0"`
	IsActive               *bool   `json:"isActive"`
}

// ThresholdInput upserts the stock band for one (site, type) pair.
type ThresholdInput struct {
	SiteID          uuid.UUID `json:"siteId" validate:"required"`
	PackagingTypeID uuid.UUID `json:"packagingTypeId" validate:"required"`
	MinimumLevel    int       `json:"minimumLevel" validate:"gte=0"`
	MaximumLevel    int       `json:"maximumLevel" validate:"gte=0"`
}

func (s *Service) CreateVehicle(ctx context.Context, input VehicleInput) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{
		ID:           uuid.New(),
		Registration: strings.ToUpper(strings.TrimSpace(input.Registration)),
		Description:  input.Description,
		CapacityKg:   input.CapacityKg,
		IsActive:     true,
	}
	if err := s.repo.CreateVehicle(ctx, vehicle); err != nil {
		return nil, conflictOr(err, "vehicle registration already exists")
	}
	return vehicle, nil
}

func (s *Service) UpdateVehicle(ctx context.Context, id uuid.UUID, input VehicleUpdateInput) (*models.Vehicle, error) {
	vehicle, err := s.repo.FindVehicle(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "vehicle not found")
	}
	if input.Description != nil {
		vehicle.Description = input.Description
	}
	if input.CapacityKg != nil {
		vehicle.CapacityKg = *input.CapacityKg
	}
	if input.IsActive != nil {
		vehicle.IsActive = *input.IsActive
	}
	if err := s.repo.SaveVehicle(ctx, vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (s *Service) ListVehicles(ctx context.Context, includeInactive bool) ([]models.Vehicle, error) {
	return s.repo.ListVehicles(ctx, includeInactive)
}

func (s *Service) CreateDriver(ctx context.Context, input DriverInput) (*models.Driver, error) {
	driver := &models.Driver{
		ID:            uuid.New(),
		Name:          input.Name,
		Phone:         input.Phone,
		LicenseNumber: input.LicenseNumber,
		IsActive:      true,
	}
	if err := s.repo.CreateDriver(ctx, driver); err != nil {
		return nil, err
	}
	return driver, nil
}

func (s *Service) UpdateDriver(ctx context.Context, id uuid.UUID, input DriverUpdateInput) (*models.Driver, error) {
	driver, err := s.repo.FindDriver(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "driver not found")
	}
	if input.Name != nil {
		driver.Name = *input.Name
	}
	if input.Phone != nil {
		driver.Phone = input.Phone
	}
	if input.LicenseNumber != nil {
		driver.LicenseNumber = input.LicenseNumber
	}
	if input.IsActive != nil {
		driver.IsActive = *input.IsActive
	}
	if err := s.repo.SaveDriver(ctx, driver); err != nil {
		return nil, err
	}
	return driver, nil
}

func (s *Service) ListDrivers(ctx context.Context, includeInactive bool) ([]models.Driver, error) {
	return s.repo.ListDrivers(ctx, includeInactive)
}

func (s *Service) CreateChannel(ctx context.Context, input ChannelInput) (*models.Channel, error) {
	channel := &models.Channel{
		ID:          uuid.New(),
		Code:        strings.ToUpper(strings.TrimSpace(input.Code)),
		Name:        input.Name,
		Description: input.Description,
		IsActive:    true,
	}
	if err := s.repo.CreateChannel(ctx, channel); err != nil {
		return nil, conflictOr(err, "channel code already exists")
	}
	return channel, nil
}

func (s *Service) UpdateChannel(ctx context.Context, id uuid.UUID, input ChannelUpdateInput) (*models.Channel, error) {
	channel, err := s.repo.FindChannel(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "channel not found")
	}
	if input.Name != nil {
		channel.Name = *input.Name
	}
	if input.Description != nil {
		channel.Description = input.Description
	}
	if input.IsActive != nil {
		channel.IsActive = *input.IsActive
	}
	if err := s.repo.SaveChannel(ctx, channel); err != nil {
		return nil, err
	}
	return channel, nil
}

func (s *Service) ListChannels(ctx context.Context, includeInactive bool) ([]models.Channel, error) {
	return s.repo.ListChannels(ctx, includeInactive)
}

func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	product := &models.Product{
		ID:       uuid.New(),
		Code:     strings.ToUpper(strings.TrimSpace(input.Code)),
		Name:     input.Name,
		Category: input.Category,
		IsActive: true,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, conflictOr(err, "product code already exists")
	}
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductUpdateInput) (*models.Product, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "product not found")
	}
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Category != nil {
		product.Category = input.Category
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := s.repo.SaveProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Service) ListProducts(ctx context.Context, includeInactive bool) ([]models.Product, error) {
	return s.repo.ListProducts(ctx, includeInactive)
}

func (s *Service) CreatePackagingType(ctx context.Context, input PackagingTypeInput) (*models.PackagingType, error) {
	returnable := true
	if input.IsReturnable != nil {
		returnable = *input.IsReturnable
	}
	turnaround := input.ExpectedTurnaroundDays
	if turnaround == 0 {
		turnaround = 7
	}

	pt := &models.PackagingType{
		ID:                     uuid.New(),
		Code:                   strings.ToUpper(strings.TrimSpace(input.Code)),
		Name:                   input.Name,
		Capacity:               input.Capacity,
		IsReturnable:           returnable,
		ExpectedTurnaroundDays: turnaround,
		IsActive:               true,
	}
	if err := s.repo.CreatePackagingType(ctx, pt); err != nil {
		return nil, conflictOr(err, "packaging type code already exists")
	}
	return pt, nil
}

func (s *Service) UpdatePackagingType(ctx context.Context, id uuid.UUID, input PackagingTypeUpdateInput) (*models.PackagingType, error) {
	pt, err := s.repo.FindPackagingType(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "packaging type not found")
	}
	if input.Name != nil {
		pt.Name = *input.Name
	}
	if input.Capacity != nil {
		pt.Capacity = *input.Capacity
	}
	if input.IsReturnable != nil {
		pt.IsReturnable = *input.IsReturnable
	}
	if input.ExpectedTurnaroundDays != nil {
		pt.ExpectedTurnaroundDays = *input.ExpectedTurnaroundDays
	}
	if input.IsActive != nil {
		pt.IsActive = *input.IsActive
	}
	if err := s.repo.SavePackagingType(ctx, pt); err != nil {
		return nil, err
	}
	return pt, nil
}

func (s *Service) ListPackagingTypes(ctx context.Context, includeInactive bool) ([]models.PackagingType, error) {
	return s.repo.ListPackagingTypes(ctx, includeInactive)
}

// UpsertThreshold creates or replaces the stock band for a (site, type)
// pair.
func (s *Service) UpsertThreshold(ctx context.Context, input ThresholdInput) (*models.StockThreshold, error) {
	if input.MaximumLevel > 0 && input.MaximumLevel < input.MinimumLevel {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "maximum level must be at or above minimum level")
	}

	threshold, err := s.repo.FindThreshold(ctx, input.SiteID, input.PackagingTypeID)
	if err != nil {
		if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		threshold = &models.StockThreshold{
			ID:              uuid.New(),
			SiteID:          input.SiteID,
			PackagingTypeID: input.PackagingTypeID,
			MinimumLevel:    input.MinimumLevel,
			MaximumLevel:    input.MaximumLevel,
		}
		if err := s.repo.CreateThreshold(ctx, threshold); err != nil {
			return nil, conflictOr(err, "threshold already exists for site and packaging type")
		}
		return threshold, nil
	}

	threshold.MinimumLevel = input.MinimumLevel
	threshold.MaximumLevel = input.MaximumLevel
	if err := s.repo.SaveThreshold(ctx, threshold); err != nil {
		return nil, err
	}
	return threshold, nil
}

func (s *Service) ListThresholds(ctx context.Context, siteID *uuid.UUID) ([]models.StockThreshold, error) {
	return s.repo.ListThresholds(ctx, siteID)
}

func notFoundOr(err error, message string) error {
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return err
}

func conflictOr(err error, message string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.New(pkgerrors.CodeConflict, message)
	}
	return err
}
