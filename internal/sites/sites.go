package sites

import (
	"context"
	stdErrors "errors"
	"strings"

	"github.com/agrilogix/crateflow-backend/pkg/db"
	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	pkgerrors "github.com/agrilogix/crateflow-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository owns persistence for sites.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Site, error) {
	var site models.Site
	if err := r.db.WithContext(ctx).First(&site, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &site, nil
}

func (r *Repository) Create(ctx context.Context, site *models.Site) error {
	return r.db.WithContext(ctx).Create(site).Error
}

func (r *Repository) Save(ctx context.Context, site *models.Site) error {
	return r.db.WithContext(ctx).Save(site).Error
}

func (r *Repository) List(ctx context.Context, includeInactive bool, siteType *enums.SiteType) ([]models.Site, error) {
	query := r.db.WithContext(ctx)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if siteType != nil {
		query = query.Where("type = ?", *siteType)
	}
	var sites []models.Site
	err := query.Order("code ASC").Find(&sites).Error
	return sites, err
}

// Service implements site administration. Sites are deactivated rather than
// deleted so historical loads keep valid references.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries a new site.
type CreateInput struct {
	Code   string         `json:"code" validate:"required,alphanum,uppercase,min=2,max=8"`
	Name   string         `json:"name" validate:"required"`
	Type   enums.SiteType `json:"type" validate:"required"`
	Region *string        `json:"region"`
}

// UpdateInput mutates a site. Nil fields are left unchanged; codes are
// immutable because load numbers embed them.
type UpdateInput struct {
	Name     *string         `json:"name"`
	Type     *enums.SiteType `json:"type"`
	Region   *string         `json:"region"`
	IsActive *bool           `json:"isActive"`
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Site, error) {
	site, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "site not found")
		}
		return nil, err
	}
	return site, nil
}

func (s *Service) List(ctx context.Context, includeInactive bool, siteType *enums.SiteType) ([]models.Site, error) {
	return s.repo.List(ctx, includeInactive, siteType)
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Site, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown site type")
	}

	site := &models.Site{
		ID:       uuid.New(),
		Code:     strings.ToUpper(strings.TrimSpace(input.Code)),
		Name:     input.Name,
		Type:     input.Type,
		Region:   input.Region,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, site); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "site code already exists")
		}
		return nil, err
	}
	return site, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Site, error) {
	site, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		site.Name = *input.Name
	}
	if input.Type != nil {
		if !input.Type.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown site type")
		}
		site.Type = *input.Type
	}
	if input.Region != nil {
		site.Region = input.Region
	}
	if input.IsActive != nil {
		site.IsActive = *input.IsActive
	}

	if err := s.repo.Save(ctx, site); err != nil {
		return nil, err
	}
	return site, nil
}

// Deactivate retires a site from new loads without removing it.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*models.Site, error) {
	inactive := false
	return s.Update(ctx, id, UpdateInput{IsActive: &inactive})
}
