package auth

import (
	"context"
	stdErrors "errors"
	"strings"
	"time"

	"github.com/agrilogix/crateflow-backend/pkg/auth"
	"github.com/agrilogix/crateflow-backend/pkg/config"
	"github.com/agrilogix/crateflow-backend/pkg/db"
	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	pkgerrors "github.com/agrilogix/crateflow-backend/pkg/errors"
	"github.com/agrilogix/crateflow-backend/pkg/logger"
	"github.com/agrilogix/crateflow-backend/pkg/pagination"
	"github.com/agrilogix/crateflow-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service implements authentication and user administration.
type Service struct {
	repo     *Repository
	jwt      config.JWTConfig
	password config.PasswordConfig
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(repo *Repository, jwt config.JWTConfig, password config.PasswordConfig, logg *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		jwt:      jwt,
		password: password,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// LoginInput carries the login credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the issued token plus the authenticated user.
type LoginResult struct {
	Token string
	User  *models.User
}

// RegisterInput creates a new account; admin only.
type RegisterInput struct {
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=10"`
	FullName string         `json:"fullName" validate:"required"`
	Role     enums.UserRole `json:"role" validate:"required"`
	SiteID   *uuid.UUID     `json:"siteId"`
}

// UpdateUserInput mutates an existing account; admin only. Nil fields are
// left unchanged.
type UpdateUserInput struct {
	FullName *string         `json:"fullName"`
	Role     *enums.UserRole `json:"role"`
	SiteID   *uuid.UUID      `json:"siteId"`
	IsActive *bool           `json:"isActive"`
}

// ChangePasswordInput rotates the caller's own password.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=10"`
}

// Login verifies credentials and mints an access token. Invalid email and
// invalid password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	now := s.now()
	token, err := auth.MintAccessToken(s.jwt, now, auth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		SiteID: user.SiteID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting token")
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.login")
	}
	return &LoginResult{Token: token, User: user}, nil
}

// Register creates an account with a hashed password.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown role")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		FullName:     input.FullName,
		Role:         input.Role,
		SiteID:       input.SiteID,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, err
	}
	return user, nil
}

// Me resolves the authenticated user.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return err
	}

	ok, err := security.VerifyPassword(input.CurrentPassword, user.PasswordHash)
	if err != nil || !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := security.HashPassword(input.NewPassword, s.password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}
	user.PasswordHash = hash
	return s.repo.Save(ctx, user)
}

// ListUsers pages accounts for the admin console.
func (s *Service) ListUsers(ctx context.Context, includeInactive bool, page pagination.Params) ([]models.User, int64, error) {
	return s.repo.List(ctx, includeInactive, page)
}

// UpdateUser mutates role/site/active flags; admin only.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, err
	}

	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown role")
		}
		user.Role = *input.Role
	}
	if input.SiteID != nil {
		user.SiteID = input.SiteID
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
