package seed

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/agrilogix/crateflow-backend/pkg/config"
	"github.com/agrilogix/crateflow-backend/pkg/db"
	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	"github.com/agrilogix/crateflow-backend/pkg/logger"
	"github.com/agrilogix/crateflow-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Run inserts reference data when absent. Safe to re-run; existing rows are
// left untouched.
func Run(ctx context.Context, dbc *db.Client, cfg *config.Config, logg *logger.Logger) error {
	conn := dbc.DB().WithContext(ctx)

	if err := seedPackagingTypes(conn, cfg.Promotion); err != nil {
		return fmt.Errorf("seeding packaging types: %w", err)
	}
	if err := seedChannels(conn); err != nil {
		return fmt.Errorf("seeding channels: %w", err)
	}
	if err := seedAdminUser(conn, cfg, logg, ctx); err != nil {
		return fmt.Errorf("seeding admin user: %w", err)
	}
	if cfg.App.IsDev() {
		if err := seedDemoSites(conn); err != nil {
			return fmt.Errorf("seeding demo sites: %w", err)
		}
	}

	if logg != nil {
		logg.Info(ctx, "seed complete")
	}
	return nil
}

func seedPackagingTypes(conn *gorm.DB, promotion config.PromotionConfig) error {
	defaults := []models.PackagingType{
		{Code: promotion.CrateTypeCode, Name: "Standard crate", Capacity: 20, IsReturnable: true, ExpectedTurnaroundDays: 7},
		{Code: promotion.BinTypeCode, Name: "Bulk bin", Capacity: 400, IsReturnable: true, ExpectedTurnaroundDays: 10},
		{Code: promotion.BoxTypeCode, Name: "Carton box", Capacity: 10, IsReturnable: false, ExpectedTurnaroundDays: 7},
		{Code: promotion.PalletTypeCode, Name: "Standard pallet", Capacity: 0, IsReturnable: true, ExpectedTurnaroundDays: 14},
	}
	for _, pt := range defaults {
		if pt.Code == "" {
			continue
		}
		pt.ID = uuid.New()
		pt.IsActive = true
		if err := firstOrCreate(conn, &models.PackagingType{}, "code = ?", pt.Code, &pt); err != nil {
			return err
		}
	}
	return nil
}

func seedChannels(conn *gorm.DB) error {
	defaults := []models.Channel{
		{Code: "EXPORT", Name: "Export"},
		{Code: "LOCAL", Name: "Local market"},
		{Code: "PROCESSING", Name: "Processing"},
	}
	for _, channel := range defaults {
		channel.ID = uuid.New()
		channel.IsActive = true
		if err := firstOrCreate(conn, &models.Channel{}, "code = ?", channel.Code, &channel); err != nil {
			return err
		}
	}
	return nil
}

func seedAdminUser(conn *gorm.DB, cfg *config.Config, logg *logger.Logger, ctx context.Context) error {
	email := strings.ToLower(strings.TrimSpace(cfg.Seed.AdminEmail))
	if email == "" {
		return nil
	}

	var existing models.User
	err := conn.First(&existing, "email = ?", email).Error
	if err == nil {
		return nil
	}
	if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if cfg.Seed.AdminPassword == "" {
		if logg != nil {
			logg.Warn(ctx, "admin password not set, skipping admin seed")
		}
		return nil
	}

	hash, err := security.HashPassword(cfg.Seed.AdminPassword, cfg.Password)
	if err != nil {
		return err
	}
	admin := models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     "Administrator",
		Role:         enums.UserRoleAdmin,
		IsActive:     true,
	}
	return conn.Create(&admin).Error
}

func seedDemoSites(conn *gorm.DB) error {
	defaults := []models.Site{
		{Code: "BV", Name: "Bella Vista Farm", Type: enums.SiteTypeFarm},
		{Code: "CD", Name: "Central Depot", Type: enums.SiteTypeDepot},
		{Code: "PH", Name: "Packhouse One", Type: enums.SiteTypePackhouse},
	}
	for _, site := range defaults {
		site.ID = uuid.New()
		site.IsActive = true
		if err := firstOrCreate(conn, &models.Site{}, "code = ?", site.Code, &site); err != nil {
			return err
		}
	}
	return nil
}

func firstOrCreate(conn *gorm.DB, probe any, query string, arg any, create any) error {
	err := conn.Where(query, arg).First(probe).Error
	if err == nil {
		return nil
	}
	if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return conn.Create(create).Error
}
