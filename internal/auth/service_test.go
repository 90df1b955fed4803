package auth

import (
	"context"
	"testing"

	pkgauth "github.com/agrilogix/crateflow-backend/pkg/auth"
	"github.com/agrilogix/crateflow-backend/pkg/config"
	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	pkgerrors "github.com/agrilogix/crateflow-backend/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newAuthTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Site{}, &models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	jwtCfg := config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "crateflow",
		ExpirationMinutes: 30,
	}
	return NewService(NewRepository(conn), jwtCfg, config.PasswordConfig{}, nil), conn
}

func registerTestUser(t *testing.T, svc *Service, email, password string, role enums.UserRole) *models.User {
	t.Helper()

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: password,
		FullName: "Test User",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

func expectAuthCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, _ := newAuthTestService(t)
	user := registerTestUser(t, svc, "dispatcher@example.com", "a-long-password", enums.UserRoleDispatcher)

	result, err := svc.Login(context.Background(), LoginInput{
		Email:    "dispatcher@example.com",
		Password: "a-long-password",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgauth.ParseAccessToken(config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "crateflow",
		ExpirationMinutes: 30,
	}, result.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("token user mismatch: %s vs %s", claims.UserID, user.ID)
	}
	if claims.Role != enums.UserRoleDispatcher {
		t.Fatalf("token role mismatch: %s", claims.Role)
	}
	if result.User.LastLoginAt == nil {
		t.Fatal("login must stamp last login time")
	}
}

func TestLoginNormalizesEmailCase(t *testing.T) {
	svc, _ := newAuthTestService(t)
	registerTestUser(t, svc, "Mixed.Case@Example.com", "a-long-password", enums.UserRoleReadonly)

	if _, err := svc.Login(context.Background(), LoginInput{
		Email:    "mixed.case@example.com",
		Password: "a-long-password",
	}); err != nil {
		t.Fatalf("login with lowered email: %v", err)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc, conn := newAuthTestService(t)
	user := registerTestUser(t, svc, "user@example.com", "a-long-password", enums.UserRoleReadonly)

	_, err := svc.Login(context.Background(), LoginInput{Email: "unknown@example.com", Password: "whatever"})
	expectAuthCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = svc.Login(context.Background(), LoginInput{Email: "user@example.com", Password: "wrong-password"})
	expectAuthCode(t, err, pkgerrors.CodeUnauthorized)

	if err := conn.Model(user).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate user: %v", err)
	}
	_, err = svc.Login(context.Background(), LoginInput{Email: "user@example.com", Password: "a-long-password"})
	expectAuthCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newAuthTestService(t)
	registerTestUser(t, svc, "dup@example.com", "a-long-password", enums.UserRoleReadonly)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "dup@example.com",
		Password: "another-password",
		FullName: "Second User",
		Role:     enums.UserRoleReadonly,
	})
	expectAuthCode(t, err, pkgerrors.CodeConflict)
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	svc, _ := newAuthTestService(t)
	user := registerTestUser(t, svc, "rotate@example.com", "a-long-password", enums.UserRoleReadonly)

	err := svc.ChangePassword(context.Background(), user.ID, ChangePasswordInput{
		CurrentPassword: "wrong-password",
		NewPassword:     "a-newer-password",
	})
	expectAuthCode(t, err, pkgerrors.CodeUnauthorized)

	if err := svc.ChangePassword(context.Background(), user.ID, ChangePasswordInput{
		CurrentPassword: "a-long-password",
		NewPassword:     "a-newer-password",
	}); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := svc.Login(context.Background(), LoginInput{
		Email:    "rotate@example.com",
		Password: "a-newer-password",
	}); err != nil {
		t.Fatalf("login with rotated password: %v", err)
	}
}

func TestUpdateUserPartialFields(t *testing.T) {
	svc, _ := newAuthTestService(t)
	user := registerTestUser(t, svc, "edit@example.com", "a-long-password", enums.UserRoleReadonly)

	role := enums.UserRoleDepotUser
	inactive := false
	updated, err := svc.UpdateUser(context.Background(), user.ID, UpdateUserInput{
		Role:     &role,
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated.Role != enums.UserRoleDepotUser {
		t.Fatalf("expected role change, got %s", updated.Role)
	}
	if updated.IsActive {
		t.Fatal("expected deactivation")
	}
	if updated.FullName != "Test User" {
		t.Fatalf("untouched fields must persist, got %s", updated.FullName)
	}

	bad := enums.UserRole("superuser")
	_, err = svc.UpdateUser(context.Background(), user.ID, UpdateUserInput{Role: &bad})
	expectAuthCode(t, err, pkgerrors.CodeValidation)
}
