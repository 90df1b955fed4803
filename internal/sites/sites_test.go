package sites

import (
	"context"
	"testing"

	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	pkgerrors "github.com/agrilogix/crateflow-backend/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newSitesTestService(t *testing.T) *Service {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Site{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(NewRepository(conn))
}

func TestCreateNormalizesCode(t *testing.T) {
	svc := newSitesTestService(t)

	site, err := svc.Create(context.Background(), CreateInput{
		Code: " bv ",
		Name: "Bella Vista",
		Type: enums.SiteTypeFarm,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if site.Code != "BV" {
		t.Fatalf("expected uppercase trimmed code, got %q", site.Code)
	}
	if !site.IsActive {
		t.Fatal("new sites start active")
	}
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	svc := newSitesTestService(t)

	if _, err := svc.Create(context.Background(), CreateInput{Code: "BV", Name: "First", Type: enums.SiteTypeFarm}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(context.Background(), CreateInput{Code: "BV", Name: "Second", Type: enums.SiteTypeDepot})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeactivateKeepsSite(t *testing.T) {
	svc := newSitesTestService(t)

	site, err := svc.Create(context.Background(), CreateInput{Code: "CD", Name: "Central Depot", Type: enums.SiteTypeDepot})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deactivated, err := svc.Deactivate(context.Background(), site.ID)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if deactivated.IsActive {
		t.Fatal("expected inactive site")
	}

	// still resolvable for history
	if _, err := svc.Get(context.Background(), site.ID); err != nil {
		t.Fatalf("get after deactivate: %v", err)
	}

	active, err := svc.List(context.Background(), false, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("inactive sites must be excluded by default, got %d", len(active))
	}
	all, err := svc.List(context.Background(), true, nil)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected site retained, got %d", len(all))
	}
}

func TestListFiltersByType(t *testing.T) {
	svc := newSitesTestService(t)

	if _, err := svc.Create(context.Background(), CreateInput{Code: "BV", Name: "Bella Vista", Type: enums.SiteTypeFarm}); err != nil {
		t.Fatalf("create farm: %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateInput{Code: "CD", Name: "Central Depot", Type: enums.SiteTypeDepot}); err != nil {
		t.Fatalf("create depot: %v", err)
	}

	farm := enums.SiteTypeFarm
	farms, err := svc.List(context.Background(), false, &farm)
	if err != nil {
		t.Fatalf("list farms: %v", err)
	}
	if len(farms) != 1 || farms[0].Code != "BV" {
		t.Fatalf("type filter mismatch: %+v", farms)
	}
}
