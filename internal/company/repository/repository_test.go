package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	companydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/company/domain"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/migration"
)

func setupRepoTest(t *testing.T) (*gorm.DB, companydomain.Repository) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(migration.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return db, New(node)
}

// Inactive rows must survive the insert as-is. A column default on the
// active flags would silently flip false to true on Create.
func TestInactiveFlagsPersist(t *testing.T) {
	db, repo := setupRepoTest(t)
	ctx := context.Background()

	company := companydomain.Company{ID: 1, Name: "dormant", Active: false}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("insert company: %v", err)
	}
	found, err := repo.FindCompany(ctx, db, 1)
	if err != nil {
		t.Fatalf("find company: %v", err)
	}
	if found == nil || found.Active {
		t.Fatalf("expected inactive company back, got %+v", found)
	}

	auth := companydomain.PodAuthorization{CompanyID: 1, PodCode: "IT001E00000001", IsActive: false}
	if err := repo.UpsertPodAuthorization(ctx, db, &auth); err != nil {
		t.Fatalf("upsert pod authorization: %v", err)
	}
	var stored companydomain.PodAuthorization
	if err := db.Where("company_id = ? AND pod_code = ?", 1, "IT001E00000001").First(&stored).Error; err != nil {
		t.Fatalf("reload pod authorization: %v", err)
	}
	if stored.IsActive {
		t.Fatal("expected inactive pod authorization back")
	}

	pods, err := repo.AuthorizedPods(ctx, db, 1)
	if err != nil {
		t.Fatalf("authorized pods: %v", err)
	}
	if len(pods) != 0 {
		t.Fatalf("inactive authorization leaked into authorized set: %v", pods)
	}
}

func TestUpsertPodAuthorizationUpdatesInPlace(t *testing.T) {
	db, repo := setupRepoTest(t)
	ctx := context.Background()

	first := companydomain.PodAuthorization{CompanyID: 2, PodCode: "IT001E00000002", PodName: "old", IsActive: true}
	if err := repo.UpsertPodAuthorization(ctx, db, &first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second := companydomain.PodAuthorization{CompanyID: 2, PodCode: "IT001E00000002", PodName: "new", IsActive: false}
	if err := repo.UpsertPodAuthorization(ctx, db, &second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected update in place, got new id %d vs %d", second.ID, first.ID)
	}

	var count int64
	if err := db.Model(&companydomain.PodAuthorization{}).Where("company_id = ?", 2).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row, got %d", count)
	}
	var stored companydomain.PodAuthorization
	if err := db.First(&stored, "id = ?", first.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.PodName != "new" || stored.IsActive {
		t.Fatalf("expected updated fields, got %+v", stored)
	}
}

func TestCompaniesWithPermissionSkipsInactive(t *testing.T) {
	db, repo := setupRepoTest(t)
	ctx := context.Background()

	companies := []companydomain.Company{
		{ID: 10, Name: "active-granted", Active: true},
		{ID: 11, Name: "inactive-granted", Active: false},
		{ID: 12, Name: "active-denied", Active: true},
	}
	for i := range companies {
		if err := db.Create(&companies[i]).Error; err != nil {
			t.Fatalf("insert company: %v", err)
		}
	}
	for _, p := range []companydomain.CompanyPermissions{
		{ID: 1000, CompanyID: 10, PartnerEnergia: true},
		{ID: 1001, CompanyID: 11, PartnerEnergia: true},
		{ID: 1002, CompanyID: 12, PartnerEnergia: false},
	} {
		perms := p
		if err := db.Create(&perms).Error; err != nil {
			t.Fatalf("insert permissions: %v", err)
		}
	}

	got, err := repo.CompaniesWithPermission(ctx, db, companydomain.PermPartnerEnergia)
	if err != nil {
		t.Fatalf("companies with permission: %v", err)
	}
	if len(got) != 1 || got[0].ID != 10 {
		t.Fatalf("expected only the active granted company, got %+v", got)
	}

	if _, err := repo.CompaniesWithPermission(ctx, db, companydomain.Permission("bogus")); err != companydomain.ErrInvalidPermission {
		t.Fatalf("expected invalid permission, got %v", err)
	}
}
