package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	customerdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/customer/domain"
	customerrepository "github.com/spagnoll1andre/novaflow-tada-delivery/internal/customer/repository"
	devicedomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/device/domain"
	devicerepository "github.com/spagnoll1andre/novaflow-tada-delivery/internal/device/repository"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/migration"
	podsummarydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/podsummary/domain"
	requestdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/request/domain"
	requestrepository "github.com/spagnoll1andre/novaflow-tada-delivery/internal/request/repository"
)

type customerTestEnv struct {
	db   *gorm.DB
	node *snowflake.Node
	svc  Service
}

func setupCustomerTest(t *testing.T) *customerTestEnv {
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
	svc := NewService(ServiceParam{
		DB:           db,
		Log:          zap.NewNop(),
		CustomerRepo: customerrepository.New(),
		RequestRepo:  requestrepository.New(node),
		DeviceRepo:   devicerepository.New(node),
	})
	return &customerTestEnv{db: db, node: node, svc: svc}
}

func TestFindOrCreateNormalizesAndReuses(t *testing.T) {
	env := setupCustomerTest(t)
	ctx := context.Background()

	customer, created, err := env.svc.FindOrCreate(ctx, nil, 1, "  rssmra80a01h501u ", customerdomain.Seed{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created {
		t.Fatal("expected created")
	}
	if customer.FiscalCode != "RSSMRA80A01H501U" {
		t.Fatalf("expected normalized fiscal code, got %q", customer.FiscalCode)
	}

	again, created, err := env.svc.FindOrCreate(ctx, nil, 1, "RSSMRA80A01H501U", customerdomain.Seed{})
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if created {
		t.Fatal("expected reuse")
	}
	if again.ID != customer.ID {
		t.Fatalf("expected same customer, got %s and %s", customer.ID, again.ID)
	}

	if _, _, err := env.svc.FindOrCreate(ctx, nil, 1, "   ", customerdomain.Seed{}); !errors.Is(err, ErrMissingFiscalCode) {
		t.Fatalf("expected missing fiscal code, got %v", err)
	}
}

func TestFindOrCreateScopedPerCompany(t *testing.T) {
	env := setupCustomerTest(t)
	ctx := context.Background()

	first, _, err := env.svc.FindOrCreate(ctx, nil, 1, "RSSMRA80A01H501U", customerdomain.Seed{})
	if err != nil {
		t.Fatalf("company 1: %v", err)
	}
	second, created, err := env.svc.FindOrCreate(ctx, nil, 2, "RSSMRA80A01H501U", customerdomain.Seed{})
	if err != nil {
		t.Fatalf("company 2: %v", err)
	}
	if !created {
		t.Fatal("expected a separate customer per company")
	}
	if first.ID == second.ID {
		t.Fatal("expected distinct rows per company")
	}
}

func TestFindOrCreateFillsMissingFields(t *testing.T) {
	env := setupCustomerTest(t)
	ctx := context.Background()

	_, _, err := env.svc.FindOrCreate(ctx, nil, 1, "RSSMRA80A01H501U", customerdomain.Seed{FirstName: "Mario"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Later request data fills the gaps but never overwrites.
	customer, _, err := env.svc.FindOrCreate(ctx, nil, 1, "RSSMRA80A01H501U", customerdomain.Seed{
		FirstName: "Maria",
		LastName:  "Rossi",
		Email:     "mario.rossi@example.com",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if customer.FirstName != "Mario" {
		t.Fatalf("expected first name preserved, got %q", customer.FirstName)
	}
	if customer.LastName != "Rossi" || customer.Email != "mario.rossi@example.com" {
		t.Fatalf("expected gaps filled, got %q %q", customer.LastName, customer.Email)
	}
}

func TestGetScopedByCompany(t *testing.T) {
	env := setupCustomerTest(t)
	ctx := context.Background()

	customer, _, err := env.svc.FindOrCreate(ctx, nil, 1, "RSSMRA80A01H501U", customerdomain.Seed{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := env.svc.Get(ctx, 1, customer.ID); err != nil {
		t.Fatalf("expected customer, got %v", err)
	}
	if _, err := env.svc.Get(ctx, 2, customer.ID); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected not found for foreign company, got %v", err)
	}
	if _, err := env.svc.Get(ctx, 1, 99999); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}
}

func TestStats(t *testing.T) {
	env := setupCustomerTest(t)
	ctx := context.Background()

	customer, _, err := env.svc.FindOrCreate(ctx, nil, 1, "RSSMRA80A01H501U", customerdomain.Seed{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Now()
	rows := []any{
		&requestdomain.AdmissibilityRequest{
			ID: env.node.Generate(), CompanyID: 1, RequestID: "ADM-1",
			Pod: "IT001E00000001", FiscalCode: "RSSMRA80A01H501U",
			Status: requestdomain.StatusAdmissible, CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now,
		},
		&requestdomain.AssociationRequest{
			ID: env.node.Generate(), CompanyID: 1, RequestID: "ASSOC-1",
			Pod: "IT001E00000001", Serial: "SN-1", PodMType: requestdomain.PodMTypeM1,
			UserType: customerdomain.UserTypeConsumer, FiscalCode: "RSSMRA80A01H501U",
			Status: requestdomain.StatusAssociated, CreatedAt: now.Add(-time.Hour), UpdatedAt: now,
		},
	}
	for _, row := range rows {
		if err := env.db.Create(row).Error; err != nil {
			t.Fatalf("insert request: %v", err)
		}
	}
	device := devicedomain.Device{
		ID: env.node.Generate(), CompanyID: 1, DeviceID: "C2G-001",
		PodM1: "IT001E00000001", Active: true, Status: devicedomain.StatusOnline,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := env.db.Create(&device).Error; err != nil {
		t.Fatalf("insert device: %v", err)
	}

	stats, err := env.svc.Stats(ctx, 1, customer.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.AdmissibilityCount != 1 || stats.AssociationCount != 1 || stats.DisassociationCount != 0 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if !stats.HasActiveAssociations {
		t.Fatal("expected active associations")
	}
	if stats.DeviceCount != 1 {
		t.Fatalf("expected 1 device, got %d", stats.DeviceCount)
	}
	if stats.LatestRequestDate == nil {
		t.Fatal("expected latest request date")
	}
}

func TestStatsDisassociationClearsActive(t *testing.T) {
	env := setupCustomerTest(t)
	ctx := context.Background()

	customer, _, err := env.svc.FindOrCreate(ctx, nil, 1, "RSSMRA80A01H501U", customerdomain.Seed{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Now()
	assoc := requestdomain.AssociationRequest{
		ID: env.node.Generate(), CompanyID: 1, RequestID: "ASSOC-1",
		Pod: "IT001E00000001", Serial: "SN-1", PodMType: requestdomain.PodMTypeM1,
		UserType: customerdomain.UserTypeConsumer, FiscalCode: "RSSMRA80A01H501U",
		Status: requestdomain.StatusAssociated, CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now,
	}
	disassoc := requestdomain.DisassociationRequest{
		ID: env.node.Generate(), CompanyID: 1, RequestID: "DIS-1",
		Pod: "IT001E00000001", Serial: "SN-1", PodMType: requestdomain.PodMTypeM1,
		UserType: customerdomain.UserTypeConsumer, FiscalCode: "RSSMRA80A01H501U",
		Status: requestdomain.StatusDisassociated, CreatedAt: now.Add(-time.Hour), UpdatedAt: now,
	}
	if err := env.db.Create(&assoc).Error; err != nil {
		t.Fatalf("insert association: %v", err)
	}
	if err := env.db.Create(&disassoc).Error; err != nil {
		t.Fatalf("insert disassociation: %v", err)
	}

	stats, err := env.svc.Stats(ctx, 1, customer.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.HasActiveAssociations {
		t.Fatal("expected completed disassociation to clear active flag")
	}
}

func TestDeleteCascadesSummaries(t *testing.T) {
	env := setupCustomerTest(t)
	ctx := context.Background()

	customer, _, err := env.svc.FindOrCreate(ctx, nil, 1, "RSSMRA80A01H501U", customerdomain.Seed{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	summary := podsummarydomain.PodSummary{
		ID: env.node.Generate(), CompanyID: 1, PodCode: "IT001E00000001",
		CustomerID: customer.ID, CustomerFiscalCode: customer.FiscalCode,
		Status: podsummarydomain.StatusCustomerCreated,
	}
	if err := env.db.Create(&summary).Error; err != nil {
		t.Fatalf("insert summary: %v", err)
	}

	if err := env.svc.Delete(ctx, 1, customer.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var customers, summaries int64
	if err := env.db.Model(&customerdomain.Customer{}).Count(&customers).Error; err != nil {
		t.Fatalf("count customers: %v", err)
	}
	if err := env.db.Model(&podsummarydomain.PodSummary{}).Count(&summaries).Error; err != nil {
		t.Fatalf("count summaries: %v", err)
	}
	if customers != 0 || summaries != 0 {
		t.Fatalf("expected cascade delete, got %d customers and %d summaries", customers, summaries)
	}

	if err := env.svc.Delete(ctx, 1, customer.ID); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
