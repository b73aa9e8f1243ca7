package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/authorization"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/cache"
	companydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/company/domain"
	companyrepository "github.com/spagnoll1andre/novaflow-tada-delivery/internal/company/repository"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/config"
	customerdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/customer/domain"
	customerrepository "github.com/spagnoll1andre/novaflow-tada-delivery/internal/customer/repository"
	customerservice "github.com/spagnoll1andre/novaflow-tada-delivery/internal/customer/service"
	devicerepository "github.com/spagnoll1andre/novaflow-tada-delivery/internal/device/repository"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/migration"
	requestdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/request/domain"
	requestrepository "github.com/spagnoll1andre/novaflow-tada-delivery/internal/request/repository"
)

// recordingRecomputer captures the stream keys the write path fires.
type recordingRecomputer struct {
	mu   sync.Mutex
	keys []requestdomain.StreamKey
}

func (r *recordingRecomputer) RecomputeForRequest(_ context.Context, key requestdomain.StreamKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return nil
}

type requestTestEnv struct {
	db         *gorm.DB
	node       *snowflake.Node
	svc        Service
	recomputer *recordingRecomputer
}

func setupRequestTest(t *testing.T) *requestTestEnv {
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

	log := zap.NewNop()
	customerRepo := customerrepository.New()
	requestRepo := requestrepository.New(node)

	authz := authorization.NewService(authorization.ServiceParam{
		DB:          db,
		Log:         log,
		CompanyRepo: companyrepository.New(node),
		PodCache:    cache.NewAuthorizedPodCache(),
		Config:      config.Config{AuthzTTL: time.Minute},
	})
	customers := customerservice.NewService(customerservice.ServiceParam{
		DB:           db,
		Log:          log,
		CustomerRepo: customerRepo,
		RequestRepo:  requestRepo,
		DeviceRepo:   devicerepository.New(node),
	})
	recomputer := &recordingRecomputer{}
	svc := NewService(ServiceParam{
		DB:          db,
		Log:         log,
		RequestRepo: requestRepo,
		Customers:   customers,
		Authz:       authz,
		Recomputer:  recomputer,
	})

	return &requestTestEnv{db: db, node: node, svc: svc, recomputer: recomputer}
}

func (e *requestTestEnv) insertCompany(t *testing.T, id snowflake.ID, perms companydomain.CompanyPermissions) {
	t.Helper()
	company := companydomain.Company{ID: id, Name: fmt.Sprintf("company-%d", id), Active: true}
	if err := e.db.Create(&company).Error; err != nil {
		t.Fatalf("insert company: %v", err)
	}
	perms.ID = e.node.Generate()
	perms.CompanyID = id
	if err := e.db.Create(&perms).Error; err != nil {
		t.Fatalf("insert permissions: %v", err)
	}
}

func allPerms() companydomain.CompanyPermissions {
	return companydomain.CompanyPermissions{
		PartnerEnergia:              true,
		ConfigurazioneAmmissibilita: true,
		ConfigurazioneAssociazione:  true,
		Magazzino:                   true,
		Spedizione:                  true,
		Monitoraggio:                true,
	}
}

func TestUpsertAdmissibilityCreatesAndLinksCustomer(t *testing.T) {
	env := setupRequestTest(t)
	env.insertCompany(t, 1, allPerms())

	req := &requestdomain.AdmissibilityRequest{
		CompanyID:  1,
		RequestID:  "ADM-1",
		Pod:        "IT001E00000001",
		FiscalCode: "RSSMRA80A01H501U",
		Status:     requestdomain.StatusPending,
	}
	created, err := env.svc.UpsertAdmissibility(context.Background(), req)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !created {
		t.Fatal("expected created")
	}
	if req.CustomerID == nil {
		t.Fatal("expected customer linked")
	}

	var customer customerdomain.Customer
	if err := env.db.First(&customer, "id = ?", *req.CustomerID).Error; err != nil {
		t.Fatalf("load customer: %v", err)
	}
	if customer.FiscalCode != "RSSMRA80A01H501U" {
		t.Fatalf("unexpected fiscal code %s", customer.FiscalCode)
	}

	if len(env.recomputer.keys) != 1 {
		t.Fatalf("expected 1 recompute, got %d", len(env.recomputer.keys))
	}
	key := env.recomputer.keys[0]
	if key.Pod != "IT001E00000001" || key.FiscalCode != "RSSMRA80A01H501U" {
		t.Fatalf("unexpected recompute key %+v", key)
	}

	// Same request id again: update, not create.
	update := &requestdomain.AdmissibilityRequest{
		CompanyID:  1,
		RequestID:  "ADM-1",
		Pod:        "IT001E00000001",
		FiscalCode: "RSSMRA80A01H501U",
		Status:     requestdomain.StatusAdmissible,
	}
	created, err = env.svc.UpsertAdmissibility(context.Background(), update)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Fatal("expected update on second upsert")
	}

	list, err := env.svc.ListAdmissibility(context.Background(), 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected single record, got %d", len(list))
	}
	if list[0].Status != requestdomain.StatusAdmissible {
		t.Fatalf("expected updated status, got %s", list[0].Status)
	}
}

func TestUpsertValidation(t *testing.T) {
	env := setupRequestTest(t)
	env.insertCompany(t, 1, allPerms())
	ctx := context.Background()

	cases := []struct {
		name string
		req  *requestdomain.AdmissibilityRequest
		want error
	}{
		{"missing request id", &requestdomain.AdmissibilityRequest{CompanyID: 1, Pod: "P", FiscalCode: "F", Status: requestdomain.StatusPending}, ErrMissingRequestID},
		{"missing pod", &requestdomain.AdmissibilityRequest{CompanyID: 1, RequestID: "R", FiscalCode: "F", Status: requestdomain.StatusPending}, ErrMissingPod},
		{"missing fiscal code", &requestdomain.AdmissibilityRequest{CompanyID: 1, RequestID: "R", Pod: "P", Status: requestdomain.StatusPending}, ErrMissingFiscalCode},
		{"invalid status", &requestdomain.AdmissibilityRequest{CompanyID: 1, RequestID: "R", Pod: "P", FiscalCode: "F", Status: "NOT_A_STATUS"}, ErrInvalidStatus},
	}
	for _, tc := range cases {
		if _, err := env.svc.UpsertAdmissibility(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	assoc := &requestdomain.AssociationRequest{
		CompanyID:  1,
		RequestID:  "ASSOC-1",
		Pod:        "IT001E00000001",
		FiscalCode: "RSSMRA80A01H501U",
		PodMType:   requestdomain.PodMTypeM1,
		UserType:   customerdomain.UserTypeConsumer,
		Status:     requestdomain.StatusPending,
	}
	if _, err := env.svc.UpsertAssociation(ctx, assoc); !errors.Is(err, ErrMissingSerial) {
		t.Fatalf("expected missing serial, got %v", err)
	}
}

func TestUpsertRejectsForeignStreamStatus(t *testing.T) {
	env := setupRequestTest(t)
	env.insertCompany(t, 1, allPerms())
	ctx := context.Background()

	// A status from another stream is as invalid as an unknown one.
	adm := &requestdomain.AdmissibilityRequest{
		CompanyID:  1,
		RequestID:  "ADM-1",
		Pod:        "IT001E00000001",
		FiscalCode: "RSSMRA80A01H501U",
		Status:     requestdomain.StatusAssociated,
	}
	if _, err := env.svc.UpsertAdmissibility(ctx, adm); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected invalid status for admissibility, got %v", err)
	}

	assoc := &requestdomain.AssociationRequest{
		CompanyID:  1,
		RequestID:  "ASSOC-1",
		Pod:        "IT001E00000001",
		Serial:     "SN-1",
		PodMType:   requestdomain.PodMTypeM1,
		UserType:   customerdomain.UserTypeConsumer,
		FiscalCode: "RSSMRA80A01H501U",
		Status:     requestdomain.StatusAdmissible,
	}
	if _, err := env.svc.UpsertAssociation(ctx, assoc); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected invalid status for association, got %v", err)
	}

	disassoc := &requestdomain.DisassociationRequest{
		CompanyID:  1,
		RequestID:  "DIS-1",
		Pod:        "IT001E00000001",
		Serial:     "SN-1",
		PodMType:   requestdomain.PodMTypeM1,
		UserType:   customerdomain.UserTypeConsumer,
		FiscalCode: "RSSMRA80A01H501U",
		Status:     requestdomain.StatusRefused,
	}
	if _, err := env.svc.UpsertDisassociation(ctx, disassoc); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected invalid status for disassociation, got %v", err)
	}

	// The per-stream sets still accept their own terminal statuses.
	disassoc.Status = requestdomain.StatusDisassociated
	if _, err := env.svc.UpsertDisassociation(ctx, disassoc); err != nil {
		t.Fatalf("expected disassociated accepted, got %v", err)
	}
}

func TestUpsertPermissionGating(t *testing.T) {
	env := setupRequestTest(t)
	// Admissibility flag only; association stream stays locked.
	env.insertCompany(t, 1, companydomain.CompanyPermissions{
		ConfigurazioneAmmissibilita: true,
		Monitoraggio:                true,
	})
	ctx := context.Background()

	adm := &requestdomain.AdmissibilityRequest{
		CompanyID:  1,
		RequestID:  "ADM-1",
		Pod:        "IT001E00000001",
		FiscalCode: "RSSMRA80A01H501U",
		Status:     requestdomain.StatusPending,
	}
	if _, err := env.svc.UpsertAdmissibility(ctx, adm); err != nil {
		t.Fatalf("expected admissibility allowed, got %v", err)
	}

	assoc := &requestdomain.AssociationRequest{
		CompanyID:  1,
		RequestID:  "ASSOC-1",
		Pod:        "IT001E00000001",
		Serial:     "SN-1",
		PodMType:   requestdomain.PodMTypeM1,
		UserType:   customerdomain.UserTypeConsumer,
		FiscalCode: "RSSMRA80A01H501U",
		Status:     requestdomain.StatusPending,
	}
	_, err := env.svc.UpsertAssociation(ctx, assoc)
	var authErr *authorization.AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
	if authErr.Permission != companydomain.PermConfigurazioneAssociazione {
		t.Fatalf("expected association permission in error, got %s", authErr.Permission)
	}

	disassoc := &requestdomain.DisassociationRequest{
		CompanyID:  1,
		RequestID:  "DIS-1",
		Pod:        "IT001E00000001",
		Serial:     "SN-1",
		PodMType:   requestdomain.PodMTypeM1,
		UserType:   customerdomain.UserTypeConsumer,
		FiscalCode: "RSSMRA80A01H501U",
		Status:     requestdomain.StatusPending,
	}
	if _, err := env.svc.UpsertDisassociation(ctx, disassoc); !errors.As(err, &authErr) {
		t.Fatalf("expected AuthorizationError for disassociation, got %v", err)
	}
}

func TestUpsertAssociationSeedsCustomerFields(t *testing.T) {
	env := setupRequestTest(t)
	env.insertCompany(t, 1, allPerms())

	assoc := &requestdomain.AssociationRequest{
		CompanyID:  1,
		RequestID:  "ASSOC-1",
		Pod:        "IT001E00000001",
		Serial:     "SN-1",
		PodMType:   requestdomain.PodMTypeM1,
		UserType:   customerdomain.UserTypeConsumer,
		FiscalCode: "RSSMRA80A01H501U",
		FirstName:  "Mario",
		LastName:   "Rossi",
		Email:      "mario.rossi@example.com",
		Status:     requestdomain.StatusAssociated,
	}
	if _, err := env.svc.UpsertAssociation(context.Background(), assoc); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var customer customerdomain.Customer
	if err := env.db.First(&customer, "id = ?", *assoc.CustomerID).Error; err != nil {
		t.Fatalf("load customer: %v", err)
	}
	if customer.FirstName != "Mario" || customer.LastName != "Rossi" {
		t.Fatalf("expected seeded names, got %q %q", customer.FirstName, customer.LastName)
	}
	if customer.UserType != customerdomain.UserTypeConsumer {
		t.Fatalf("expected user type seeded, got %q", customer.UserType)
	}
}

func TestDeleteRecomputesAndScopesByCompany(t *testing.T) {
	env := setupRequestTest(t)
	env.insertCompany(t, 1, allPerms())
	env.insertCompany(t, 2, allPerms())
	ctx := context.Background()

	req := &requestdomain.AdmissibilityRequest{
		CompanyID:  1,
		RequestID:  "ADM-1",
		Pod:        "IT001E00000001",
		FiscalCode: "RSSMRA80A01H501U",
		Status:     requestdomain.StatusPending,
	}
	if _, err := env.svc.UpsertAdmissibility(ctx, req); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Another company cannot delete it.
	if err := env.svc.DeleteAdmissibility(ctx, 2, req.ID); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected not found for foreign company, got %v", err)
	}

	before := len(env.recomputer.keys)
	if err := env.svc.DeleteAdmissibility(ctx, 1, req.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(env.recomputer.keys) != before+1 {
		t.Fatalf("expected recompute after delete")
	}

	if err := env.svc.DeleteAdmissibility(ctx, 1, req.ID); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestDeleteAssociationAndDisassociation(t *testing.T) {
	env := setupRequestTest(t)
	env.insertCompany(t, 1, allPerms())
	ctx := context.Background()

	assoc := &requestdomain.AssociationRequest{
		CompanyID:  1,
		RequestID:  "ASSOC-1",
		Pod:        "IT001E00000001",
		Serial:     "SN-1",
		PodMType:   requestdomain.PodMTypeM1,
		UserType:   customerdomain.UserTypeConsumer,
		FiscalCode: "RSSMRA80A01H501U",
		Status:     requestdomain.StatusAssociated,
	}
	if _, err := env.svc.UpsertAssociation(ctx, assoc); err != nil {
		t.Fatalf("upsert association: %v", err)
	}
	if err := env.svc.DeleteAssociation(ctx, 1, assoc.ID); err != nil {
		t.Fatalf("delete association: %v", err)
	}
	if err := env.svc.DeleteAssociation(ctx, 1, assoc.ID); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	disassoc := &requestdomain.DisassociationRequest{
		CompanyID:  1,
		RequestID:  "DIS-1",
		Pod:        "IT001E00000001",
		Serial:     "SN-1",
		PodMType:   requestdomain.PodMTypeM1,
		UserType:   customerdomain.UserTypeConsumer,
		FiscalCode: "RSSMRA80A01H501U",
		Status:     requestdomain.StatusPending,
	}
	if _, err := env.svc.UpsertDisassociation(ctx, disassoc); err != nil {
		t.Fatalf("upsert disassociation: %v", err)
	}
	if err := env.svc.DeleteDisassociation(ctx, 1, disassoc.ID); err != nil {
		t.Fatalf("delete disassociation: %v", err)
	}
	if err := env.svc.DeleteDisassociation(ctx, 1, disassoc.ID); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
