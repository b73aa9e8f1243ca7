// Package service implements find-or-create customer management and the
// per-customer footprint stats.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	customerdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/customer/domain"
	devicedomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/device/domain"
	requestdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/request/domain"
)

var (
	ErrMissingFiscalCode = errors.New("fiscal_code is required")
	ErrCustomerNotFound  = errors.New("customer not found")
)

// Service manages customers keyed by (fiscal_code, company).
type Service interface {
	// FindOrCreate returns the existing customer for the fiscal code or
	// creates one seeded from request data. The db handle is explicit so
	// batch sync can call it inside its own transaction.
	FindOrCreate(ctx context.Context, db *gorm.DB, companyID snowflake.ID, fiscalCode string, seed customerdomain.Seed) (*customerdomain.Customer, bool, error)

	Get(ctx context.Context, companyID, customerID snowflake.ID) (*customerdomain.Customer, error)
	List(ctx context.Context, companyID snowflake.ID) ([]customerdomain.Customer, error)

	// Stats aggregates the customer's requests, devices and association state.
	Stats(ctx context.Context, companyID, customerID snowflake.ID) (*customerdomain.Stats, error)

	// Delete removes the customer and its POD summaries.
	Delete(ctx context.Context, companyID, customerID snowflake.ID) error
}

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	CustomerRepo customerdomain.Repository
	RequestRepo  requestdomain.Repository
	DeviceRepo   devicedomain.Repository
}

type ServiceImpl struct {
	db           *gorm.DB
	log          *zap.Logger
	customerRepo customerdomain.Repository
	requestRepo  requestdomain.Repository
	deviceRepo   devicedomain.Repository
}

func NewService(p ServiceParam) Service {
	return &ServiceImpl{
		db:           p.DB,
		log:          p.Log.Named("customer.service"),
		customerRepo: p.CustomerRepo,
		requestRepo:  p.RequestRepo,
		deviceRepo:   p.DeviceRepo,
	}
}

func (s *ServiceImpl) FindOrCreate(ctx context.Context, db *gorm.DB, companyID snowflake.ID, fiscalCode string, seed customerdomain.Seed) (*customerdomain.Customer, bool, error) {
	fiscalCode = strings.ToUpper(strings.TrimSpace(fiscalCode))
	if fiscalCode == "" {
		return nil, false, ErrMissingFiscalCode
	}
	if db == nil {
		db = s.db
	}

	existing, err := s.customerRepo.FindByFiscalCode(ctx, db, companyID, fiscalCode)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if fillMissing(existing, seed) {
			if err := s.customerRepo.Update(ctx, db, existing); err != nil {
				return nil, false, err
			}
		}
		return existing, false, nil
	}

	customer := &customerdomain.Customer{
		CompanyID:  companyID,
		FiscalCode: fiscalCode,
		FirstName:  strings.TrimSpace(seed.FirstName),
		LastName:   strings.TrimSpace(seed.LastName),
		Email:      strings.TrimSpace(seed.Email),
		Phone:      strings.TrimSpace(seed.Phone),
		UserType:   strings.TrimSpace(seed.UserType),
		Group:      strings.TrimSpace(seed.Group),
	}
	if err := s.customerRepo.Create(ctx, db, customer); err != nil {
		return nil, false, err
	}

	s.log.Info("customer created",
		zap.String("company_id", companyID.String()),
		zap.String("fiscal_code", fiscalCode))
	return customer, true, nil
}

func (s *ServiceImpl) Get(ctx context.Context, companyID, customerID snowflake.ID) (*customerdomain.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, s.db, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil || customer.CompanyID != companyID {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

func (s *ServiceImpl) List(ctx context.Context, companyID snowflake.ID) ([]customerdomain.Customer, error) {
	return s.customerRepo.ListByCompany(ctx, s.db, companyID)
}

func (s *ServiceImpl) Stats(ctx context.Context, companyID, customerID snowflake.ID) (*customerdomain.Stats, error) {
	customer, err := s.Get(ctx, companyID, customerID)
	if err != nil {
		return nil, err
	}

	admiss, err := s.requestRepo.ListAdmissibilityByCompany(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}
	assoc, err := s.requestRepo.ListAssociationByCompany(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}
	disassoc, err := s.requestRepo.ListDisassociationByCompany(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}

	stats := &customerdomain.Stats{}
	var latest time.Time
	pods := make(map[string]struct{})

	for _, req := range admiss {
		if req.FiscalCode != customer.FiscalCode {
			continue
		}
		stats.AdmissibilityCount++
		if req.CreatedAt.After(latest) {
			latest = req.CreatedAt
		}
	}

	var associated, disassociated int64
	for _, req := range assoc {
		if req.FiscalCode != customer.FiscalCode {
			continue
		}
		stats.AssociationCount++
		pods[req.Pod] = struct{}{}
		if req.Status == requestdomain.StatusAssociated || req.Status == requestdomain.StatusTakenInCharge {
			associated++
		}
		if req.CreatedAt.After(latest) {
			latest = req.CreatedAt
		}
	}
	for _, req := range disassoc {
		if req.FiscalCode != customer.FiscalCode {
			continue
		}
		stats.DisassociationCount++
		if req.Status == requestdomain.StatusDisassociated {
			disassociated++
		}
		if req.CreatedAt.After(latest) {
			latest = req.CreatedAt
		}
	}

	// Active when confirmed associations outnumber completed disassociations.
	stats.HasActiveAssociations = associated > disassociated

	if len(pods) > 0 {
		podList := make([]string, 0, len(pods))
		for pod := range pods {
			podList = append(podList, pod)
		}
		devices, err := s.deviceRepo.SearchByPods(ctx, s.db, companyID, podList)
		if err != nil {
			return nil, err
		}
		stats.DeviceCount = int64(len(devices))
	}

	if !latest.IsZero() {
		stats.LatestRequestDate = &latest
	}
	return stats, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, companyID, customerID snowflake.ID) error {
	customer, err := s.Get(ctx, companyID, customerID)
	if err != nil {
		return err
	}
	if err := s.customerRepo.Delete(ctx, s.db, customer.ID); err != nil {
		return err
	}
	s.log.Info("customer deleted",
		zap.String("company_id", companyID.String()),
		zap.String("fiscal_code", customer.FiscalCode))
	return nil
}

func fillMissing(customer *customerdomain.Customer, seed customerdomain.Seed) bool {
	changed := false
	set := func(dst *string, src string) {
		src = strings.TrimSpace(src)
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}
	set(&customer.FirstName, seed.FirstName)
	set(&customer.LastName, seed.LastName)
	set(&customer.Email, seed.Email)
	set(&customer.Phone, seed.Phone)
	set(&customer.UserType, seed.UserType)
	set(&customer.Group, seed.Group)
	return changed
}
