// Package service assembles the per-company dashboard. PARTNER_ENERGIA gates
// the whole call; MONITORAGGIO and CONFIGURAZIONE_ASSOCIAZIONE gate their
// sections with graceful degradation.
package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/authorization"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/clock"
	companydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/company/domain"
	customerdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/customer/domain"
	dashboarddomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/dashboard/domain"
	devicedomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/device/domain"
	requestdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/request/domain"
)

// Service builds dashboard payloads.
type Service interface {
	GetDashboardData(ctx context.Context, companyID snowflake.ID) (*dashboarddomain.Data, error)
}

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Authz        authorization.Service
	Clock        clock.Clock
	DeviceRepo   devicedomain.Repository
	CustomerRepo customerdomain.Repository
	RequestRepo  requestdomain.Repository
}

type ServiceImpl struct {
	db           *gorm.DB
	log          *zap.Logger
	authz        authorization.Service
	clock        clock.Clock
	deviceRepo   devicedomain.Repository
	customerRepo customerdomain.Repository
	requestRepo  requestdomain.Repository
}

func NewService(p ServiceParam) Service {
	return &ServiceImpl{
		db:           p.DB,
		log:          p.Log.Named("dashboard.service"),
		authz:        p.Authz,
		clock:        p.Clock,
		deviceRepo:   p.DeviceRepo,
		customerRepo: p.CustomerRepo,
		requestRepo:  p.RequestRepo,
	}
}

func (s *ServiceImpl) GetDashboardData(ctx context.Context, companyID snowflake.ID) (*dashboarddomain.Data, error) {
	if err := s.authz.CheckCompanyPermission(ctx, companyID, companydomain.PermPartnerEnergia); err != nil {
		return nil, err
	}

	data := &dashboarddomain.Data{
		CompanyID:   companyID,
		GeneratedAt: s.clock.Now(),
	}

	if err := s.fillDevices(ctx, companyID, data); err != nil {
		return nil, err
	}
	if err := s.fillCustomers(ctx, companyID, data); err != nil {
		return nil, err
	}
	if err := s.fillRequests(ctx, companyID, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *ServiceImpl) fillDevices(ctx context.Context, companyID snowflake.ID, data *dashboarddomain.Data) error {
	if err := s.authz.CheckCompanyPermission(ctx, companyID, companydomain.PermMonitoraggio); err != nil {
		var authErr *authorization.AuthorizationError
		if errors.As(err, &authErr) {
			data.DevicesMessage = "device monitoring not authorized for this company"
			return nil
		}
		return err
	}

	total, err := s.deviceRepo.CountByCompany(ctx, s.db, companyID, false)
	if err != nil {
		return err
	}
	active, err := s.deviceRepo.CountByCompany(ctx, s.db, companyID, true)
	if err != nil {
		return err
	}
	online, err := s.deviceRepo.CountOnline(ctx, s.db, companyID)
	if err != nil {
		return err
	}
	data.Devices = &dashboarddomain.DeviceCounters{Total: total, Active: active, Online: online}
	return nil
}

func (s *ServiceImpl) fillCustomers(ctx context.Context, companyID snowflake.ID, data *dashboarddomain.Data) error {
	customers, err := s.customerRepo.ListByCompany(ctx, s.db, companyID)
	if err != nil {
		return err
	}
	associations, err := s.requestRepo.ListAssociationByCompany(ctx, s.db, companyID)
	if err != nil {
		return err
	}
	disassociations, err := s.requestRepo.ListDisassociationByCompany(ctx, s.db, companyID)
	if err != nil {
		return err
	}

	// A customer is active when confirmed associations outnumber completed
	// disassociations, keyed by fiscal code.
	associated := make(map[string]int)
	for _, req := range associations {
		if req.Status == requestdomain.StatusAssociated || req.Status == requestdomain.StatusTakenInCharge {
			associated[req.FiscalCode]++
		}
	}
	disassociated := make(map[string]int)
	for _, req := range disassociations {
		if req.Status == requestdomain.StatusDisassociated {
			disassociated[req.FiscalCode]++
		}
	}

	var withActive int64
	for _, customer := range customers {
		if associated[customer.FiscalCode] > disassociated[customer.FiscalCode] {
			withActive++
		}
	}

	data.Customers = dashboarddomain.CustomerCounters{
		Total:                  int64(len(customers)),
		WithActiveAssociations: withActive,
	}
	return nil
}

func (s *ServiceImpl) fillRequests(ctx context.Context, companyID snowflake.ID, data *dashboarddomain.Data) error {
	if err := s.authz.CheckCompanyPermission(ctx, companyID, companydomain.PermConfigurazioneAssociazione); err != nil {
		var authErr *authorization.AuthorizationError
		if errors.As(err, &authErr) {
			data.RequestsMessage = "request management not authorized for this company"
			return nil
		}
		return err
	}

	open := []string{requestdomain.StatusPending, requestdomain.StatusAwaiting}
	active := []string{requestdomain.StatusAssociated, requestdomain.StatusTakenInCharge}

	admissPending, err := s.requestRepo.CountAdmissibilityByStatus(ctx, s.db, companyID, open)
	if err != nil {
		return err
	}
	assocPending, err := s.requestRepo.CountAssociationByStatus(ctx, s.db, companyID, open)
	if err != nil {
		return err
	}
	assocActive, err := s.requestRepo.CountAssociationByStatus(ctx, s.db, companyID, active)
	if err != nil {
		return err
	}

	data.Requests = &dashboarddomain.RequestCounters{
		AdmissibilityPending: admissPending,
		AssociationPending:   assocPending,
		AssociationActive:    assocActive,
	}
	return nil
}
