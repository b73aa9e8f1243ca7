// Package service ingests Chain2Gate request records, links them to
// customers, and keeps POD summaries in sync on every mutation.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/authorization"
	companydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/company/domain"
	customerdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/customer/domain"
	customerservice "github.com/spagnoll1andre/novaflow-tada-delivery/internal/customer/service"
	requestdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/request/domain"
)

var (
	ErrMissingRequestID  = errors.New("request_id is required")
	ErrMissingPod        = errors.New("pod is required")
	ErrMissingSerial     = errors.New("serial is required")
	ErrMissingFiscalCode = errors.New("fiscal_code is required")
	ErrInvalidStatus     = errors.New("invalid request status")
	ErrRequestNotFound   = errors.New("request not found")
)

// Each stream accepts only its own statuses; a status from another stream
// would land the derived summary in the unmapped fallback.
var (
	admissibilityStatuses = map[string]struct{}{
		requestdomain.StatusPending:       {},
		requestdomain.StatusAwaiting:      {},
		requestdomain.StatusAdmissible:    {},
		requestdomain.StatusNotAdmissible: {},
		requestdomain.StatusRefused:       {},
	}
	associationStatuses = map[string]struct{}{
		requestdomain.StatusPending:       {},
		requestdomain.StatusAwaiting:      {},
		requestdomain.StatusAssociated:    {},
		requestdomain.StatusTakenInCharge: {},
		requestdomain.StatusRefused:       {},
	}
	disassociationStatuses = map[string]struct{}{
		requestdomain.StatusPending:       {},
		requestdomain.StatusAwaiting:      {},
		requestdomain.StatusDisassociated: {},
	}
)

// Service is the write path for the three request streams. Every mutation
// re-derives the affected POD summary.
type Service interface {
	UpsertAdmissibility(ctx context.Context, req *requestdomain.AdmissibilityRequest) (created bool, err error)
	UpsertAssociation(ctx context.Context, req *requestdomain.AssociationRequest) (created bool, err error)
	UpsertDisassociation(ctx context.Context, req *requestdomain.DisassociationRequest) (created bool, err error)

	DeleteAdmissibility(ctx context.Context, companyID, id snowflake.ID) error
	DeleteAssociation(ctx context.Context, companyID, id snowflake.ID) error
	DeleteDisassociation(ctx context.Context, companyID, id snowflake.ID) error

	ListAdmissibility(ctx context.Context, companyID snowflake.ID) ([]requestdomain.AdmissibilityRequest, error)
	ListAssociation(ctx context.Context, companyID snowflake.ID) ([]requestdomain.AssociationRequest, error)
	ListDisassociation(ctx context.Context, companyID snowflake.ID) ([]requestdomain.DisassociationRequest, error)
}

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	RequestRepo requestdomain.Repository
	Customers   customerservice.Service
	Authz       authorization.Service
	Recomputer  requestdomain.SummaryRecomputer `optional:"true"`
}

type ServiceImpl struct {
	db          *gorm.DB
	log         *zap.Logger
	requestRepo requestdomain.Repository
	customers   customerservice.Service
	authz       authorization.Service
	recomputer  requestdomain.SummaryRecomputer
}

func NewService(p ServiceParam) Service {
	return &ServiceImpl{
		db:          p.DB,
		log:         p.Log.Named("request.service"),
		requestRepo: p.RequestRepo,
		customers:   p.Customers,
		authz:       p.Authz,
		recomputer:  p.Recomputer,
	}
}

func (s *ServiceImpl) UpsertAdmissibility(ctx context.Context, req *requestdomain.AdmissibilityRequest) (bool, error) {
	if err := validateCommon(req.RequestID, req.Pod, req.FiscalCode, req.Status, admissibilityStatuses); err != nil {
		return false, err
	}
	if err := s.authz.CheckCompanyPermission(ctx, req.CompanyID, companydomain.PermConfigurazioneAmmissibilita); err != nil {
		return false, err
	}
	if err := s.linkCustomer(ctx, req.CompanyID, req.FiscalCode, customerdomain.Seed{Group: req.Group}, &req.CustomerID); err != nil {
		return false, err
	}

	created, err := s.requestRepo.CreateOrUpdateAdmissibility(ctx, s.db, req)
	if err != nil {
		return false, err
	}
	s.logMutation(requestdomain.StreamAdmissibility, req.RequestID, req.Pod, req.Status, created)
	s.recompute(ctx, requestdomain.StreamKey{CompanyID: req.CompanyID, Pod: req.Pod, FiscalCode: req.FiscalCode})
	return created, nil
}

func (s *ServiceImpl) UpsertAssociation(ctx context.Context, req *requestdomain.AssociationRequest) (bool, error) {
	if err := validateCommon(req.RequestID, req.Pod, req.FiscalCode, req.Status, associationStatuses); err != nil {
		return false, err
	}
	if strings.TrimSpace(req.Serial) == "" {
		return false, ErrMissingSerial
	}
	if err := s.authz.CheckCompanyPermission(ctx, req.CompanyID, companydomain.PermConfigurazioneAssociazione); err != nil {
		return false, err
	}
	seed := customerdomain.Seed{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		UserType:  req.UserType,
		Group:     req.Group,
	}
	if err := s.linkCustomer(ctx, req.CompanyID, req.FiscalCode, seed, &req.CustomerID); err != nil {
		return false, err
	}

	created, err := s.requestRepo.CreateOrUpdateAssociation(ctx, s.db, req)
	if err != nil {
		return false, err
	}
	s.logMutation(requestdomain.StreamAssociation, req.RequestID, req.Pod, req.Status, created)
	s.recompute(ctx, requestdomain.StreamKey{CompanyID: req.CompanyID, Pod: req.Pod, FiscalCode: req.FiscalCode})
	return created, nil
}

func (s *ServiceImpl) UpsertDisassociation(ctx context.Context, req *requestdomain.DisassociationRequest) (bool, error) {
	if err := validateCommon(req.RequestID, req.Pod, req.FiscalCode, req.Status, disassociationStatuses); err != nil {
		return false, err
	}
	if strings.TrimSpace(req.Serial) == "" {
		return false, ErrMissingSerial
	}
	if err := s.authz.CheckCompanyPermission(ctx, req.CompanyID, companydomain.PermConfigurazioneAssociazione); err != nil {
		return false, err
	}
	seed := customerdomain.Seed{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		UserType:  req.UserType,
		Group:     req.Group,
	}
	if err := s.linkCustomer(ctx, req.CompanyID, req.FiscalCode, seed, &req.CustomerID); err != nil {
		return false, err
	}

	created, err := s.requestRepo.CreateOrUpdateDisassociation(ctx, s.db, req)
	if err != nil {
		return false, err
	}
	s.logMutation(requestdomain.StreamDisassociation, req.RequestID, req.Pod, req.Status, created)
	s.recompute(ctx, requestdomain.StreamKey{CompanyID: req.CompanyID, Pod: req.Pod, FiscalCode: req.FiscalCode})
	return created, nil
}

func (s *ServiceImpl) DeleteAdmissibility(ctx context.Context, companyID, id snowflake.ID) error {
	deleted, err := s.requestRepo.DeleteAdmissibility(ctx, s.companyScoped(companyID), id)
	if err != nil {
		return err
	}
	if deleted == nil {
		return ErrRequestNotFound
	}
	s.recompute(ctx, requestdomain.StreamKey{CompanyID: deleted.CompanyID, Pod: deleted.Pod, FiscalCode: deleted.FiscalCode})
	return nil
}

func (s *ServiceImpl) DeleteAssociation(ctx context.Context, companyID, id snowflake.ID) error {
	deleted, err := s.requestRepo.DeleteAssociation(ctx, s.companyScoped(companyID), id)
	if err != nil {
		return err
	}
	if deleted == nil {
		return ErrRequestNotFound
	}
	s.recompute(ctx, requestdomain.StreamKey{CompanyID: deleted.CompanyID, Pod: deleted.Pod, FiscalCode: deleted.FiscalCode})
	return nil
}

func (s *ServiceImpl) DeleteDisassociation(ctx context.Context, companyID, id snowflake.ID) error {
	deleted, err := s.requestRepo.DeleteDisassociation(ctx, s.companyScoped(companyID), id)
	if err != nil {
		return err
	}
	if deleted == nil {
		return ErrRequestNotFound
	}
	s.recompute(ctx, requestdomain.StreamKey{CompanyID: deleted.CompanyID, Pod: deleted.Pod, FiscalCode: deleted.FiscalCode})
	return nil
}

func (s *ServiceImpl) ListAdmissibility(ctx context.Context, companyID snowflake.ID) ([]requestdomain.AdmissibilityRequest, error) {
	return s.requestRepo.ListAdmissibilityByCompany(ctx, s.db, companyID)
}

func (s *ServiceImpl) ListAssociation(ctx context.Context, companyID snowflake.ID) ([]requestdomain.AssociationRequest, error) {
	return s.requestRepo.ListAssociationByCompany(ctx, s.db, companyID)
}

func (s *ServiceImpl) ListDisassociation(ctx context.Context, companyID snowflake.ID) ([]requestdomain.DisassociationRequest, error) {
	return s.requestRepo.ListDisassociationByCompany(ctx, s.db, companyID)
}

func (s *ServiceImpl) linkCustomer(ctx context.Context, companyID snowflake.ID, fiscalCode string, seed customerdomain.Seed, target **snowflake.ID) error {
	customer, _, err := s.customers.FindOrCreate(ctx, s.db, companyID, fiscalCode, seed)
	if err != nil {
		return err
	}
	id := customer.ID
	*target = &id
	return nil
}

// recompute re-derives the summary for the mutated key. Derivation failures
// never fail the request write; the batch refresh catches up later.
func (s *ServiceImpl) recompute(ctx context.Context, key requestdomain.StreamKey) {
	if s.recomputer == nil {
		return
	}
	if err := s.recomputer.RecomputeForRequest(ctx, key); err != nil {
		s.log.Warn("summary recompute failed",
			zap.String("company_id", key.CompanyID.String()),
			zap.String("pod", key.Pod),
			zap.String("fiscal_code", key.FiscalCode),
			zap.Error(err))
	}
}

func (s *ServiceImpl) companyScoped(companyID snowflake.ID) *gorm.DB {
	return s.db.Where("company_id = ?", companyID)
}

func (s *ServiceImpl) logMutation(stream, requestID, pod, status string, created bool) {
	verb := "request updated"
	if created {
		verb = "request created"
	}
	s.log.Info(verb,
		zap.String("stream", stream),
		zap.String("request_id", requestID),
		zap.String("pod", pod),
		zap.String("status", status))
}

func validateCommon(requestID, pod, fiscalCode, status string, valid map[string]struct{}) error {
	if strings.TrimSpace(requestID) == "" {
		return ErrMissingRequestID
	}
	if strings.TrimSpace(pod) == "" {
		return ErrMissingPod
	}
	if strings.TrimSpace(fiscalCode) == "" {
		return ErrMissingFiscalCode
	}
	if _, ok := valid[status]; !ok {
		return ErrInvalidStatus
	}
	return nil
}
