package authorization

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/cache"
	companydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/company/domain"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/config"
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	CompanyRepo companydomain.Repository
	PodCache    cache.Cache[int64, []string]
	Config      config.Config
}

// ServiceImpl is the gorm-backed authorization gate. Read-only: it never
// mutates authorization state, only reads and logs grants/denials.
type ServiceImpl struct {
	db          *gorm.DB
	log         *zap.Logger
	companyRepo companydomain.Repository
	podCache    cache.Cache[int64, []string]
	cacheTTL    time.Duration
}

func NewService(p ServiceParam) Service {
	return &ServiceImpl{
		db:          p.DB,
		log:         p.Log.Named("authorization.service"),
		companyRepo: p.CompanyRepo,
		podCache:    p.PodCache,
		cacheTTL:    p.Config.AuthzTTL,
	}
}

func (s *ServiceImpl) GetAuthorizedPods(ctx context.Context, companyID snowflake.ID) ([]string, error) {
	company, err := s.requireCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !company.Active {
		s.log.Warn("authorized pods requested for inactive company",
			zap.String("company_id", companyID.String()),
			zap.String("company", company.Name))
		return []string{}, nil
	}

	if pods, ok := s.podCache.Get(int64(companyID)); ok {
		return pods, nil
	}

	pods, err := s.companyRepo.AuthorizedPods(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}
	s.podCache.Set(int64(companyID), pods, s.cacheTTL)

	s.log.Info("authorized pods retrieved",
		zap.String("company_id", companyID.String()),
		zap.String("company", company.Name),
		zap.Int("count", len(pods)))
	return pods, nil
}

func (s *ServiceImpl) ValidatePodAccess(ctx context.Context, companyID snowflake.ID, podIDs []string) ([]string, error) {
	requested := normalizePods(podIDs)
	if len(requested) == 0 {
		return nil, ErrMissingPods
	}

	company, err := s.requireCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !company.Active {
		s.log.Warn("pod access denied for inactive company",
			zap.String("company_id", companyID.String()),
			zap.String("company", company.Name))
		return nil, &DataAccessError{
			CompanyID: companyID,
			PodIDs:    requested,
			Reason:    fmt.Sprintf("company %q is inactive and cannot access any PODs", company.Name),
		}
	}

	authorized, err := s.GetAuthorizedPods(ctx, companyID)
	if err != nil {
		return nil, err
	}

	authorizedSet := make(map[string]struct{}, len(authorized))
	for _, pod := range authorized {
		authorizedSet[pod] = struct{}{}
	}

	var unauthorized []string
	for _, pod := range requested {
		if _, ok := authorizedSet[pod]; !ok {
			unauthorized = append(unauthorized, pod)
		}
	}

	// All-or-nothing: one unauthorized POD fails the whole request.
	if len(unauthorized) > 0 {
		s.log.Warn("pod access denied",
			zap.String("company_id", companyID.String()),
			zap.String("company", company.Name),
			zap.Strings("unauthorized_pods", unauthorized))
		return nil, &DataAccessError{CompanyID: companyID, PodIDs: unauthorized}
	}

	s.log.Info("pod access granted",
		zap.String("company_id", companyID.String()),
		zap.String("company", company.Name),
		zap.Int("pod_count", len(requested)))
	return requested, nil
}

func (s *ServiceImpl) CheckCompanyPermission(ctx context.Context, companyID snowflake.ID, permission companydomain.Permission) error {
	perm, err := companydomain.ParsePermission(string(permission))
	if err != nil {
		return err
	}

	company, err := s.requireCompany(ctx, companyID)
	if err != nil {
		return err
	}
	if !company.Active {
		s.log.Warn("permission denied for inactive company",
			zap.String("company_id", companyID.String()),
			zap.String("company", company.Name),
			zap.String("permission", string(perm)))
		return &AuthorizationError{
			CompanyID:  companyID,
			Permission: perm,
			Reason:     fmt.Sprintf("company %q is inactive and cannot access any features", company.Name),
		}
	}

	perms, err := s.companyRepo.PermissionsFor(ctx, s.db, companyID)
	if err != nil {
		return err
	}
	if perms == nil {
		// No row: monitoring-only default vector.
		vector := companydomain.DefaultPermissions(companyID)
		perms = &vector
	}

	granted, err := perms.Has(perm)
	if err != nil {
		return err
	}
	if !granted {
		s.log.Warn("permission denied",
			zap.String("company_id", companyID.String()),
			zap.String("company", company.Name),
			zap.String("permission", string(perm)))
		return &AuthorizationError{CompanyID: companyID, Permission: perm}
	}

	s.log.Info("permission granted",
		zap.String("company_id", companyID.String()),
		zap.String("company", company.Name),
		zap.String("permission", string(perm)))
	return nil
}

func (s *ServiceImpl) ValidateCompanyAndPermission(ctx context.Context, companyID snowflake.ID, permission companydomain.Permission, podIDs []string) ([]string, error) {
	if err := s.CheckCompanyPermission(ctx, companyID, permission); err != nil {
		return nil, err
	}
	if len(podIDs) > 0 {
		return s.ValidatePodAccess(ctx, companyID, podIDs)
	}
	return s.GetAuthorizedPods(ctx, companyID)
}

func (s *ServiceImpl) CompaniesWithPermission(ctx context.Context, permission companydomain.Permission) ([]companydomain.Company, error) {
	perm, err := companydomain.ParsePermission(string(permission))
	if err != nil {
		return nil, err
	}
	return s.companyRepo.CompaniesWithPermission(ctx, s.db, perm)
}

func (s *ServiceImpl) InvalidateCompany(companyID snowflake.ID) {
	s.podCache.Delete(int64(companyID))
}

func (s *ServiceImpl) requireCompany(ctx context.Context, companyID snowflake.ID) (*companydomain.Company, error) {
	if companyID == 0 {
		return nil, ErrInvalidCompany
	}
	company, err := s.companyRepo.FindCompany(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrInvalidCompany
	}
	return company, nil
}

func normalizePods(podIDs []string) []string {
	seen := make(map[string]struct{}, len(podIDs))
	out := make([]string, 0, len(podIDs))
	for _, pod := range podIDs {
		pod = strings.TrimSpace(pod)
		if pod == "" {
			continue
		}
		if _, dup := seen[pod]; dup {
			continue
		}
		seen[pod] = struct{}{}
		out = append(out, pod)
	}
	return out
}
