// Package authorization is the gate in front of every cross-company POD read.
package authorization

import (
	"context"

	"github.com/bwmarrin/snowflake"

	companydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/company/domain"
)

// Service answers "can company C act on POD set P with capability X?".
type Service interface {
	// GetAuthorizedPods lists the active POD codes a company may access.
	// An inactive company yields an empty list, not an error.
	GetAuthorizedPods(ctx context.Context, companyID snowflake.ID) ([]string, error)

	// ValidatePodAccess checks all requested PODs at once. If any POD is not
	// authorized the whole request fails with a *DataAccessError listing the
	// offending PODs; no partial subset is returned on failure.
	ValidatePodAccess(ctx context.Context, companyID snowflake.ID, podIDs []string) ([]string, error)

	// CheckCompanyPermission verifies a single capability flag, returning a
	// *AuthorizationError when the flag is off.
	CheckCompanyPermission(ctx context.Context, companyID snowflake.ID, permission companydomain.Permission) error

	// ValidateCompanyAndPermission combines the permission check with POD
	// access validation. With no podIDs it returns every authorized POD.
	ValidateCompanyAndPermission(ctx context.Context, companyID snowflake.ID, permission companydomain.Permission, podIDs []string) ([]string, error)

	// CompaniesWithPermission lists active companies holding a capability.
	CompaniesWithPermission(ctx context.Context, permission companydomain.Permission) ([]companydomain.Company, error)

	// InvalidateCompany drops any cached authorization state for a company.
	InvalidateCompany(companyID snowflake.ID)
}
