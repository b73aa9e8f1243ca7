package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository provides persistence for companies, permission rows and POD
// authorizations. Methods take the database handle explicitly so callers can
// run them inside an existing transaction.
type Repository interface {
	FindCompany(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Company, error)

	// PermissionsFor returns nil when the company has no permissions row.
	PermissionsFor(ctx context.Context, db *gorm.DB, companyID snowflake.ID) (*CompanyPermissions, error)
	SetPermissions(ctx context.Context, db *gorm.DB, perms *CompanyPermissions) error
	CompaniesWithPermission(ctx context.Context, db *gorm.DB, perm Permission) ([]Company, error)

	// AuthorizedPods returns the active POD codes granted to a company.
	AuthorizedPods(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]string, error)
	UpsertPodAuthorization(ctx context.Context, db *gorm.DB, auth *PodAuthorization) error
	SetPodAuthorizationActive(ctx context.Context, db *gorm.DB, companyID snowflake.ID, podCode string, active bool) error
}
