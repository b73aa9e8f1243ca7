package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository provides read/write access to the three request streams.
// Search results are ordered newest-first by created_at: index 0 is the
// record that drives status derivation.
type Repository interface {
	SearchAdmissibility(ctx context.Context, db *gorm.DB, key StreamKey) ([]AdmissibilityRequest, error)
	SearchAssociation(ctx context.Context, db *gorm.DB, key StreamKey) ([]AssociationRequest, error)
	SearchDisassociation(ctx context.Context, db *gorm.DB, key StreamKey) ([]DisassociationRequest, error)

	ListAdmissibilityByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]AdmissibilityRequest, error)
	ListAssociationByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]AssociationRequest, error)
	ListDisassociationByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]DisassociationRequest, error)

	// CreateOrUpdate matches by request_id first, then by the stream's
	// business key (pod for admissibility, pod+serial otherwise).
	CreateOrUpdateAdmissibility(ctx context.Context, db *gorm.DB, req *AdmissibilityRequest) (created bool, err error)
	CreateOrUpdateAssociation(ctx context.Context, db *gorm.DB, req *AssociationRequest) (created bool, err error)
	CreateOrUpdateDisassociation(ctx context.Context, db *gorm.DB, req *DisassociationRequest) (created bool, err error)

	DeleteAdmissibility(ctx context.Context, db *gorm.DB, id snowflake.ID) (*AdmissibilityRequest, error)
	DeleteAssociation(ctx context.Context, db *gorm.DB, id snowflake.ID) (*AssociationRequest, error)
	DeleteDisassociation(ctx context.Context, db *gorm.DB, id snowflake.ID) (*DisassociationRequest, error)

	CountAdmissibilityByStatus(ctx context.Context, db *gorm.DB, companyID snowflake.ID, statuses []string) (int64, error)
	CountAssociationByStatus(ctx context.Context, db *gorm.DB, companyID snowflake.ID, statuses []string) (int64, error)
	CountDisassociationByStatus(ctx context.Context, db *gorm.DB, companyID snowflake.ID, statuses []string) (int64, error)
}

// SummaryRecomputer is the trigger hook fired after every create, update or
// delete of a request record. The POD summary aggregator implements it.
type SummaryRecomputer interface {
	RecomputeForRequest(ctx context.Context, key StreamKey) error
}
