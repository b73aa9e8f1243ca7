package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository provides summary persistence. Methods take the database handle
// explicitly so recompute and batch sync can run inside their own
// transactions.
type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PodSummary, error)

	// FindByKey returns nil when the (pod, customer, company) triple has no
	// summary yet.
	FindByKey(ctx context.Context, db *gorm.DB, companyID snowflake.ID, podCode string, customerID snowflake.ID) (*PodSummary, error)

	// FindByPodAndFiscal locates the summaries a request mutation affects.
	FindByPodAndFiscal(ctx context.Context, db *gorm.DB, companyID snowflake.ID, podCode, fiscalCode string) ([]PodSummary, error)

	Create(ctx context.Context, db *gorm.DB, summary *PodSummary) error
	Update(ctx context.Context, db *gorm.DB, summary *PodSummary) error

	ListByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]PodSummary, error)

	// ListActive returns every summary not in customer_deleted, across all
	// companies, for the batch status refresh.
	ListActive(ctx context.Context, db *gorm.DB) ([]PodSummary, error)

	// CountByCompany counts summaries; with activeAssociations it counts only
	// those with a live device binding.
	CountByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID, activeAssociations bool) (int64, error)
}
