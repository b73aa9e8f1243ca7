package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository provides customer persistence. Methods take the database handle
// explicitly so batch jobs can run them inside their own transactions.
type Repository interface {
	// FindByFiscalCode returns nil when no customer exists for the pair.
	FindByFiscalCode(ctx context.Context, db *gorm.DB, companyID snowflake.ID, fiscalCode string) (*Customer, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
	Create(ctx context.Context, db *gorm.DB, customer *Customer) error
	Update(ctx context.Context, db *gorm.DB, customer *Customer) error
	ListByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]Customer, error)

	// Delete removes the customer and cascades to its POD summaries.
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
