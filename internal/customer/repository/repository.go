// Package repository implements the customer repository on gorm.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	customerdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/customer/domain"
)

type gormRepository struct{}

// New constructs the gorm-backed customer repository.
func New() customerdomain.Repository {
	return &gormRepository{}
}

func (r *gormRepository) FindByFiscalCode(ctx context.Context, db *gorm.DB, companyID snowflake.ID, fiscalCode string) (*customerdomain.Customer, error) {
	var customer customerdomain.Customer
	err := db.WithContext(ctx).
		Where("company_id = ? AND fiscal_code = ?", companyID, strings.ToUpper(strings.TrimSpace(fiscalCode))).
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *gormRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*customerdomain.Customer, error) {
	var customer customerdomain.Customer
	err := db.WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *gormRepository) Create(ctx context.Context, db *gorm.DB, customer *customerdomain.Customer) error {
	now := time.Now().UTC()
	customer.FiscalCode = strings.ToUpper(strings.TrimSpace(customer.FiscalCode))
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = now
	}
	customer.UpdatedAt = now
	return db.WithContext(ctx).Create(customer).Error
}

func (r *gormRepository) Update(ctx context.Context, db *gorm.DB, customer *customerdomain.Customer) error {
	customer.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Save(customer).Error
}

func (r *gormRepository) ListByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]customerdomain.Customer, error) {
	var customers []customerdomain.Customer
	err := db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("fiscal_code").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *gormRepository) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Summaries are owned by the customer and go with it.
		if err := tx.Exec(`DELETE FROM pod_summaries WHERE customer_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Delete(&customerdomain.Customer{}, "id = ?", id).Error
	})
}
