// Package repository implements the POD summary repository on gorm.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	podsummarydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/podsummary/domain"
)

type gormRepository struct {
	genID *snowflake.Node
}

// New constructs the gorm-backed summary repository.
func New(genID *snowflake.Node) podsummarydomain.Repository {
	return &gormRepository{genID: genID}
}

func (r *gormRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*podsummarydomain.PodSummary, error) {
	var summary podsummarydomain.PodSummary
	err := db.WithContext(ctx).Where("id = ?", id).First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}

func (r *gormRepository) FindByKey(ctx context.Context, db *gorm.DB, companyID snowflake.ID, podCode string, customerID snowflake.ID) (*podsummarydomain.PodSummary, error) {
	var summary podsummarydomain.PodSummary
	err := db.WithContext(ctx).
		Where("company_id = ? AND pod_code = ? AND customer_id = ?", companyID, strings.TrimSpace(podCode), customerID).
		First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}

func (r *gormRepository) FindByPodAndFiscal(ctx context.Context, db *gorm.DB, companyID snowflake.ID, podCode, fiscalCode string) ([]podsummarydomain.PodSummary, error) {
	var summaries []podsummarydomain.PodSummary
	err := db.WithContext(ctx).
		Where("company_id = ? AND pod_code = ? AND customer_fiscal_code = ?",
			companyID, strings.TrimSpace(podCode), strings.ToUpper(strings.TrimSpace(fiscalCode))).
		Find(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *gormRepository) Create(ctx context.Context, db *gorm.DB, summary *podsummarydomain.PodSummary) error {
	now := time.Now().UTC()
	summary.PodCode = strings.TrimSpace(summary.PodCode)
	summary.CustomerFiscalCode = strings.ToUpper(strings.TrimSpace(summary.CustomerFiscalCode))
	if summary.ID == 0 {
		summary.ID = r.genID.Generate()
	}
	if summary.Status == "" {
		summary.Status = podsummarydomain.StatusCustomerCreated
	}
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = now
	}
	summary.UpdatedAt = now
	return db.WithContext(ctx).Create(summary).Error
}

func (r *gormRepository) Update(ctx context.Context, db *gorm.DB, summary *podsummarydomain.PodSummary) error {
	summary.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Save(summary).Error
}

func (r *gormRepository) ListByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]podsummarydomain.PodSummary, error) {
	var summaries []podsummarydomain.PodSummary
	err := db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("pod_code").
		Find(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *gormRepository) ListActive(ctx context.Context, db *gorm.DB) ([]podsummarydomain.PodSummary, error) {
	var summaries []podsummarydomain.PodSummary
	err := db.WithContext(ctx).
		Where("status <> ?", podsummarydomain.StatusCustomerDeleted).
		Order("id").
		Find(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *gormRepository) CountByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID, activeAssociations bool) (int64, error) {
	q := db.WithContext(ctx).Model(&podsummarydomain.PodSummary{}).Where("company_id = ?", companyID)
	if activeAssociations {
		q = q.Where("has_active_associations = ?", true)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
