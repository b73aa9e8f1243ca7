// Package repository implements the request-stream repository on gorm.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	requestdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/request/domain"
)

type gormRepository struct {
	genID *snowflake.Node
}

// New constructs the gorm-backed request repository.
func New(genID *snowflake.Node) requestdomain.Repository {
	return &gormRepository{genID: genID}
}

func streamQuery(ctx context.Context, db *gorm.DB, key requestdomain.StreamKey) *gorm.DB {
	return db.WithContext(ctx).
		Where("company_id = ? AND pod = ? AND fiscal_code = ?", key.CompanyID, key.Pod, key.FiscalCode).
		Order("created_at DESC")
}

func (r *gormRepository) SearchAdmissibility(ctx context.Context, db *gorm.DB, key requestdomain.StreamKey) ([]requestdomain.AdmissibilityRequest, error) {
	var out []requestdomain.AdmissibilityRequest
	if err := streamQuery(ctx, db, key).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gormRepository) SearchAssociation(ctx context.Context, db *gorm.DB, key requestdomain.StreamKey) ([]requestdomain.AssociationRequest, error) {
	var out []requestdomain.AssociationRequest
	if err := streamQuery(ctx, db, key).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gormRepository) SearchDisassociation(ctx context.Context, db *gorm.DB, key requestdomain.StreamKey) ([]requestdomain.DisassociationRequest, error) {
	var out []requestdomain.DisassociationRequest
	if err := streamQuery(ctx, db, key).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func companyQuery(ctx context.Context, db *gorm.DB, companyID snowflake.ID) *gorm.DB {
	return db.WithContext(ctx).
		Where("company_id = ? AND pod <> '' AND fiscal_code <> ''", companyID).
		Order("created_at DESC")
}

func (r *gormRepository) ListAdmissibilityByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]requestdomain.AdmissibilityRequest, error) {
	var out []requestdomain.AdmissibilityRequest
	if err := companyQuery(ctx, db, companyID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gormRepository) ListAssociationByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]requestdomain.AssociationRequest, error) {
	var out []requestdomain.AssociationRequest
	if err := companyQuery(ctx, db, companyID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gormRepository) ListDisassociationByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]requestdomain.DisassociationRequest, error) {
	var out []requestdomain.DisassociationRequest
	if err := companyQuery(ctx, db, companyID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gormRepository) CreateOrUpdateAdmissibility(ctx context.Context, db *gorm.DB, req *requestdomain.AdmissibilityRequest) (bool, error) {
	normalizeAdmissibility(req)

	var existing requestdomain.AdmissibilityRequest
	q := db.WithContext(ctx)
	err := q.Where("request_id = ? AND company_id = ?", req.RequestID, req.CompanyID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) && req.Pod != "" {
		err = q.Where("pod = ? AND company_id = ?", req.Pod, req.CompanyID).First(&existing).Error
	}
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}
		stampNew(&req.ID, &req.CreatedAt, &req.UpdatedAt, r.genID)
		return true, q.Create(req).Error
	}

	req.ID = existing.ID
	req.CreatedAt = existing.CreatedAt
	req.UpdatedAt = time.Now().UTC()
	return false, q.Save(req).Error
}

func (r *gormRepository) CreateOrUpdateAssociation(ctx context.Context, db *gorm.DB, req *requestdomain.AssociationRequest) (bool, error) {
	normalizeAssociation(req)

	var existing requestdomain.AssociationRequest
	q := db.WithContext(ctx)
	err := q.Where("request_id = ? AND company_id = ?", req.RequestID, req.CompanyID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) && req.Pod != "" && req.Serial != "" {
		err = q.Where("pod = ? AND serial = ? AND company_id = ?", req.Pod, req.Serial, req.CompanyID).First(&existing).Error
	}
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}
		stampNew(&req.ID, &req.CreatedAt, &req.UpdatedAt, r.genID)
		return true, q.Create(req).Error
	}

	req.ID = existing.ID
	req.CreatedAt = existing.CreatedAt
	req.UpdatedAt = time.Now().UTC()
	return false, q.Save(req).Error
}

func (r *gormRepository) CreateOrUpdateDisassociation(ctx context.Context, db *gorm.DB, req *requestdomain.DisassociationRequest) (bool, error) {
	req.Pod = strings.TrimSpace(req.Pod)
	req.Serial = strings.TrimSpace(req.Serial)
	req.FiscalCode = strings.ToUpper(strings.TrimSpace(req.FiscalCode))

	var existing requestdomain.DisassociationRequest
	q := db.WithContext(ctx)
	err := q.Where("request_id = ? AND company_id = ?", req.RequestID, req.CompanyID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) && req.Pod != "" && req.Serial != "" {
		err = q.Where("pod = ? AND serial = ? AND company_id = ?", req.Pod, req.Serial, req.CompanyID).First(&existing).Error
	}
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}
		stampNew(&req.ID, &req.CreatedAt, &req.UpdatedAt, r.genID)
		return true, q.Create(req).Error
	}

	req.ID = existing.ID
	req.CreatedAt = existing.CreatedAt
	req.UpdatedAt = time.Now().UTC()
	return false, q.Save(req).Error
}

func (r *gormRepository) DeleteAdmissibility(ctx context.Context, db *gorm.DB, id snowflake.ID) (*requestdomain.AdmissibilityRequest, error) {
	var existing requestdomain.AdmissibilityRequest
	err := db.WithContext(ctx).Where("id = ?", id).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(&requestdomain.AdmissibilityRequest{}, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *gormRepository) DeleteAssociation(ctx context.Context, db *gorm.DB, id snowflake.ID) (*requestdomain.AssociationRequest, error) {
	var existing requestdomain.AssociationRequest
	err := db.WithContext(ctx).Where("id = ?", id).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(&requestdomain.AssociationRequest{}, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *gormRepository) DeleteDisassociation(ctx context.Context, db *gorm.DB, id snowflake.ID) (*requestdomain.DisassociationRequest, error) {
	var existing requestdomain.DisassociationRequest
	err := db.WithContext(ctx).Where("id = ?", id).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(&requestdomain.DisassociationRequest{}, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *gormRepository) CountAdmissibilityByStatus(ctx context.Context, db *gorm.DB, companyID snowflake.ID, statuses []string) (int64, error) {
	return countByStatus(ctx, db, &requestdomain.AdmissibilityRequest{}, companyID, statuses)
}

func (r *gormRepository) CountAssociationByStatus(ctx context.Context, db *gorm.DB, companyID snowflake.ID, statuses []string) (int64, error) {
	return countByStatus(ctx, db, &requestdomain.AssociationRequest{}, companyID, statuses)
}

func (r *gormRepository) CountDisassociationByStatus(ctx context.Context, db *gorm.DB, companyID snowflake.ID, statuses []string) (int64, error) {
	return countByStatus(ctx, db, &requestdomain.DisassociationRequest{}, companyID, statuses)
}

func countByStatus(ctx context.Context, db *gorm.DB, model any, companyID snowflake.ID, statuses []string) (int64, error) {
	q := db.WithContext(ctx).Model(model).Where("company_id = ?", companyID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func stampNew(id *snowflake.ID, createdAt, updatedAt *time.Time, genID *snowflake.Node) {
	now := time.Now().UTC()
	if *id == 0 {
		*id = genID.Generate()
	}
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}

func normalizeAdmissibility(req *requestdomain.AdmissibilityRequest) {
	req.Pod = strings.TrimSpace(req.Pod)
	req.FiscalCode = strings.ToUpper(strings.TrimSpace(req.FiscalCode))
}

func normalizeAssociation(req *requestdomain.AssociationRequest) {
	req.Pod = strings.TrimSpace(req.Pod)
	req.Serial = strings.TrimSpace(req.Serial)
	req.FiscalCode = strings.ToUpper(strings.TrimSpace(req.FiscalCode))
}
