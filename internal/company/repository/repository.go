// Package repository implements the company domain repository on gorm.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	companydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/company/domain"
)

type gormRepository struct {
	genID *snowflake.Node
}

// New constructs the gorm-backed company repository.
func New(genID *snowflake.Node) companydomain.Repository {
	return &gormRepository{genID: genID}
}

func (r *gormRepository) FindCompany(ctx context.Context, db *gorm.DB, id snowflake.ID) (*companydomain.Company, error) {
	var company companydomain.Company
	err := db.WithContext(ctx).Where("id = ?", id).First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

func (r *gormRepository) PermissionsFor(ctx context.Context, db *gorm.DB, companyID snowflake.ID) (*companydomain.CompanyPermissions, error) {
	var perms companydomain.CompanyPermissions
	err := db.WithContext(ctx).Where("company_id = ?", companyID).First(&perms).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &perms, nil
}

func (r *gormRepository) SetPermissions(ctx context.Context, db *gorm.DB, perms *companydomain.CompanyPermissions) error {
	now := time.Now().UTC()

	var existing companydomain.CompanyPermissions
	err := db.WithContext(ctx).Where("company_id = ?", perms.CompanyID).First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		perms.ID = r.genID.Generate()
		perms.CreatedAt = now
		perms.UpdatedAt = now
		return db.WithContext(ctx).Create(perms).Error
	}

	perms.ID = existing.ID
	perms.CreatedAt = existing.CreatedAt
	perms.UpdatedAt = now
	return db.WithContext(ctx).Save(perms).Error
}

func (r *gormRepository) CompaniesWithPermission(ctx context.Context, db *gorm.DB, perm companydomain.Permission) ([]companydomain.Company, error) {
	column, ok := permissionColumns[perm]
	if !ok {
		return nil, companydomain.ErrInvalidPermission
	}

	var companies []companydomain.Company
	err := db.WithContext(ctx).
		Joins("JOIN company_permissions ON company_permissions.company_id = companies.id").
		Where("company_permissions."+column+" = ?", true).
		Where("companies.active = ?", true).
		Find(&companies).Error
	if err != nil {
		return nil, err
	}
	return companies, nil
}

// permissionColumns maps the closed permission set to table columns. Anything
// outside this map is rejected before it reaches SQL.
var permissionColumns = map[companydomain.Permission]string{
	companydomain.PermPartnerEnergia:              "partner_energia",
	companydomain.PermConfigurazioneAmmissibilita: "configurazione_ammissibilita",
	companydomain.PermConfigurazioneAssociazione:  "configurazione_associazione",
	companydomain.PermMagazzino:                   "magazzino",
	companydomain.PermSpedizione:                  "spedizione",
	companydomain.PermMonitoraggio:                "monitoraggio",
}

func (r *gormRepository) AuthorizedPods(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]string, error) {
	var pods []string
	err := db.WithContext(ctx).
		Model(&companydomain.PodAuthorization{}).
		Where("company_id = ? AND is_active = ?", companyID, true).
		Order("pod_code").
		Pluck("pod_code", &pods).Error
	if err != nil {
		return nil, err
	}
	return pods, nil
}

func (r *gormRepository) UpsertPodAuthorization(ctx context.Context, db *gorm.DB, auth *companydomain.PodAuthorization) error {
	auth.PodCode = strings.TrimSpace(auth.PodCode)
	if auth.PodCode == "" {
		return errors.New("pod_code_required")
	}

	now := time.Now().UTC()

	var existing companydomain.PodAuthorization
	err := db.WithContext(ctx).
		Where("company_id = ? AND pod_code = ?", auth.CompanyID, auth.PodCode).
		First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		auth.ID = r.genID.Generate()
		auth.CreatedAt = now
		auth.UpdatedAt = now
		return db.WithContext(ctx).Create(auth).Error
	}

	auth.ID = existing.ID
	auth.CreatedAt = existing.CreatedAt
	auth.UpdatedAt = now
	return db.WithContext(ctx).Save(auth).Error
}

func (r *gormRepository) SetPodAuthorizationActive(ctx context.Context, db *gorm.DB, companyID snowflake.ID, podCode string, active bool) error {
	return db.WithContext(ctx).
		Model(&companydomain.PodAuthorization{}).
		Where("company_id = ? AND pod_code = ?", companyID, strings.TrimSpace(podCode)).
		Updates(map[string]any{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		}).Error
}
