// Package seed bootstraps the default company so a fresh install can log in
// and sync immediately.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	companydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/company/domain"
)

const defaultCompanyName = "Main"

// EnsureDefaultCompany seeds the default company with the full permission
// vector. Idempotent: an existing company named Main is left untouched.
func EnsureDefaultCompany(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var company companydomain.Company
		err := tx.Where("name = ?", defaultCompanyName).First(&company).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		company = companydomain.Company{
			ID:        node.Generate(),
			Name:      strings.TrimSpace(defaultCompanyName),
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&company).Error; err != nil {
			return err
		}

		// The operator's own company holds every capability.
		perms := companydomain.CompanyPermissions{
			ID:                          node.Generate(),
			CompanyID:                   company.ID,
			PartnerEnergia:              true,
			ConfigurazioneAmmissibilita: true,
			ConfigurazioneAssociazione:  true,
			Magazzino:                   true,
			Spedizione:                  true,
			Monitoraggio:                true,
			CreatedAt:                   now,
			UpdatedAt:                   now,
		}
		return tx.Create(&perms).Error
	})
}
