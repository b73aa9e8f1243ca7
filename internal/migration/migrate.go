// Package migration keeps the schema in step with the models via gorm
// auto-migration. Runs once at startup before the HTTP server accepts
// traffic.
package migration

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	companydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/company/domain"
	customerdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/customer/domain"
	devicedomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/device/domain"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/events"
	podsummarydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/podsummary/domain"
	requestdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/request/domain"
)

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&companydomain.Company{},
		&companydomain.CompanyPermissions{},
		&companydomain.PodAuthorization{},
		&customerdomain.Customer{},
		&devicedomain.Device{},
		&requestdomain.AdmissibilityRequest{},
		&requestdomain.AssociationRequest{},
		&requestdomain.DisassociationRequest{},
		&podsummarydomain.PodSummary{},
		&events.PodEvent{},
	}
}

// Run applies auto-migration for all models.
func Run(db *gorm.DB, log *zap.Logger) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	log.Info("database schema migrated", zap.Int("models", len(Models())))
	return nil
}

var Module = fx.Module("migration",
	fx.Invoke(func(db *gorm.DB, log *zap.Logger) error {
		return Run(db, log.Named("migration"))
	}),
)
