package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository provides device persistence. Pod searches match any of the five
// meter slots.
type Repository interface {
	// FindByDeviceID returns nil when no device exists for the pair.
	FindByDeviceID(ctx context.Context, db *gorm.DB, companyID snowflake.ID, deviceID string) (*Device, error)

	// SearchByPod returns devices with any slot bound to the POD, ordered by
	// created_at ascending so the first active one is the oldest.
	SearchByPod(ctx context.Context, db *gorm.DB, companyID snowflake.ID, pod string) ([]Device, error)

	// SearchByPods returns devices with any slot bound to one of the PODs.
	SearchByPods(ctx context.Context, db *gorm.DB, companyID snowflake.ID, pods []string) ([]Device, error)

	// CreateOrUpdate matches by device_id first, then by mac.
	CreateOrUpdate(ctx context.Context, db *gorm.DB, device *Device) (created bool, err error)

	ListByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]Device, error)
	CountByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID, activeOnly bool) (int64, error)

	// CountOnline counts devices in any online_* connectivity state.
	CountOnline(ctx context.Context, db *gorm.DB, companyID snowflake.ID) (int64, error)
	SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
