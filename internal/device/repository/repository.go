// Package repository implements the device repository on gorm.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	devicedomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/device/domain"
)

const podSlotClause = "pod_m1 = ? OR pod_m2 = ? OR pod_m2_2 = ? OR pod_m2_3 = ? OR pod_m2_4 = ?"

type gormRepository struct {
	genID *snowflake.Node
}

// New constructs the gorm-backed device repository.
func New(genID *snowflake.Node) devicedomain.Repository {
	return &gormRepository{genID: genID}
}

func (r *gormRepository) FindByDeviceID(ctx context.Context, db *gorm.DB, companyID snowflake.ID, deviceID string) (*devicedomain.Device, error) {
	var device devicedomain.Device
	err := db.WithContext(ctx).
		Where("company_id = ? AND device_id = ?", companyID, strings.TrimSpace(deviceID)).
		First(&device).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &device, nil
}

func (r *gormRepository) SearchByPod(ctx context.Context, db *gorm.DB, companyID snowflake.ID, pod string) ([]devicedomain.Device, error) {
	pod = strings.TrimSpace(pod)
	if pod == "" {
		return nil, nil
	}
	var devices []devicedomain.Device
	err := db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Where(podSlotClause, pod, pod, pod, pod, pod).
		Order("created_at ASC").
		Find(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *gormRepository) SearchByPods(ctx context.Context, db *gorm.DB, companyID snowflake.ID, pods []string) ([]devicedomain.Device, error) {
	cleaned := make([]string, 0, len(pods))
	for _, pod := range pods {
		if pod = strings.TrimSpace(pod); pod != "" {
			cleaned = append(cleaned, pod)
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}
	var devices []devicedomain.Device
	err := db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Where("pod_m1 IN ? OR pod_m2 IN ? OR pod_m2_2 IN ? OR pod_m2_3 IN ? OR pod_m2_4 IN ?",
			cleaned, cleaned, cleaned, cleaned, cleaned).
		Order("created_at ASC").
		Find(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *gormRepository) CreateOrUpdate(ctx context.Context, db *gorm.DB, device *devicedomain.Device) (bool, error) {
	device.DeviceID = strings.TrimSpace(device.DeviceID)
	device.Mac = strings.ToUpper(strings.TrimSpace(device.Mac))

	var existing devicedomain.Device
	q := db.WithContext(ctx)
	err := q.Where("company_id = ? AND device_id = ?", device.CompanyID, device.DeviceID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) && device.Mac != "" {
		err = q.Where("company_id = ? AND mac = ?", device.CompanyID, device.Mac).First(&existing).Error
	}
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}
		now := time.Now().UTC()
		if device.ID == 0 {
			device.ID = r.genID.Generate()
		}
		if device.CreatedAt.IsZero() {
			device.CreatedAt = now
		}
		device.UpdatedAt = now
		if device.Status == "" {
			device.Status = devicedomain.StatusNotInstalled
		}
		return true, q.Create(device).Error
	}

	device.ID = existing.ID
	device.CreatedAt = existing.CreatedAt
	device.UpdatedAt = time.Now().UTC()
	if device.Status == "" {
		device.Status = existing.Status
	}
	return false, q.Save(device).Error
}

func (r *gormRepository) ListByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]devicedomain.Device, error) {
	var devices []devicedomain.Device
	err := db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("device_id").
		Find(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *gormRepository) CountByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID, activeOnly bool) (int64, error) {
	q := db.WithContext(ctx).Model(&devicedomain.Device{}).Where("company_id = ?", companyID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *gormRepository) CountOnline(ctx context.Context, db *gorm.DB, companyID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&devicedomain.Device{}).
		Where("company_id = ? AND status LIKE ?", companyID, devicedomain.StatusOnline+"%").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *gormRepository) SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool) error {
	return db.WithContext(ctx).Model(&devicedomain.Device{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"active":     active,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *gormRepository) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&devicedomain.Device{}, "id = ?", id).Error
}
