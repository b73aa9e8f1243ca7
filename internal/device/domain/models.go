// Package domain contains the Chain2Gate metering device inventory. A device
// exposes up to five meter slots, each bound to a POD code.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Device connectivity statuses as reported by Chain2Gate. The online_* and
// offline_* variants refine the base state; prefix checks cover the family.
const (
	StatusNotInstalled = "not_installed"
	StatusConnecting   = "connecting"
	StatusOnline       = "online"
	StatusOffline      = "offline"
	StatusReplacing    = "replacing"
	StatusReplaced     = "replaced"

	StatusOnlineWeakWifi        = "online_weak_wifi"
	StatusOnlineWeakMeterSignal = "online_weak_meter_signal"
	StatusOnlineMeterUpdate     = "online_meter_update_needed"
	StatusOnlineMeterNotWorking = "online_meter_not_working"

	StatusOfflineSupplierChange     = "offline_supplier_change"
	StatusOfflineTadaClosure        = "offline_tada_closure"
	StatusOfflineSupplyDeactivation = "offline_supply_deactivation"
	StatusOfflineAdministrative     = "offline_administrative_closure"
	StatusOfflineOwnershipTransfer  = "offline_ownership_transfer"
)

// Device is one physical meter gateway per (device_id, company).
type Device struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;uniqueIndex:idx_device_id_company;uniqueIndex:idx_device_mac_company" json:"company_id"`

	DeviceID string `gorm:"type:text;not null;uniqueIndex:idx_device_id_company" json:"device_id"`
	DuName   string `gorm:"type:text" json:"du_name,omitempty"`

	// Meter slots. M1 is the exchange meter, M2 production, M2_2..M2_4
	// additional production meters.
	PodM1  string `gorm:"type:text;index" json:"pod_m1,omitempty"`
	PodM2  string `gorm:"type:text;index" json:"pod_m2,omitempty"`
	PodM22 string `gorm:"column:pod_m2_2;type:text;index" json:"pod_m2_2,omitempty"`
	PodM23 string `gorm:"column:pod_m2_3;type:text;index" json:"pod_m2_3,omitempty"`
	PodM24 string `gorm:"column:pod_m2_4;type:text;index" json:"pod_m2_4,omitempty"`

	HwVersion string `gorm:"type:text" json:"hw_version,omitempty"`
	SwVersion string `gorm:"type:text" json:"sw_version,omitempty"`
	FwVersion string `gorm:"type:text" json:"fw_version,omitempty"`

	Mac         string `gorm:"type:text;uniqueIndex:idx_device_mac_company" json:"mac,omitempty"`
	K1          string `gorm:"type:text" json:"k1,omitempty"`
	K2          string `gorm:"type:text" json:"k2,omitempty"`
	SystemTitle string `gorm:"type:text" json:"system_title,omitempty"`
	LoginKey    string `gorm:"type:text" json:"login_key,omitempty"`

	Group    string `gorm:"type:text;index" json:"group,omitempty"`
	TypeName string `gorm:"type:text" json:"type_name,omitempty"`
	Active   bool   `gorm:"not null;index" json:"active"`
	Status   string `gorm:"type:text;not null;default:not_installed;index" json:"status"`

	LastSync *time.Time `json:"last_sync,omitempty"`

	Metadata datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Device) TableName() string { return "devices" }

// Pods returns the non-empty POD codes bound to the device's slots.
func (d Device) Pods() []string {
	slots := []string{d.PodM1, d.PodM2, d.PodM22, d.PodM23, d.PodM24}
	out := make([]string, 0, len(slots))
	for _, pod := range slots {
		if pod = strings.TrimSpace(pod); pod != "" {
			out = append(out, pod)
		}
	}
	return out
}

// IsOnline reports whether the device is in any of the online_* states.
func (d Device) IsOnline() bool { return strings.HasPrefix(d.Status, StatusOnline) }

// HasConsumption reports whether the exchange slot is bound.
func (d Device) HasConsumption() bool { return strings.TrimSpace(d.PodM1) != "" }

// HasProduction reports whether any production slot is bound.
func (d Device) HasProduction() bool {
	return strings.TrimSpace(d.PodM2) != "" ||
		strings.TrimSpace(d.PodM22) != "" ||
		strings.TrimSpace(d.PodM23) != "" ||
		strings.TrimSpace(d.PodM24) != ""
}

// ServesPod reports whether any slot is bound to the given POD code.
func (d Device) ServesPod(pod string) bool {
	pod = strings.TrimSpace(pod)
	if pod == "" {
		return false
	}
	for _, p := range d.Pods() {
		if p == pod {
			return true
		}
	}
	return false
}
