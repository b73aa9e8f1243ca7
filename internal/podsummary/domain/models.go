package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// PodSummary is the derived read model for one (pod_code, customer) pair.
// Status and the aggregate columns are recomputed from the request streams
// and the device inventory; only pod_code, customer and company are input.
type PodSummary struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;uniqueIndex:idx_summary_pod_customer_company" json:"company_id"`

	PodCode    string       `gorm:"type:text;not null;index;uniqueIndex:idx_summary_pod_customer_company" json:"pod_code"`
	CustomerID snowflake.ID `gorm:"not null;index;uniqueIndex:idx_summary_pod_customer_company" json:"customer_id"`

	CustomerFiscalCode string `gorm:"type:text;not null;index" json:"customer_fiscal_code"`
	CustomerName       string `gorm:"type:text" json:"customer_name,omitempty"`

	Status                Status `gorm:"type:text;not null;default:customer_created;index" json:"status"`
	HasActiveAssociations bool   `gorm:"not null;default:false" json:"has_active_associations"`

	// Device aggregation.
	DeviceCount     int                        `gorm:"not null;default:0" json:"device_count"`
	DeviceIDs       datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"device_ids,omitempty"`
	PrimaryDeviceID string                     `gorm:"type:text" json:"primary_device_id,omitempty"`
	DeviceTypes     string                     `gorm:"type:text" json:"device_types,omitempty"`

	// Request aggregation.
	AdmissibilityCount  int `gorm:"not null;default:0" json:"admissibility_count"`
	AssociationCount    int `gorm:"not null;default:0" json:"association_count"`
	DisassociationCount int `gorm:"not null;default:0" json:"disassociation_count"`

	LatestRequestType   string     `gorm:"type:text" json:"latest_request_type,omitempty"`
	LatestRequestStatus string     `gorm:"type:text" json:"latest_request_status,omitempty"`
	LatestRequestDate   *time.Time `json:"latest_request_date,omitempty"`
	LastActivityDate    *time.Time `json:"last_activity_date,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (PodSummary) TableName() string { return "pod_summaries" }

// DisplayName renders "POD - Customer" falling back to the POD code.
func (s PodSummary) DisplayName() string {
	if s.CustomerName != "" {
		return s.PodCode + " - " + s.CustomerName
	}
	return s.PodCode
}

// SyncResult reports the outcome of a batch summary sync.
type SyncResult struct {
	Created          int `json:"created"`
	Updated          int `json:"updated"`
	Errors           int `json:"errors"`
	CustomersCreated int `json:"customers_created"`
	Total            int `json:"total_combinations"`
}
