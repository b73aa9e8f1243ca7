// Package domain contains the three Chain2Gate request streams:
// admissibility, association and disassociation. Records are append-mostly;
// only the most recent record per stream drives the POD lifecycle status.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Chain2Gate request statuses, shared across streams.
const (
	StatusPending       = "PENDING"
	StatusAwaiting      = "AWAITING"
	StatusAdmissible    = "ADMISSIBLE"
	StatusNotAdmissible = "NOT_ADMISSIBLE"
	StatusRefused       = "REFUSED"
	StatusAssociated    = "ASSOCIATED"
	StatusTakenInCharge = "TAKEN_IN_CHARGE"
	StatusDisassociated = "DISASSOCIATED"
)

// Meter slot types a device can expose for a POD.
const (
	PodMTypeM1  = "M1"
	PodMTypeM2  = "M2"
	PodMTypeM22 = "M2_2"
	PodMTypeM23 = "M2_3"
	PodMTypeM24 = "M2_4"
)

// Stream names, used as the latest-request type label on summaries.
const (
	StreamAdmissibility  = "Admissibility"
	StreamAssociation    = "Association"
	StreamDisassociation = "Disassociation"
)

// AdmissibilityRequest asks Chain2Gate whether a POD can join the service.
// One open admissibility flow per POD per company.
type AdmissibilityRequest struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;uniqueIndex:idx_admiss_pod_company;uniqueIndex:idx_admiss_request_company" json:"company_id"`

	RequestID  string `gorm:"type:text;not null;uniqueIndex:idx_admiss_request_company" json:"request_id"`
	Pod        string `gorm:"type:text;not null;index;uniqueIndex:idx_admiss_pod_company" json:"pod"`
	FiscalCode string `gorm:"type:text;not null;index" json:"fiscal_code"`
	Status     string `gorm:"type:text;not null;default:PENDING;index" json:"status"`
	Message    string `gorm:"type:text" json:"message,omitempty"`
	Group      string `gorm:"type:text;index" json:"group,omitempty"`

	CustomerID *snowflake.ID     `gorm:"index" json:"customer_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`

	ClosedAt  *time.Time `gorm:"" json:"closed_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (AdmissibilityRequest) TableName() string { return "admissibility_requests" }

// AssociationRequest binds a device serial to a POD for a customer.
type AssociationRequest struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;uniqueIndex:idx_assoc_pod_serial_company;uniqueIndex:idx_assoc_request_company" json:"company_id"`

	RequestID  string `gorm:"type:text;not null;uniqueIndex:idx_assoc_request_company" json:"request_id"`
	Pod        string `gorm:"type:text;not null;index;uniqueIndex:idx_assoc_pod_serial_company" json:"pod"`
	Serial     string `gorm:"type:text;not null;index;uniqueIndex:idx_assoc_pod_serial_company" json:"serial"`
	PodMType   string `gorm:"type:text;not null" json:"pod_m_type"`
	UserType   string `gorm:"type:text;not null" json:"user_type"`
	FiscalCode string `gorm:"type:text;not null;index" json:"fiscal_code"`

	FirstName string `gorm:"type:text" json:"first_name,omitempty"`
	LastName  string `gorm:"type:text" json:"last_name,omitempty"`
	Email     string `gorm:"type:text" json:"email,omitempty"`

	ContractSigned bool   `gorm:"not null;default:false" json:"contract_signed"`
	Product        string `gorm:"type:text" json:"product,omitempty"`
	Status         string `gorm:"type:text;not null;default:PENDING;index" json:"status"`
	Message        string `gorm:"type:text" json:"message,omitempty"`
	Group          string `gorm:"type:text;index" json:"group,omitempty"`

	CustomerID *snowflake.ID     `gorm:"index" json:"customer_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`

	ClosedAt  *time.Time `gorm:"" json:"closed_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (AssociationRequest) TableName() string { return "association_requests" }

// DisassociationRequest unbinds a device serial from a POD.
type DisassociationRequest struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;uniqueIndex:idx_disassoc_pod_serial_company;uniqueIndex:idx_disassoc_request_company" json:"company_id"`

	RequestID  string `gorm:"type:text;not null;uniqueIndex:idx_disassoc_request_company" json:"request_id"`
	Pod        string `gorm:"type:text;not null;index;uniqueIndex:idx_disassoc_pod_serial_company" json:"pod"`
	Serial     string `gorm:"type:text;not null;index;uniqueIndex:idx_disassoc_pod_serial_company" json:"serial"`
	PodMType   string `gorm:"type:text;not null" json:"pod_m_type"`
	UserType   string `gorm:"type:text;not null" json:"user_type"`
	FiscalCode string `gorm:"type:text;not null;index" json:"fiscal_code"`

	FirstName string `gorm:"type:text" json:"first_name,omitempty"`
	LastName  string `gorm:"type:text" json:"last_name,omitempty"`
	Email     string `gorm:"type:text" json:"email,omitempty"`

	Status  string `gorm:"type:text;not null;default:PENDING;index" json:"status"`
	Message string `gorm:"type:text" json:"message,omitempty"`
	Group   string `gorm:"type:text;index" json:"group,omitempty"`

	CustomerID *snowflake.ID     `gorm:"index" json:"customer_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`

	ClosedAt  *time.Time `gorm:"" json:"closed_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (DisassociationRequest) TableName() string { return "disassociation_requests" }

// StreamKey is the composite business key shared by all three streams.
// Summaries are read-through caches keyed by this triple.
type StreamKey struct {
	CompanyID  snowflake.ID
	Pod        string
	FiscalCode string
}
