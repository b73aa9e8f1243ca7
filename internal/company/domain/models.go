// Package domain contains the company, permission and POD authorization models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Company is a tenant. All POD data is isolated per company.
type Company struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	// No column default: gorm skips zero-value fields that carry one, which
	// would make an inactive company impossible to insert.
	Active    bool         `gorm:"not null" json:"active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Company) TableName() string { return "companies" }

// CompanyPermissions holds the feature flags granted to a company.
// At most one row exists per company; absence means the default vector.
type CompanyPermissions struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;uniqueIndex" json:"company_id"`

	PartnerEnergia              bool `gorm:"not null;default:false" json:"partner_energia"`
	ConfigurazioneAmmissibilita bool `gorm:"not null;default:false" json:"configurazione_ammissibilita"`
	ConfigurazioneAssociazione  bool `gorm:"not null;default:false" json:"configurazione_associazione"`
	Magazzino                   bool `gorm:"not null;default:false" json:"magazzino"`
	Spedizione                  bool `gorm:"not null;default:false" json:"spedizione"`
	Monitoraggio                bool `gorm:"not null;default:false" json:"monitoraggio"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (CompanyPermissions) TableName() string { return "company_permissions" }

// PodAuthorization grants a company access to a single POD code.
type PodAuthorization struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;uniqueIndex:idx_pod_auth_company_pod" json:"company_id"`
	PodCode   string       `gorm:"type:text;not null;uniqueIndex:idx_pod_auth_company_pod" json:"pod_code"`
	PodName   string       `gorm:"type:text" json:"pod_name,omitempty"`
	IsActive  bool         `gorm:"not null" json:"is_active"`

	// External Chain2Gate linkage.
	Chain2GateID string     `gorm:"type:text" json:"chain2gate_id,omitempty"`
	LastSync     *time.Time `gorm:"" json:"last_sync,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (PodAuthorization) TableName() string { return "pod_authorizations" }
