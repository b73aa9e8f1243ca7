// Package domain contains the customer model keyed by fiscal code per company.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// User types mirror the Chain2Gate customer classification.
const (
	UserTypeProsumer = "PROSUMER"
	UserTypeConsumer = "CONSUMER"
)

// Customer is one person per (fiscal_code, company).
type Customer struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;uniqueIndex:idx_customer_fiscal_company" json:"company_id"`

	FiscalCode string `gorm:"type:text;not null;uniqueIndex:idx_customer_fiscal_company" json:"fiscal_code"`
	FirstName  string `gorm:"type:text" json:"first_name,omitempty"`
	LastName   string `gorm:"type:text" json:"last_name,omitempty"`
	Email      string `gorm:"type:text" json:"email,omitempty"`
	Phone      string `gorm:"type:text" json:"phone,omitempty"`
	UserType   string `gorm:"type:text" json:"user_type,omitempty"`
	Group      string `gorm:"type:text;index" json:"group,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }

// DisplayName renders "First Last (FISCALCODE)" falling back to the fiscal code.
func (c Customer) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
	if name == "" {
		return c.FiscalCode
	}
	return name + " (" + c.FiscalCode + ")"
}

// Seed carries the personal fields used when a customer is created
// opportunistically from request data.
type Seed struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	UserType  string
	Group     string
}

// Stats aggregates a customer's footprint across the request streams.
type Stats struct {
	AdmissibilityCount    int64      `json:"admissibility_count"`
	AssociationCount      int64      `json:"association_count"`
	DisassociationCount   int64      `json:"disassociation_count"`
	DeviceCount           int64      `json:"device_count"`
	HasActiveAssociations bool       `json:"has_active_associations"`
	LatestRequestDate     *time.Time `json:"latest_request_date,omitempty"`
}
