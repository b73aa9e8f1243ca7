// Package domain defines the per-company dashboard payload. Sections are
// permission-gated: a missing capability degrades its section instead of
// failing the whole call.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// DeviceCounters summarizes the device inventory.
type DeviceCounters struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
	Online int64 `json:"online"`
}

// CustomerCounters summarizes the customer base.
type CustomerCounters struct {
	Total                  int64 `json:"total"`
	WithActiveAssociations int64 `json:"with_active_associations"`
}

// RequestCounters summarizes open and active request flows.
type RequestCounters struct {
	AdmissibilityPending int64 `json:"admissibility_pending"`
	AssociationPending   int64 `json:"association_pending"`
	AssociationActive    int64 `json:"association_active"`
}

// Data is the dashboard payload. Devices and Requests are nil when the
// company lacks the gating permission; the matching message explains why.
type Data struct {
	CompanyID   snowflake.ID `json:"company_id"`
	GeneratedAt time.Time    `json:"generated_at"`

	Devices        *DeviceCounters `json:"devices,omitempty"`
	DevicesMessage string          `json:"devices_message,omitempty"`

	Customers CustomerCounters `json:"customers"`

	Requests        *RequestCounters `json:"requests,omitempty"`
	RequestsMessage string           `json:"requests_message,omitempty"`
}
