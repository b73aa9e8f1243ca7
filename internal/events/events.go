package events

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// POD lifecycle event types.
const (
	EventPodStatusChanged  = "pod.status_changed"
	EventPodSummaryCreated = "pod.summary_created"
)

// PodEvent is one outbox row, drained by an external relay.
type PodEvent struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;index;uniqueIndex:idx_pod_events_dedupe" json:"company_id"`

	EventType string            `gorm:"type:text;not null;index" json:"event_type"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb" json:"payload"`
	DedupeKey string            `gorm:"type:text;not null;uniqueIndex:idx_pod_events_dedupe" json:"dedupe_key"`

	Published bool      `gorm:"not null;default:false;index" json:"published"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName sets the database table name.
func (PodEvent) TableName() string { return "pod_events" }

// StatusChangedPayload captures the minimal data a consumer needs to react
// to a derived-status transition.
type StatusChangedPayload struct {
	SummaryID  string `json:"summary_id"`
	PodCode    string `json:"pod_code"`
	FiscalCode string `json:"fiscal_code"`
	OldStatus  string `json:"old_status"`
	NewStatus  string `json:"new_status"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p StatusChangedPayload) ToMap() map[string]any {
	return map[string]any{
		"summary_id":  p.SummaryID,
		"pod_code":    p.PodCode,
		"fiscal_code": p.FiscalCode,
		"old_status":  p.OldStatus,
		"new_status":  p.NewStatus,
	}
}

// SummaryCreatedPayload marks the first appearance of a (pod, customer) pair.
type SummaryCreatedPayload struct {
	SummaryID  string `json:"summary_id"`
	PodCode    string `json:"pod_code"`
	FiscalCode string `json:"fiscal_code"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p SummaryCreatedPayload) ToMap() map[string]any {
	return map[string]any{
		"summary_id":  p.SummaryID,
		"pod_code":    p.PodCode,
		"fiscal_code": p.FiscalCode,
	}
}
