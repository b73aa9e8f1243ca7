// Package domain holds the POD lifecycle state machine and the summary
// model. Derivation is pure: it reads the three request streams and never
// touches the database.
package domain

import (
	requestdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/request/domain"
)

// Status is a node in the POD lifecycle:
// customer_created -> admissibility -> shipping -> association -> dissociation.
type Status string

const (
	StatusCustomerCreated Status = "customer_created"

	// Admissibility statuses (Chain2Gate: PENDING | AWAITING | ADMISSIBLE | NOT_ADMISSIBLE | REFUSED).
	StatusAdmissibilityPending       Status = "admissibility_pending"
	StatusAdmissibilityAwaiting      Status = "admissibility_awaiting"
	StatusAdmissibilityAdmissible    Status = "admissibility_admissible"
	StatusAdmissibilityNotAdmissible Status = "admissibility_not_admissible"
	StatusAdmissibilityRefused       Status = "admissibility_refused"

	// Shipping statuses. No backing shipment entity yet: these are reached
	// only through explicit action calls guarded by the transition table.
	StatusShippingRequested  Status = "shipping_requested"
	StatusShippingDispatched Status = "shipping_dispatched"
	StatusShippingFailed     Status = "shipping_failed"
	StatusShippingDelivered  Status = "shipping_delivered"

	// Association statuses (Chain2Gate: PENDING | AWAITING | ASSOCIATED | TAKEN_IN_CHARGE | REFUSED).
	StatusAssociationPending       Status = "association_pending"
	StatusAssociationAwaiting      Status = "association_awaiting"
	StatusAssociationAssociated    Status = "association_associated"
	StatusAssociationTakenInCharge Status = "association_taken_in_charge"
	StatusAssociationRefused       Status = "association_refused"

	// Dissociation statuses (Chain2Gate: PENDING | AWAITING | DISASSOCIATED).
	StatusDissociationPending       Status = "dissociation_pending"
	StatusDissociationAwaiting      Status = "dissociation_awaiting"
	StatusDissociationDisassociated Status = "dissociation_disassociated"

	// Terminal.
	StatusCustomerDeleted Status = "customer_deleted"
)

// AllStatuses lists every lifecycle status in progression order.
var AllStatuses = []Status{
	StatusCustomerCreated,
	StatusAdmissibilityPending,
	StatusAdmissibilityAwaiting,
	StatusAdmissibilityAdmissible,
	StatusAdmissibilityNotAdmissible,
	StatusAdmissibilityRefused,
	StatusShippingRequested,
	StatusShippingDispatched,
	StatusShippingFailed,
	StatusShippingDelivered,
	StatusAssociationPending,
	StatusAssociationAwaiting,
	StatusAssociationAssociated,
	StatusAssociationTakenInCharge,
	StatusAssociationRefused,
	StatusDissociationPending,
	StatusDissociationAwaiting,
	StatusDissociationDisassociated,
	StatusCustomerDeleted,
}

// allowedTransitions encodes the lifecycle graph. Failure states loop back
// to the start of their phase; every state may reach customer_deleted,
// which has no outgoing edges.
var allowedTransitions = map[Status][]Status{
	StatusCustomerCreated: {StatusAdmissibilityPending, StatusCustomerDeleted},

	StatusAdmissibilityPending:       {StatusAdmissibilityAwaiting, StatusAdmissibilityAdmissible, StatusAdmissibilityNotAdmissible, StatusAdmissibilityRefused, StatusCustomerDeleted},
	StatusAdmissibilityAwaiting:      {StatusAdmissibilityAdmissible, StatusAdmissibilityNotAdmissible, StatusAdmissibilityRefused, StatusCustomerDeleted},
	StatusAdmissibilityAdmissible:    {StatusShippingRequested, StatusCustomerDeleted},
	StatusAdmissibilityNotAdmissible: {StatusAdmissibilityPending, StatusCustomerDeleted},
	StatusAdmissibilityRefused:       {StatusAdmissibilityPending, StatusCustomerDeleted},

	StatusShippingRequested:  {StatusShippingDispatched, StatusShippingFailed, StatusCustomerDeleted},
	StatusShippingDispatched: {StatusShippingDelivered, StatusShippingFailed, StatusCustomerDeleted},
	StatusShippingFailed:     {StatusShippingRequested, StatusCustomerDeleted},
	StatusShippingDelivered:  {StatusAssociationPending, StatusCustomerDeleted},

	StatusAssociationPending:       {StatusAssociationAwaiting, StatusAssociationAssociated, StatusAssociationTakenInCharge, StatusAssociationRefused, StatusCustomerDeleted},
	StatusAssociationAwaiting:      {StatusAssociationAssociated, StatusAssociationTakenInCharge, StatusAssociationRefused, StatusCustomerDeleted},
	StatusAssociationAssociated:    {StatusDissociationPending, StatusCustomerDeleted},
	StatusAssociationTakenInCharge: {StatusDissociationPending, StatusCustomerDeleted},
	StatusAssociationRefused:       {StatusAssociationPending, StatusCustomerDeleted},

	StatusDissociationPending:       {StatusDissociationAwaiting, StatusDissociationDisassociated, StatusCustomerDeleted},
	StatusDissociationAwaiting:      {StatusDissociationDisassociated, StatusCustomerDeleted},
	StatusDissociationDisassociated: {StatusCustomerDeleted},

	StatusCustomerDeleted: {},
}

// CanTransition reports whether the lifecycle allows moving current -> next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable in one step.
func (s Status) NextStatuses() []Status {
	allowed := allowedTransitions[s]
	out := make([]Status, len(allowed))
	copy(out, allowed)
	return out
}

// Valid reports whether the status belongs to the lifecycle.
func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// HasActiveAssociations reports whether the status implies a live device
// binding.
func (s Status) HasActiveAssociations() bool {
	return s == StatusAssociationAssociated || s == StatusAssociationTakenInCharge
}

// CanRequestAdmissibility: fresh customer, or a failed admissibility retry.
func (s Status) CanRequestAdmissibility() bool {
	return s == StatusCustomerCreated ||
		s == StatusAdmissibilityRefused ||
		s == StatusAdmissibilityNotAdmissible
}

// CanRequestShipping: admissible, or a failed shipment retry.
func (s Status) CanRequestShipping() bool {
	return s == StatusAdmissibilityAdmissible || s == StatusShippingFailed
}

// CanRequestAssociation: device delivered, or a refused association retry.
func (s Status) CanRequestAssociation() bool {
	return s == StatusShippingDelivered || s == StatusAssociationRefused
}

// CanRequestDissociation: only from a live association.
func (s Status) CanRequestDissociation() bool {
	return s.HasActiveAssociations()
}

// DeriveStatus computes the lifecycle status from the three request streams,
// each ordered newest-first. Precedence is strict: a disassociation record
// masks the association stream, which masks the admissibility stream.
func DeriveStatus(
	admissibility []requestdomain.AdmissibilityRequest,
	associations []requestdomain.AssociationRequest,
	disassociations []requestdomain.DisassociationRequest,
) Status {
	if len(disassociations) > 0 {
		switch disassociations[0].Status {
		case requestdomain.StatusDisassociated:
			return StatusDissociationDisassociated
		case requestdomain.StatusAwaiting:
			return StatusDissociationAwaiting
		case requestdomain.StatusPending:
			return StatusDissociationPending
		}
		// Unknown disassociation status: fall through to the association
		// stream rather than inventing a dissociation state.
		return associationStatus(associations)
	}

	if len(associations) > 0 {
		return associationStatus(associations)
	}

	if len(admissibility) > 0 {
		switch admissibility[0].Status {
		case requestdomain.StatusAdmissible:
			return StatusAdmissibilityAdmissible
		case requestdomain.StatusAwaiting:
			return StatusAdmissibilityAwaiting
		case requestdomain.StatusNotAdmissible:
			return StatusAdmissibilityNotAdmissible
		case requestdomain.StatusRefused:
			return StatusAdmissibilityRefused
		case requestdomain.StatusPending:
			return StatusAdmissibilityPending
		}
		// Unmapped admissibility status leaves the POD at the default.
	}

	return StatusCustomerCreated
}

func associationStatus(associations []requestdomain.AssociationRequest) Status {
	if len(associations) == 0 {
		return StatusCustomerCreated
	}
	switch associations[0].Status {
	case requestdomain.StatusAssociated:
		return StatusAssociationAssociated
	case requestdomain.StatusTakenInCharge:
		return StatusAssociationTakenInCharge
	case requestdomain.StatusAwaiting:
		return StatusAssociationAwaiting
	case requestdomain.StatusRefused:
		return StatusAssociationRefused
	case requestdomain.StatusPending:
		return StatusAssociationPending
	default:
		return StatusAssociationPending
	}
}
