package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingPodCode  = errors.New("pod_code is required")
	ErrMissingCustomer = errors.New("customer_id is required")
	ErrSummaryNotFound = errors.New("pod summary not found")
)

// TransitionError reports a lifecycle move the state machine forbids.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("status transition %s -> %s is not allowed", e.From, e.To)
}
