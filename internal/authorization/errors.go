package authorization

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"

	companydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/company/domain"
)

var (
	ErrInvalidCompany = errors.New("invalid_company")
	ErrMissingPods    = errors.New("missing_pod_ids")
)

// AuthorizationError reports that a company lacks a named capability.
type AuthorizationError struct {
	CompanyID  snowflake.ID
	Permission companydomain.Permission
	Reason     string
}

func (e *AuthorizationError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("company %s is not authorized for %s", e.CompanyID, e.Permission)
}

// DataAccessError reports an attempt to access PODs outside the company's
// authorization set. PodIDs carries exactly the offending PODs.
type DataAccessError struct {
	CompanyID snowflake.ID
	PodIDs    []string
	Reason    string
}

func (e *DataAccessError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("company %s cannot access PODs: %s", e.CompanyID, strings.Join(e.PodIDs, ", "))
}
