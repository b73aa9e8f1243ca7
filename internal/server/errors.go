package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/authorization"
	companydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/company/domain"
	customerservice "github.com/spagnoll1andre/novaflow-tada-delivery/internal/customer/service"
	podsummarydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/podsummary/domain"
	requestservice "github.com/spagnoll1andre/novaflow-tada-delivery/internal/request/service"
)

// ValidationError is a 400-class input error with a field reference.
type ValidationError struct {
	Field  string `json:"field"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func (e *ValidationError) Error() string { return e.Detail }

func newValidationError(field, code, detail string) *ValidationError {
	return &ValidationError{Field: field, Code: code, Detail: detail}
}

func invalidRequestError() *ValidationError {
	return newValidationError("body", "invalid", "request body could not be parsed")
}

// AbortWithError maps domain errors onto HTTP status codes.
func AbortWithError(c *gin.Context, err error) {
	var authErr *authorization.AuthorizationError
	if errors.As(err, &authErr) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":      "permission_denied",
			"company_id": authErr.CompanyID.String(),
			"permission": string(authErr.Permission),
			"detail":     authErr.Error(),
		})
		return
	}

	var accessErr *authorization.DataAccessError
	if errors.As(err, &accessErr) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":      "pod_access_denied",
			"company_id": accessErr.CompanyID.String(),
			"pod_ids":    accessErr.PodIDs,
			"detail":     accessErr.Error(),
		})
		return
	}

	var transitionErr *podsummarydomain.TransitionError
	if errors.As(err, &transitionErr) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":       "invalid_transition",
			"from_status": string(transitionErr.From),
			"to_status":   string(transitionErr.To),
			"detail":      transitionErr.Error(),
		})
		return
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  "validation_failed",
			"field":  validationErr.Field,
			"code":   validationErr.Code,
			"detail": validationErr.Detail,
		})
		return
	}

	switch {
	case isNotFound(err):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not_found", "detail": err.Error()})
	case isValidation(err):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "detail": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, podsummarydomain.ErrSummaryNotFound) ||
		errors.Is(err, customerservice.ErrCustomerNotFound) ||
		errors.Is(err, requestservice.ErrRequestNotFound)
}

func isValidation(err error) bool {
	return errors.Is(err, authorization.ErrInvalidCompany) ||
		errors.Is(err, authorization.ErrMissingPods) ||
		errors.Is(err, companydomain.ErrInvalidPermission) ||
		errors.Is(err, customerservice.ErrMissingFiscalCode) ||
		errors.Is(err, requestservice.ErrMissingRequestID) ||
		errors.Is(err, requestservice.ErrMissingPod) ||
		errors.Is(err, requestservice.ErrMissingSerial) ||
		errors.Is(err, requestservice.ErrMissingFiscalCode) ||
		errors.Is(err, requestservice.ErrInvalidStatus) ||
		errors.Is(err, podsummarydomain.ErrMissingPodCode) ||
		errors.Is(err, podsummarydomain.ErrMissingCustomer)
}
