package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	requestdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/request/domain"
)

type admissibilityPayload struct {
	RequestID  string         `json:"request_id"`
	Pod        string         `json:"pod"`
	FiscalCode string         `json:"fiscal_code"`
	Status     string         `json:"status"`
	Message    string         `json:"message"`
	Group      string         `json:"group"`
	Metadata   map[string]any `json:"metadata"`
}

type associationPayload struct {
	RequestID      string         `json:"request_id"`
	Pod            string         `json:"pod"`
	Serial         string         `json:"serial"`
	PodMType       string         `json:"pod_m_type"`
	UserType       string         `json:"user_type"`
	FiscalCode     string         `json:"fiscal_code"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Email          string         `json:"email"`
	ContractSigned bool           `json:"contract_signed"`
	Product        string         `json:"product"`
	Status         string         `json:"status"`
	Message        string         `json:"message"`
	Group          string         `json:"group"`
	Metadata       map[string]any `json:"metadata"`
}

func (s *Server) ListAdmissibility(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	requests, err := s.requestSvc.ListAdmissibility(c.Request.Context(), companyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

func (s *Server) UpsertAdmissibility(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var payload admissibilityPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := requestdomain.AdmissibilityRequest{
		CompanyID:  companyID,
		RequestID:  payload.RequestID,
		Pod:        payload.Pod,
		FiscalCode: payload.FiscalCode,
		Status:     payload.Status,
		Message:    payload.Message,
		Group:      payload.Group,
		Metadata:   datatypes.JSONMap(payload.Metadata),
	}
	created, err := s.requestSvc.UpsertAdmissibility(c.Request.Context(), &req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"request": req, "created": created})
}

func (s *Server) DeleteAdmissibility(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.requestSvc.DeleteAdmissibility(c.Request.Context(), companyID, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) ListAssociation(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	requests, err := s.requestSvc.ListAssociation(c.Request.Context(), companyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

func (s *Server) UpsertAssociation(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var payload associationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := requestdomain.AssociationRequest{
		CompanyID:      companyID,
		RequestID:      payload.RequestID,
		Pod:            payload.Pod,
		Serial:         payload.Serial,
		PodMType:       payload.PodMType,
		UserType:       payload.UserType,
		FiscalCode:     payload.FiscalCode,
		FirstName:      payload.FirstName,
		LastName:       payload.LastName,
		Email:          payload.Email,
		ContractSigned: payload.ContractSigned,
		Product:        payload.Product,
		Status:         payload.Status,
		Message:        payload.Message,
		Group:          payload.Group,
		Metadata:       datatypes.JSONMap(payload.Metadata),
	}
	created, err := s.requestSvc.UpsertAssociation(c.Request.Context(), &req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"request": req, "created": created})
}

func (s *Server) DeleteAssociation(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.requestSvc.DeleteAssociation(c.Request.Context(), companyID, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) ListDisassociation(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	requests, err := s.requestSvc.ListDisassociation(c.Request.Context(), companyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

func (s *Server) UpsertDisassociation(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var payload associationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := requestdomain.DisassociationRequest{
		CompanyID:  companyID,
		RequestID:  payload.RequestID,
		Pod:        payload.Pod,
		Serial:     payload.Serial,
		PodMType:   payload.PodMType,
		UserType:   payload.UserType,
		FiscalCode: payload.FiscalCode,
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		Email:      payload.Email,
		Status:     payload.Status,
		Message:    payload.Message,
		Group:      payload.Group,
		Metadata:   datatypes.JSONMap(payload.Metadata),
	}
	created, err := s.requestSvc.UpsertDisassociation(c.Request.Context(), &req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"request": req, "created": created})
}

func (s *Server) DeleteDisassociation(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.requestSvc.DeleteDisassociation(c.Request.Context(), companyID, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
