package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	companydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/company/domain"
)

type podAuthorizationPayload struct {
	PodCode      string `json:"pod_code"`
	PodName      string `json:"pod_name"`
	IsActive     *bool  `json:"is_active"`
	Chain2GateID string `json:"chain2gate_id"`
}

type permissionsPayload struct {
	PartnerEnergia              bool `json:"partner_energia"`
	ConfigurazioneAmmissibilita bool `json:"configurazione_ammissibilita"`
	ConfigurazioneAssociazione  bool `json:"configurazione_associazione"`
	Magazzino                   bool `json:"magazzino"`
	Spedizione                  bool `json:"spedizione"`
	Monitoraggio                bool `json:"monitoraggio"`
}

func (s *Server) ListAuthorizedPods(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	pods, err := s.authz.GetAuthorizedPods(c.Request.Context(), companyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pods": pods})
}

func (s *Server) UpsertPodAuthorization(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var payload podAuthorizationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(payload.PodCode) == "" {
		AbortWithError(c, newValidationError("pod_code", "required", "pod_code is required"))
		return
	}

	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	auth := companydomain.PodAuthorization{
		CompanyID:    companyID,
		PodCode:      strings.TrimSpace(payload.PodCode),
		PodName:      strings.TrimSpace(payload.PodName),
		IsActive:     active,
		Chain2GateID: strings.TrimSpace(payload.Chain2GateID),
	}
	if err := s.companyRepo.UpsertPodAuthorization(c.Request.Context(), s.db, &auth); err != nil {
		AbortWithError(c, err)
		return
	}
	// Authorization changed: drop the cached POD set.
	s.authz.InvalidateCompany(companyID)
	c.JSON(http.StatusOK, gin.H{"authorization": auth})
}

func (s *Server) SetCompanyPermissions(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var payload permissionsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	perms := companydomain.CompanyPermissions{
		CompanyID:                   companyID,
		PartnerEnergia:              payload.PartnerEnergia,
		ConfigurazioneAmmissibilita: payload.ConfigurazioneAmmissibilita,
		ConfigurazioneAssociazione:  payload.ConfigurazioneAssociazione,
		Magazzino:                   payload.Magazzino,
		Spedizione:                  payload.Spedizione,
		Monitoraggio:                payload.Monitoraggio,
	}
	if err := s.companyRepo.SetPermissions(c.Request.Context(), s.db, &perms); err != nil {
		AbortWithError(c, err)
		return
	}
	s.authz.InvalidateCompany(companyID)
	c.JSON(http.StatusOK, gin.H{"permissions": perms})
}
