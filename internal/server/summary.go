package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	podsummarydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/podsummary/domain"
)

type createSummaryRequest struct {
	PodCode    string `json:"pod_code"`
	CustomerID string `json:"customer_id"`
}

type shippingActionFunc func(ctx context.Context, companyID, summaryID snowflake.ID) (*podsummarydomain.PodSummary, error)

func (s *Server) ListSummaries(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	summaries, err := s.summarySvc.List(c.Request.Context(), companyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": summaries})
}

func (s *Server) GetSummary(c *gin.Context) {
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
	summary, err := s.summarySvc.Get(c.Request.Context(), companyID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary":       summary,
		"next_statuses": summary.Status.NextStatuses(),
		"capabilities": gin.H{
			"can_request_admissibility": summary.Status.CanRequestAdmissibility(),
			"can_request_shipping":      summary.Status.CanRequestShipping(),
			"can_request_association":   summary.Status.CanRequestAssociation(),
			"can_request_dissociation":  summary.Status.CanRequestDissociation(),
		},
	})
}

func (s *Server) CreateOrGetSummary(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var req createSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	customerID, err := parseID(req.CustomerID, "customer_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	summary, created, err := s.summarySvc.CreateOrGet(c.Request.Context(), companyID, req.PodCode, customerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"summary": summary, "created": created})
}

func (s *Server) SyncSummaries(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	result, err := s.summarySvc.SyncFromRequests(c.Request.Context(), companyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

func (s *Server) RefreshAllStatuses(c *gin.Context) {
	changed, err := s.summarySvc.BatchUpdateAllStatuses(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

func (s *Server) RecomputeSummary(c *gin.Context) {
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
	summary, err := s.summarySvc.Get(c.Request.Context(), companyID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.summarySvc.Recompute(c.Request.Context(), companyID, summary.PodCode, summary.CustomerFiscalCode); err != nil {
		AbortWithError(c, err)
		return
	}
	refreshed, err := s.summarySvc.Get(c.Request.Context(), companyID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": refreshed})
}

func (s *Server) RequestShipping(c *gin.Context) {
	s.shippingAction(c, s.summarySvc.RequestShipping)
}

func (s *Server) MarkShippingDispatched(c *gin.Context) {
	s.shippingAction(c, s.summarySvc.MarkShippingDispatched)
}

func (s *Server) MarkShippingDelivered(c *gin.Context) {
	s.shippingAction(c, s.summarySvc.MarkShippingDelivered)
}

func (s *Server) MarkShippingFailed(c *gin.Context) {
	s.shippingAction(c, s.summarySvc.MarkShippingFailed)
}

func (s *Server) shippingAction(c *gin.Context, action shippingActionFunc) {
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
	summary, err := action(c.Request.Context(), companyID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func parseID(raw, field string) (snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, newValidationError(field, "invalid", field+" must be a numeric id")
	}
	return snowflake.ID(id), nil
}
