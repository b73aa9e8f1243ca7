package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListCustomers(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	customers, err := s.customerSvc.List(c.Request.Context(), companyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

func (s *Server) GetCustomer(c *gin.Context) {
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
	customer, err := s.customerSvc.Get(c.Request.Context(), companyID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

func (s *Server) GetCustomerStats(c *gin.Context) {
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
	stats, err := s.customerSvc.Stats(c.Request.Context(), companyID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (s *Server) DeleteCustomer(c *gin.Context) {
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
	if err := s.customerSvc.Delete(c.Request.Context(), companyID, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) GetDashboard(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	data, err := s.dashboardSvc.GetDashboardData(c.Request.Context(), companyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}
