package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	devicedomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/device/domain"
)

type devicePayload struct {
	DeviceID  string `json:"device_id"`
	DuName    string `json:"du_name"`
	PodM1     string `json:"pod_m1"`
	PodM2     string `json:"pod_m2"`
	PodM22    string `json:"pod_m2_2"`
	PodM23    string `json:"pod_m2_3"`
	PodM24    string `json:"pod_m2_4"`
	HwVersion string `json:"hw_version"`
	SwVersion string `json:"sw_version"`
	FwVersion string `json:"fw_version"`
	Mac       string `json:"mac"`
	K1        string `json:"k1"`
	K2        string `json:"k2"`
	Group     string `json:"group"`
	TypeName  string `json:"type_name"`
	Status    string `json:"status"`
}

func (s *Server) ListDevices(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if pod := c.Query("pod"); pod != "" {
		devices, err := s.deviceRepo.SearchByPod(c.Request.Context(), s.db, companyID, pod)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"devices": devices})
		return
	}

	devices, err := s.deviceRepo.ListByCompany(c.Request.Context(), s.db, companyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

func (s *Server) UpsertDevice(c *gin.Context) {
	companyID, err := s.companyIDFromRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var payload devicePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if payload.DeviceID == "" {
		AbortWithError(c, newValidationError("device_id", "required", "device_id is required"))
		return
	}

	device := devicedomain.Device{
		CompanyID: companyID,
		DeviceID:  payload.DeviceID,
		DuName:    payload.DuName,
		PodM1:     payload.PodM1,
		PodM2:     payload.PodM2,
		PodM22:    payload.PodM22,
		PodM23:    payload.PodM23,
		PodM24:    payload.PodM24,
		HwVersion: payload.HwVersion,
		SwVersion: payload.SwVersion,
		FwVersion: payload.FwVersion,
		Mac:       payload.Mac,
		K1:        payload.K1,
		K2:        payload.K2,
		Group:     payload.Group,
		TypeName:  payload.TypeName,
		Active:    true,
		Status:    payload.Status,
	}
	created, err := s.deviceRepo.CreateOrUpdate(c.Request.Context(), s.db, &device)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"device": device, "created": created})
}
