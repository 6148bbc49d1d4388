package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/service"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/middleware"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/response"
)

// AlertHandler handles venue alert HTTP requests
type AlertHandler struct {
	alertService service.AlertService
}

// NewAlertHandler creates a new AlertHandler
func NewAlertHandler(alertService service.AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// Evaluate handles POST /venues/:id/alerts/evaluate (admin only)
func (h *AlertHandler) Evaluate(c *gin.Context) {
	venueID := c.Param("id")
	middleware.SetAuditResource(c, "venue", venueID)

	result, err := h.alertService.Evaluate(c.Request.Context(), venueID)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetAuditMetadata(c, map[string]interface{}{"fired": result.FiredCount})
	c.JSON(http.StatusOK, response.Success(result))
}

// Trigger handles POST /alerts/:id/trigger (admin only)
func (h *AlertHandler) Trigger(c *gin.Context) {
	alertID := c.Param("id")
	middleware.SetAuditResource(c, "alert", alertID)

	result, err := h.alertService.Trigger(c.Request.Context(), alertID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}
