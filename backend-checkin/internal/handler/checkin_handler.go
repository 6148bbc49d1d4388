package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/dto"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/service"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/middleware"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/response"
)

// CheckInHandler handles gate scan HTTP requests
type CheckInHandler struct {
	checkInService service.CheckInService
}

// NewCheckInHandler creates a new CheckInHandler
func NewCheckInHandler(checkInService service.CheckInService) *CheckInHandler {
	return &CheckInHandler{
		checkInService: checkInService,
	}
}

// CheckIn handles POST /checkin - admits a ticket
func (h *CheckInHandler) CheckIn(c *gin.Context) {
	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}
	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.BadRequest(msg))
		return
	}

	operatorID, ok := middleware.GetOperatorID(c)
	if !ok || operatorID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("Operator ID not found in token"))
		return
	}

	middleware.SetAuditResource(c, "ticket", req.TicketCode)

	result, err := h.checkInService.Admit(c.Request.Context(), req.TicketCode, operatorID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Inspect handles GET /checkin/:code - pre-flight view of a ticket
func (h *CheckInHandler) Inspect(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Ticket code is required"))
		return
	}

	result, err := h.checkInService.Inspect(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Revert handles DELETE /checkin/:code - clears an admission (admin only)
func (h *CheckInHandler) Revert(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Ticket code is required"))
		return
	}

	operatorID, _ := middleware.GetOperatorID(c)
	roleClaim, _ := middleware.GetRole(c)

	middleware.SetAuditResource(c, "ticket", code)

	result, err := h.checkInService.Revert(c.Request.Context(), code, operatorID, domain.ParseRole(roleClaim))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// SessionStats handles GET /sessions/:id/checkin-stats
func (h *CheckInHandler) SessionStats(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Session ID is required"))
		return
	}

	stats, err := h.checkInService.SessionStats(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(stats))
}

// RecentAdmissions handles GET /sessions/:id/checkins?limit=
func (h *CheckInHandler) RecentAdmissions(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Session ID is required"))
		return
	}

	var filter dto.RecentAdmissionsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid limit"))
		return
	}

	recent, err := h.checkInService.RecentAdmissions(c.Request.Context(), sessionID, &filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(recent))
}
