package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/analyzer"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/service"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/response"
)

// ValidationHandler handles venue validation HTTP requests
type ValidationHandler struct {
	validationService service.ValidationService
	defaultThreshold  int
}

// NewValidationHandler creates a new ValidationHandler. defaultThreshold
// applies when the stock threshold query parameter is missing or malformed.
func NewValidationHandler(validationService service.ValidationService, defaultThreshold int) *ValidationHandler {
	return &ValidationHandler{
		validationService: validationService,
		defaultThreshold:  defaultThreshold,
	}
}

// Capacity handles GET /venues/:id/validation/capacity
func (h *ValidationHandler) Capacity(c *gin.Context) {
	report, err := h.validationService.CheckCapacity(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(report))
}

// Schedule handles GET /venues/:id/validation/schedule
func (h *ValidationHandler) Schedule(c *gin.Context) {
	report, err := h.validationService.CheckSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(report))
}

// Stock handles GET /venues/:id/validation/stock?threshold=
func (h *ValidationHandler) Stock(c *gin.Context) {
	threshold := analyzer.NormalizeThreshold(c.Query("threshold"), h.defaultThreshold)

	report, err := h.validationService.CheckStock(c.Request.Context(), c.Param("id"), threshold)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(report))
}
