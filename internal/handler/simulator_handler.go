package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/location-bridge-go/internal/models"
	"github.com/jengzang/location-bridge-go/internal/service"
	"github.com/jengzang/location-bridge-go/internal/simulator"
	"github.com/jengzang/location-bridge-go/pkg/response"
)

// SimulatorHandler handles HTTP requests that drive the simulated device
type SimulatorHandler struct {
	service *service.SimulatorService
}

// NewSimulatorHandler creates a new simulator handler
func NewSimulatorHandler(service *service.SimulatorService) *SimulatorHandler {
	return &SimulatorHandler{service: service}
}

// InjectFix handles POST /api/v1/simulator/fixes
func (h *SimulatorHandler) InjectFix(c *gin.Context) {
	var loc models.Location
	if err := c.ShouldBindJSON(&loc); err != nil {
		response.BadRequest(c, "Invalid location")
		return
	}

	if err := h.service.InjectFix(c.Request.Context(), loc); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, nil)
}

// GetFixes handles GET /api/v1/simulator/fixes
func (h *SimulatorHandler) GetFixes(c *gin.Context) {
	var filter models.TrackPointFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.service.GetFixes(c.Request.Context(), filter)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, result)
}

// InjectSensors handles POST /api/v1/simulator/sensors
func (h *SimulatorHandler) InjectSensors(c *gin.Context) {
	var sample simulator.SensorSample
	if err := c.ShouldBindJSON(&sample); err != nil {
		response.BadRequest(c, "Invalid sensor sample")
		return
	}

	if err := h.service.InjectSensors(sample); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, nil)
}

// AvailabilityRequest toggles the simulated location services
type AvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// SetAvailability handles POST /api/v1/simulator/availability
func (h *SimulatorHandler) SetAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "available is required")
		return
	}

	response.Success(c, h.service.SetAvailability(*req.Available))
}
