package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/location-bridge-go/internal/models"
	"github.com/jengzang/location-bridge-go/internal/service"
	"github.com/jengzang/location-bridge-go/pkg/response"
)

// LocationHandler handles HTTP requests for positions, watches and permissions
type LocationHandler struct {
	service *service.LocationService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(service *service.LocationService) *LocationHandler {
	return &LocationHandler{service: service}
}

// GetCurrentPosition handles POST /api/v1/location/current
func (h *LocationHandler) GetCurrentPosition(c *gin.Context) {
	var opts models.LocationOptions
	if err := bindOptionalJSON(c, &opts); err != nil {
		response.BadRequest(c, "Invalid location options")
		return
	}

	loc, err := h.service.GetCurrentPosition(c.Request.Context(), opts)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, loc)
}

// WatchPosition handles POST /api/v1/location/watches/:id
func (h *LocationHandler) WatchPosition(c *gin.Context) {
	watchID, ok := parseWatchID(c)
	if !ok {
		return
	}
	var opts models.LocationOptions
	if err := bindOptionalJSON(c, &opts); err != nil {
		response.BadRequest(c, "Invalid location options")
		return
	}

	if err := h.service.WatchPosition(c.Request.Context(), watchID, opts); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{"watchId": watchID})
}

// RemoveWatch handles DELETE /api/v1/location/watches/:id
func (h *LocationHandler) RemoveWatch(c *gin.Context) {
	watchID, ok := parseWatchID(c)
	if !ok {
		return
	}

	if err := h.service.RemoveWatch(watchID); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{"watchId": watchID})
}

// ListWatches handles GET /api/v1/location/watches
func (h *LocationHandler) ListWatches(c *gin.Context) {
	ids := h.service.ActiveWatches()
	if ids == nil {
		ids = []int{}
	}
	response.Success(c, gin.H{"watchIds": ids})
}

// WatchHeading handles POST /api/v1/location/heading/:id
func (h *LocationHandler) WatchHeading(c *gin.Context) {
	watchID, ok := parseWatchID(c)
	if !ok {
		return
	}

	if err := h.service.WatchHeading(c.Request.Context(), watchID); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{"watchId": watchID})
}

// GetProviderStatus handles GET /api/v1/location/provider-status
func (h *LocationHandler) GetProviderStatus(c *gin.Context) {
	status, err := h.service.ProviderStatus()
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, status)
}

// HasServicesEnabled handles GET /api/v1/location/services-enabled
func (h *LocationHandler) HasServicesEnabled(c *gin.Context) {
	response.Success(c, gin.H{"enabled": h.service.HasServicesEnabled()})
}

// RequestPermissions handles POST /api/v1/location/permissions
func (h *LocationHandler) RequestPermissions(c *gin.Context) {
	status, err := h.service.RequestPermissions(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, status)
}

// EnableBetterAccuracy handles POST /api/v1/location/accuracy
func (h *LocationHandler) EnableBetterAccuracy(c *gin.Context) {
	if err := h.service.EnableBetterAccuracy(c.Request.Context()); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{"enabled": true})
}

// Lifecycle handles POST /api/v1/lifecycle/:state
func (h *LocationHandler) Lifecycle(c *gin.Context) {
	state := c.Param("state")
	if err := h.service.Lifecycle(state); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{"state": state})
}

func parseWatchID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid watch ID")
		return 0, false
	}
	return id, true
}
