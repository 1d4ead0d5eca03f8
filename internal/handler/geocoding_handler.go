package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/location-bridge-go/internal/models"
	"github.com/jengzang/location-bridge-go/internal/service"
	"github.com/jengzang/location-bridge-go/pkg/response"
)

// GeocodingHandler handles HTTP requests for forward and reverse geocoding
type GeocodingHandler struct {
	service *service.LocationService
}

// NewGeocodingHandler creates a new geocoding handler
func NewGeocodingHandler(service *service.LocationService) *GeocodingHandler {
	return &GeocodingHandler{service: service}
}

// ForwardRequest is the body of a forward geocoding request
type ForwardRequest struct {
	Address string `json:"address" binding:"required"`
}

// Forward resolves an address into locations
// POST /api/v1/geocoding/forward
func (h *GeocodingHandler) Forward(c *gin.Context) {
	var req ForwardRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Address) == "" {
		response.BadRequest(c, "Address is required")
		return
	}

	locations, err := h.service.Geocode(c.Request.Context(), req.Address)
	if err != nil {
		handleError(c, err)
		return
	}
	if locations == nil {
		locations = []models.Location{}
	}

	response.Success(c, locations)
}

// Reverse resolves coordinates into addresses
// POST /api/v1/geocoding/reverse
func (h *GeocodingHandler) Reverse(c *gin.Context) {
	var coords models.Coords
	if err := c.ShouldBindJSON(&coords); err != nil {
		response.BadRequest(c, "Invalid coordinates")
		return
	}

	addresses, err := h.service.ReverseGeocode(c.Request.Context(), coords)
	if err != nil {
		handleError(c, err)
		return
	}
	if addresses == nil {
		addresses = []models.Address{}
	}

	response.Success(c, addresses)
}
