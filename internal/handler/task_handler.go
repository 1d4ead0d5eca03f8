package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/location-bridge-go/internal/models"
	"github.com/jengzang/location-bridge-go/internal/service"
	"github.com/jengzang/location-bridge-go/pkg/response"
)

// TaskHandler handles HTTP requests for background tasks
type TaskHandler struct {
	service *service.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(service *service.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// StartLocationUpdates handles POST /api/v1/tasks/location/:name
func (h *TaskHandler) StartLocationUpdates(c *gin.Context) {
	var opts models.LocationTaskOptions
	if err := bindOptionalJSON(c, &opts); err != nil {
		response.BadRequest(c, "Invalid task options")
		return
	}

	name := c.Param("name")
	if err := h.service.StartLocationUpdates(c.Request.Context(), name, opts); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{"taskName": name, "started": true})
}

// StopLocationUpdates handles DELETE /api/v1/tasks/location/:name
func (h *TaskHandler) StopLocationUpdates(c *gin.Context) {
	name := c.Param("name")
	if err := h.service.StopLocationUpdates(c.Request.Context(), name); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{"taskName": name, "started": false})
}

// HasStartedLocationUpdates handles GET /api/v1/tasks/location/:name
func (h *TaskHandler) HasStartedLocationUpdates(c *gin.Context) {
	status, err := h.service.HasStartedLocationUpdates(c.Request.Context(), c.Param("name"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, status)
}

// StartGeofencing handles POST /api/v1/tasks/geofencing/:name
func (h *TaskHandler) StartGeofencing(c *gin.Context) {
	var opts models.GeofencingTaskOptions
	if err := c.ShouldBindJSON(&opts); err != nil {
		response.BadRequest(c, "Invalid geofencing options")
		return
	}

	name := c.Param("name")
	if err := h.service.StartGeofencing(c.Request.Context(), name, opts); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{"taskName": name, "started": true})
}

// StopGeofencing handles DELETE /api/v1/tasks/geofencing/:name
func (h *TaskHandler) StopGeofencing(c *gin.Context) {
	name := c.Param("name")
	if err := h.service.StopGeofencing(c.Request.Context(), name); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{"taskName": name, "started": false})
}

// HasStartedGeofencing handles GET /api/v1/tasks/geofencing/:name
func (h *TaskHandler) HasStartedGeofencing(c *gin.Context) {
	status, err := h.service.HasStartedGeofencing(c.Request.Context(), c.Param("name"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, status)
}
