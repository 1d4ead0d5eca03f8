package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/location-bridge-go/internal/service"
	"github.com/jengzang/location-bridge-go/internal/taskmanager"
	"github.com/jengzang/location-bridge-go/pkg/response"
)

// handleError maps validation errors to 400 and everything else through the location error table
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, taskmanager.ErrInvalidTaskName),
		errors.Is(err, taskmanager.ErrUnknownConsumer),
		errors.Is(err, taskmanager.ErrInvalidOptions),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrUnknownLifecycleState):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrSensorsNotRunning):
		response.Error(c, http.StatusConflict, err.Error())
	default:
		response.LocationError(c, err)
	}
}

// bindOptionalJSON binds the body when one was sent; an empty body keeps the zero value
func bindOptionalJSON(c *gin.Context, v any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
