package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/location-bridge-go/internal/location"
)

// Response represents a standard API response
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the body sent for a typed location error
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// Success sends a successful response
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error sends an error response
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound sends a 404 not found response
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError sends a 500 internal server error response
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// LocationError sends a typed location error with its stable code, falling
// back to a 500 for anything else
func LocationError(c *gin.Context, err error) {
	var locErr *location.Error
	if !errors.As(err, &locErr) {
		InternalError(c, err.Error())
		return
	}
	c.JSON(StatusFor(locErr.Kind), ErrorResponse{
		Code:    locErr.Code(),
		Message: locErr.Error(),
		Kind:    string(locErr.Kind),
	})
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind location.Kind) int {
	switch kind {
	case location.KindUnauthorized, location.KindRequestRejected:
		return http.StatusForbidden
	case location.KindSettingsUnsatisfied:
		return http.StatusConflict
	case location.KindTimeout:
		return http.StatusGatewayTimeout
	case location.KindUnavailable, location.KindGeocoderUnavailable, location.KindContextUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
