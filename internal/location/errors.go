package location

import "fmt"

// Kind classifies every failure the engine can surface to a caller
type Kind string

// Error kinds
const (
	KindUnauthorized        Kind = "Unauthorized"
	KindSettingsUnsatisfied Kind = "SettingsUnsatisfied"
	KindTimeout             Kind = "Timeout"
	KindUnavailable         Kind = "Unavailable"
	KindRequestRejected     Kind = "RequestRejected"
	KindGeocoderUnavailable Kind = "GeocoderUnavailable"
	KindContextUnavailable  Kind = "ContextUnavailable"
)

var kindCodes = map[Kind]string{
	KindUnauthorized:        "E_LOCATION_UNAUTHORIZED",
	KindSettingsUnsatisfied: "E_LOCATION_SETTINGS_UNSATISFIED",
	KindTimeout:             "E_LOCATION_TIMEOUT",
	KindUnavailable:         "E_LOCATION_UNAVAILABLE",
	KindRequestRejected:     "E_LOCATION_REQUEST_REJECTED",
	KindGeocoderUnavailable: "E_NO_GEOCODER",
	KindContextUnavailable:  "E_CONTEXT_UNAVAILABLE",
}

var kindMessages = map[Kind]string{
	KindUnauthorized:        "Not authorized to use location services",
	KindSettingsUnsatisfied: "Location request failed due to unsatisfied device settings",
	KindTimeout:             "Location request timed out",
	KindUnavailable:         "Location provider is unavailable. Make sure that location services are enabled",
	KindRequestRejected:     "Location updates request rejected",
	KindGeocoderUnavailable: "Geocoder service is not available for this device",
	KindContextUnavailable:  "Context is not available",
}

// Code returns the stable wire code for the kind
func (k Kind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return "E_LOCATION_UNKNOWN"
}

// Error is a rejected result carrying a stable kind tag
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = kindMessages[e.Kind]
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code(), msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), msg)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Code returns the stable wire code
func (e *Error) Code() string {
	return e.Kind.Code()
}

// Sentinels for errors.Is
var (
	ErrUnauthorized        = &Error{Kind: KindUnauthorized}
	ErrSettingsUnsatisfied = &Error{Kind: KindSettingsUnsatisfied}
	ErrTimeout             = &Error{Kind: KindTimeout}
	ErrUnavailable         = &Error{Kind: KindUnavailable}
	ErrRequestRejected     = &Error{Kind: KindRequestRejected}
	ErrGeocoderUnavailable = &Error{Kind: KindGeocoderUnavailable}
	ErrContextUnavailable  = &Error{Kind: KindContextUnavailable}
)

func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

// NewError builds an error of the given kind with a custom message
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}
