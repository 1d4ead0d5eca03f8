package location

import (
	"context"

	"github.com/jengzang/location-bridge-go/internal/models"
)

// Capability is a location permission the host can grant
type Capability string

// Capability constants
const (
	CapabilityFine   Capability = "fine"
	CapabilityCoarse Capability = "coarse"
)

// PermissionProvider answers and requests location permissions
type PermissionProvider interface {
	HasCapability(c Capability) bool
	// Request prompts for the capabilities and reports the grant per capability
	Request(ctx context.Context, caps []Capability) (map[Capability]bool, error)
}

// SubscriptionHandle identifies one live provider subscription
type SubscriptionHandle interface{}

// LocationProvider is the platform location service
type LocationProvider interface {
	// LastKnownLocation returns the cached device fix, nil when there is none
	LastKnownLocation(ctx context.Context) (*models.Location, error)
	// Subscribe starts delivering fixes matching req. A non-nil error means the
	// provider rejected the subscription (e.g. permission revoked at the OS layer).
	Subscribe(req models.LocationRequest, onUpdate func(models.Location), onUnavailable func()) (SubscriptionHandle, error)
	Unsubscribe(h SubscriptionHandle)
	Status() models.ProviderStatus
}

// SettingsResult is the outcome of a device settings check
type SettingsResult int

// SettingsResult constants
const (
	SettingsSatisfied SettingsResult = iota
	SettingsResolvable
	SettingsUnresolvable
)

// SettingsCheck is delivered by the settings service.
// Resolution is set only when Result is SettingsResolvable.
type SettingsCheck struct {
	Result     SettingsResult
	Resolution any
}

// SettingsChecker checks device settings against a request
type SettingsChecker interface {
	CheckSettings(req models.LocationRequest, done func(SettingsCheck))
}

// Surface is whatever the host uses to present a dialog
type Surface interface{}

// ForegroundUI exposes the current foreground surface and presents dialogs on it
type ForegroundUI interface {
	// CurrentForegroundSurface returns nil when the host runs headless
	CurrentForegroundSurface() Surface
	PresentSettingsDialog(s Surface, resolution any, done func(accepted bool)) error
}

// GeocodingProvider converts between addresses and coordinates
type GeocodingProvider interface {
	Forward(ctx context.Context, address string) ([]models.Location, error)
	Reverse(ctx context.Context, loc models.Location) ([]models.Address, error)
}

// EventSink delivers events to the UI layer, fire-and-forget
type EventSink interface {
	Emit(name string, payload any)
}

// Vector is a raw three-axis sensor sample
type Vector [3]float64

// SensorListener receives raw compass inputs
type SensorListener interface {
	OnAccelerometer(v Vector)
	OnMagnetometer(v Vector)
	OnAccuracyChanged(accuracy int)
}

// SensorProvider streams accelerometer and magnetometer samples
type SensorProvider interface {
	Start(l SensorListener) error
	Stop()
}

// BackgroundTaskManager owns background geofencing and tracking tasks
type BackgroundTaskManager interface {
	Register(ctx context.Context, taskName string, kind models.ConsumerKind, options []byte) error
	Unregister(ctx context.Context, taskName string, kind models.ConsumerKind) error
	HasConsumer(ctx context.Context, taskName string, kind models.ConsumerKind) (bool, error)
}
