package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jengzang/location-bridge-go/internal/location"
	"github.com/jengzang/location-bridge-go/internal/models"
)

// ErrUnknownLifecycleState is returned for a host state other than resume, pause or destroy
var ErrUnknownLifecycleState = errors.New("unknown lifecycle state")

// Lifecycle states reported by the host
const (
	LifecycleResume  = "resume"
	LifecyclePause   = "pause"
	LifecycleDestroy = "destroy"
)

// Host is the foreground side of the device the bridge runs on
type Host interface {
	SetForeground(foreground bool)
}

// PermissionStatus is the answer to a permission request
type PermissionStatus struct {
	Status string `json:"status"` // granted or denied
	Scope  string `json:"scope"`  // fine, coarse or none
}

// LocationService exposes the coordinator operations to the HTTP bridge
type LocationService struct {
	coordinator *location.Coordinator
	permissions location.PermissionProvider
	host        Host
	logger      *slog.Logger
}

// NewLocationService creates a new location service. permissions and host may be nil.
func NewLocationService(coordinator *location.Coordinator, permissions location.PermissionProvider, host Host, logger *slog.Logger) *LocationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocationService{
		coordinator: coordinator,
		permissions: permissions,
		host:        host,
		logger:      logger,
	}
}

// GetCurrentPosition resolves a single fix
func (s *LocationService) GetCurrentPosition(ctx context.Context, opts models.LocationOptions) (models.Location, error) {
	return s.coordinator.GetCurrentPosition(ctx, opts)
}

// WatchPosition starts a persistent watch; fixes are streamed as locationChanged events
func (s *LocationService) WatchPosition(ctx context.Context, watchID int, opts models.LocationOptions) error {
	if err := s.coordinator.WatchPosition(ctx, watchID, opts); err != nil {
		return err
	}
	s.logger.Info("location watch started", "watch_id", watchID)
	return nil
}

// WatchHeading starts the compass stream for watchID
func (s *LocationService) WatchHeading(ctx context.Context, watchID int) error {
	if err := s.coordinator.WatchHeading(ctx, watchID); err != nil {
		return err
	}
	s.logger.Info("heading watch started", "watch_id", watchID)
	return nil
}

// RemoveWatch stops a location or heading watch
func (s *LocationService) RemoveWatch(watchID int) error {
	return s.coordinator.RemoveWatch(watchID)
}

// ActiveWatches lists the ids of running location watches
func (s *LocationService) ActiveWatches() []int {
	return s.coordinator.ActiveWatches()
}

// ProviderStatus reports the provider availability
func (s *LocationService) ProviderStatus() (models.ProviderStatus, error) {
	return s.coordinator.ProviderStatus()
}

// HasServicesEnabled reports whether any provider can deliver fixes
func (s *LocationService) HasServicesEnabled() bool {
	return s.coordinator.HasServicesEnabled()
}

// RequestPermissions prompts for location access and reports the resulting scope
func (s *LocationService) RequestPermissions(ctx context.Context) (PermissionStatus, error) {
	err := s.coordinator.RequestPermissions(ctx)
	if err != nil && !errors.Is(err, location.ErrUnauthorized) {
		return PermissionStatus{}, err
	}
	status := s.permissionStatus()
	if err != nil {
		status.Status = "denied"
	}
	return status, nil
}

func (s *LocationService) permissionStatus() PermissionStatus {
	switch {
	case s.permissions == nil:
		return PermissionStatus{Status: "denied", Scope: "none"}
	case s.permissions.HasCapability(location.CapabilityFine):
		return PermissionStatus{Status: "granted", Scope: "fine"}
	case s.permissions.HasCapability(location.CapabilityCoarse):
		return PermissionStatus{Status: "granted", Scope: "coarse"}
	default:
		return PermissionStatus{Status: "denied", Scope: "none"}
	}
}

// EnableBetterAccuracy asks the user to turn on high accuracy location
func (s *LocationService) EnableBetterAccuracy(ctx context.Context) error {
	return s.coordinator.EnableBetterAccuracy(ctx)
}

// Geocode resolves an address into locations
func (s *LocationService) Geocode(ctx context.Context, address string) ([]models.Location, error) {
	return s.coordinator.Geocode(ctx, address)
}

// ReverseGeocode resolves coordinates into addresses
func (s *LocationService) ReverseGeocode(ctx context.Context, coords models.Coords) ([]models.Address, error) {
	return s.coordinator.ReverseGeocode(ctx, coords)
}

// Lifecycle applies a host lifecycle transition
func (s *LocationService) Lifecycle(state string) error {
	switch state {
	case LifecycleResume:
		if s.host != nil {
			s.host.SetForeground(true)
		}
		s.coordinator.OnHostResume()
	case LifecyclePause:
		s.coordinator.OnHostPause()
		if s.host != nil {
			s.host.SetForeground(false)
		}
	case LifecycleDestroy:
		s.coordinator.OnHostDestroy()
		if s.host != nil {
			s.host.SetForeground(false)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLifecycleState, state)
	}
	s.logger.Info("host lifecycle changed", "state", state)
	return nil
}
