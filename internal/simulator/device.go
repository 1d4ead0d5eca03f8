// Package simulator provides an in-process device that implements every platform
// collaborator the location coordinator needs. Fixes, sensor samples and
// provider outages are injected through its methods.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jengzang/location-bridge-go/internal/location"
	"github.com/jengzang/location-bridge-go/internal/models"
	"github.com/jengzang/location-bridge-go/internal/spatial"
)

// ErrPermissionRevoked is returned by Subscribe when the device holds no location permission
var ErrPermissionRevoked = errors.New("location permission revoked")

// ErrSurfaceGone is returned when a dialog targets a surface that is no longer in the foreground
var ErrSurfaceGone = errors.New("surface is no longer in the foreground")

// FixStore records injected fixes
type FixStore interface {
	Insert(ctx context.Context, p models.TrackPoint) (int64, error)
	Latest(ctx context.Context) (*models.TrackPoint, error)
}

// Config is the initial device state
type Config struct {
	PermissionFine   bool
	PermissionCoarse bool
	// PromptGrants decides the answer to a permission prompt
	PromptGrants bool
	Foreground   bool
	// HighAccuracy means the device location mode already satisfies every request
	HighAccuracy    bool
	NetworkProvider bool
	// DialogAccepts decides the answer to the settings dialog
	DialogAccepts bool
}

// DefaultConfig is a foreground device with location permission and only GPS enabled
func DefaultConfig() Config {
	return Config{
		PermissionFine:   true,
		PermissionCoarse: true,
		PromptGrants:     true,
		Foreground:       true,
		DialogAccepts:    true,
	}
}

type subscription struct {
	id            uuid.UUID
	req           models.LocationRequest
	onUpdate      func(models.Location)
	onUnavailable func()
	last          *models.Location
	delivered     int
}

var (
	_ location.LocationProvider   = (*Device)(nil)
	_ location.SettingsChecker    = (*Device)(nil)
	_ location.ForegroundUI       = (*Device)(nil)
	_ location.PermissionProvider = (*Device)(nil)
	_ location.SensorProvider     = (*Device)(nil)
)

// Device is a simulated phone. It is safe for concurrent use.
type Device struct {
	store  FixStore
	logger *slog.Logger

	mu        sync.Mutex
	cfg       Config
	available bool
	surface   uuid.UUID
	subs      map[uuid.UUID]*subscription
	listener  location.SensorListener
}

// NewDevice creates a device backed by store
func NewDevice(cfg Config, store FixStore, logger *slog.Logger) *Device {
	if logger == nil {
		logger = slog.Default()
	}
	return &Device{
		store:     store,
		logger:    logger,
		cfg:       cfg,
		available: true,
		surface:   uuid.New(),
		subs:      make(map[uuid.UUID]*subscription),
	}
}

// LastKnownLocation returns the most recently injected fix
func (d *Device) LastKnownLocation(ctx context.Context) (*models.Location, error) {
	p, err := d.store.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read last known location: %w", err)
	}
	if p == nil {
		return nil, nil
	}
	loc := p.Location()
	return &loc, nil
}

// Subscribe registers a listener for injected fixes
func (d *Device) Subscribe(req models.LocationRequest, onUpdate func(models.Location), onUnavailable func()) (location.SubscriptionHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.cfg.PermissionFine && !d.cfg.PermissionCoarse {
		return nil, ErrPermissionRevoked
	}

	sub := &subscription{
		id:            uuid.New(),
		req:           req,
		onUpdate:      onUpdate,
		onUnavailable: onUnavailable,
	}
	d.subs[sub.id] = sub
	d.logger.Debug("provider subscription added", "handle", sub.id, "priority", req.Priority, "interval", req.Interval)
	return sub.id, nil
}

// Unsubscribe drops a subscription. Unknown handles are ignored.
func (d *Device) Unsubscribe(h location.SubscriptionHandle) {
	id, ok := h.(uuid.UUID)
	if !ok {
		return
	}
	d.mu.Lock()
	delete(d.subs, id)
	d.mu.Unlock()
}

// Status reports the simulated provider state
func (d *Device) Status() models.ProviderStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return models.ProviderStatus{
		LocationServicesEnabled: d.available,
		GPSAvailable:            d.available,
		NetworkAvailable:        d.available && d.cfg.NetworkProvider,
		PassiveAvailable:        d.available,
	}
}

// Subscriptions returns the number of live provider subscriptions
func (d *Device) Subscriptions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

// InjectFix records a fix and delivers it to every subscription whose
// interval and displacement constraints it satisfies.
func (d *Device) InjectFix(ctx context.Context, loc models.Location) error {
	if loc.Timestamp == 0 {
		loc.Timestamp = time.Now().UnixMilli()
	}
	loc.Mocked = true

	if _, err := d.store.Insert(ctx, models.TrackPointFromLocation(loc)); err != nil {
		return err
	}

	var deliveries []func(models.Location)
	d.mu.Lock()
	if !d.available {
		d.mu.Unlock()
		return nil
	}
	for id, sub := range d.subs {
		if !sub.accepts(loc) {
			continue
		}
		fix := loc
		sub.last = &fix
		sub.delivered++
		deliveries = append(deliveries, sub.onUpdate)
		if sub.req.NumUpdates > 0 && sub.delivered >= sub.req.NumUpdates {
			delete(d.subs, id)
		}
	}
	d.mu.Unlock()

	for _, deliver := range deliveries {
		deliver(loc)
	}
	return nil
}

func (s *subscription) accepts(loc models.Location) bool {
	if s.last == nil {
		return true
	}
	elapsed := time.Duration(loc.Timestamp-s.last.Timestamp) * time.Millisecond
	if elapsed < s.req.FastestInterval {
		return false
	}
	return spatial.Displacement(s.last.Coords, loc.Coords) >= s.req.SmallestDisplacement
}

// SetAvailability turns the location services on or off. Turning them off
// notifies every subscription.
func (d *Device) SetAvailability(available bool) {
	var notify []func()
	d.mu.Lock()
	changed := d.available != available
	d.available = available
	if changed && !available {
		for _, sub := range d.subs {
			notify = append(notify, sub.onUnavailable)
		}
	}
	d.mu.Unlock()

	d.logger.Info("location services availability changed", "available", available)
	for _, fn := range notify {
		fn()
	}
}

// SetForeground moves the host to the foreground or background. Each
// foreground transition gets a fresh surface.
func (d *Device) SetForeground(foreground bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if foreground && !d.cfg.Foreground {
		d.surface = uuid.New()
	}
	d.cfg.Foreground = foreground
}

// SetPermissions changes the currently held capabilities
func (d *Device) SetPermissions(fine, coarse bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg.PermissionFine = fine
	d.cfg.PermissionCoarse = coarse
}

// HasCapability implements location.PermissionProvider
func (d *Device) HasCapability(c location.Capability) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch c {
	case location.CapabilityFine:
		return d.cfg.PermissionFine
	case location.CapabilityCoarse:
		return d.cfg.PermissionCoarse
	}
	return false
}

// Request implements location.PermissionProvider. The prompt only shows while no
// location capability is held; a device already granted coarse stays coarse.
// Granted capabilities stay granted.
func (d *Device) Request(ctx context.Context, caps []location.Capability) (map[location.Capability]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.cfg.PermissionFine && !d.cfg.PermissionCoarse && d.cfg.PromptGrants {
		for _, c := range caps {
			switch c {
			case location.CapabilityFine:
				d.cfg.PermissionFine = true
			case location.CapabilityCoarse:
				d.cfg.PermissionCoarse = true
			}
		}
	}

	result := make(map[location.Capability]bool, len(caps))
	for _, c := range caps {
		switch c {
		case location.CapabilityFine:
			result[c] = d.cfg.PermissionFine
		case location.CapabilityCoarse:
			result[c] = d.cfg.PermissionCoarse
		}
	}
	return result, nil
}

// settingsResolution is handed to the dialog when the device mode can be raised
type settingsResolution struct {
	priority models.Priority
}

// CheckSettings implements location.SettingsChecker. The answer arrives asynchronously.
func (d *Device) CheckSettings(req models.LocationRequest, done func(location.SettingsCheck)) {
	d.mu.Lock()
	check := location.SettingsCheck{Result: location.SettingsUnresolvable}
	switch {
	case !d.available:
	case d.cfg.HighAccuracy:
		check.Result = location.SettingsSatisfied
	default:
		check.Result = location.SettingsResolvable
		check.Resolution = settingsResolution{priority: req.Priority}
	}
	d.mu.Unlock()

	go done(check)
}

// CurrentForegroundSurface implements location.ForegroundUI
func (d *Device) CurrentForegroundSurface() location.Surface {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.cfg.Foreground {
		return nil
	}
	return d.surface
}

// PresentSettingsDialog implements location.ForegroundUI. Accepting the
// dialog switches the device to high accuracy mode with the network provider on.
func (d *Device) PresentSettingsDialog(s location.Surface, resolution any, done func(bool)) error {
	d.mu.Lock()
	id, ok := s.(uuid.UUID)
	if !ok || !d.cfg.Foreground || id != d.surface {
		d.mu.Unlock()
		return ErrSurfaceGone
	}
	if _, ok := resolution.(settingsResolution); !ok {
		d.mu.Unlock()
		return fmt.Errorf("unexpected settings resolution %T", resolution)
	}
	accepted := d.cfg.DialogAccepts
	if accepted {
		d.cfg.HighAccuracy = true
		d.cfg.NetworkProvider = true
	}
	d.mu.Unlock()

	d.logger.Info("settings dialog answered", "accepted", accepted)
	go done(accepted)
	return nil
}

// Start implements location.SensorProvider
func (d *Device) Start(l location.SensorListener) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listener = l
	return nil
}

// Stop implements location.SensorProvider
func (d *Device) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listener = nil
}

// SensorSample is one injected reading; nil fields are not delivered
type SensorSample struct {
	Accelerometer *location.Vector `json:"accelerometer,omitempty"`
	Magnetometer  *location.Vector `json:"magnetometer,omitempty"`
	Accuracy      *int             `json:"accuracy,omitempty"`
}

// InjectSensors forwards a sample to the running sensor listener and reports
// whether one was running.
func (d *Device) InjectSensors(s SensorSample) bool {
	d.mu.Lock()
	l := d.listener
	d.mu.Unlock()
	if l == nil {
		return false
	}

	if s.Accuracy != nil {
		l.OnAccuracyChanged(*s.Accuracy)
	}
	if s.Accelerometer != nil {
		l.OnAccelerometer(*s.Accelerometer)
	}
	if s.Magnetometer != nil {
		l.OnMagnetometer(*s.Magnetometer)
	}
	return true
}
