package location

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jengzang/location-bridge-go/internal/heading"
	"github.com/jengzang/location-bridge-go/internal/models"
)

// ErrClosed is returned by every operation once Close has run
var ErrClosed = errors.New("location coordinator is closed")

// Config holds the collaborators for NewCoordinator. Provider is required;
// the rest degrade gracefully when nil.
type Config struct {
	Provider    LocationProvider
	Settings    SettingsChecker
	UI          ForegroundUI
	Permissions PermissionProvider
	Geocoder    GeocodingProvider
	Sensors     SensorProvider
	Events      EventSink
	Declination heading.DeclinationModel
	Logger      *slog.Logger
	Now         func() time.Time
}

// Coordinator multiplexes one-shot requests, continuous watches and the heading
// watch onto the platform provider. All of its state is owned by one event loop.
type Coordinator struct {
	loop *eventLoop

	provider    LocationProvider
	ui          ForegroundUI
	permissions PermissionProvider
	geocoder    GeocodingProvider
	sensors     SensorProvider
	events      EventSink
	declination heading.DeclinationModel
	logger      *slog.Logger
	now         func() time.Time

	registry *SubscriptionRegistry
	settings *PendingSettingsQueue

	// in-flight calls, settled with ErrClosed by Close
	singles map[*singleRequest]struct{}
	pending map[*watchRequest]struct{}
	// watches maps a registered id to the call that registered it
	watches map[int]*watchRequest
	closing bool

	heading        *headingWatch
	geocoderPaused bool
	geocodes       map[uint64]context.CancelFunc
	nextGeocode    uint64
}

// NewCoordinator creates a coordinator and starts its event loop
func NewCoordinator(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	decl := cfg.Declination
	if decl == nil {
		decl = heading.NewDipoleModel()
	}

	c := &Coordinator{
		loop:        newEventLoop(),
		provider:    cfg.Provider,
		ui:          cfg.UI,
		permissions: cfg.Permissions,
		geocoder:    cfg.Geocoder,
		sensors:     cfg.Sensors,
		events:      cfg.Events,
		declination: decl,
		logger:      logger,
		now:         now,
		singles:     make(map[*singleRequest]struct{}),
		pending:     make(map[*watchRequest]struct{}),
		watches:     make(map[int]*watchRequest),
		geocodes:    make(map[uint64]context.CancelFunc),
	}
	c.registry = NewSubscriptionRegistry(cfg.Provider, logger)
	c.settings = NewPendingSettingsQueue(cfg.Settings, cfg.UI, c.post, logger)
	return c
}

// singleRequest is the state of one in-flight GetCurrentPosition call
type singleRequest struct {
	guard      *TimeoutGuard
	promise    *promise[models.Location]
	handle     SubscriptionHandle
	subscribed bool
}

// GetCurrentPosition resolves one fix, honoring MaximumAge and Timeout
func (c *Coordinator) GetCurrentPosition(ctx context.Context, opts models.LocationOptions) (models.Location, error) {
	req := &singleRequest{
		guard:   NewTimeoutGuard(opts.Timeout()),
		promise: newPromise[models.Location](),
	}
	if !c.loop.post(func() { c.getCurrentPosition(ctx, opts, req) }) {
		return models.Location{}, ErrClosed
	}

	select {
	case res := <-req.promise.ch:
		return res.value, res.err
	case <-ctx.Done():
		if req.guard.MarkDoneIfNotTimedOut() {
			c.post(func() { c.releaseSingle(req) })
			return models.Location{}, ctx.Err()
		}
		res := <-req.promise.ch
		return res.value, res.err
	}
}

func (c *Coordinator) getCurrentPosition(ctx context.Context, opts models.LocationOptions, req *singleRequest) {
	if c.closing {
		c.completeSingle(req, func() { req.promise.reject(ErrClosed) })
		return
	}
	c.singles[req] = struct{}{}
	if c.isMissingPermissions() {
		c.completeSingle(req, func() { req.promise.reject(newError(KindUnauthorized, nil)) })
		return
	}

	req.guard.Start(func() {
		req.promise.reject(newError(KindTimeout, nil))
		c.post(func() { c.releaseSingle(req) })
	})

	if maxAge := opts.MaximumAge(); maxAge != nil {
		c.lastKnownLocation(ctx, *maxAge, func(loc *models.Location) {
			if loc != nil {
				c.completeSingle(req, func() { req.promise.resolve(*loc) })
			}
		})
	}

	locReq := opts.Request()
	c.withSettings(opts, locReq, func() {
		c.requestSingleLocation(locReq, req)
	}, func(err error) {
		c.completeSingle(req, func() { req.promise.reject(err) })
	})
}

// lastKnownLocation fetches the cached fix off the loop and reports it on the loop,
// nil when absent, stale, or the provider refused.
func (c *Coordinator) lastKnownLocation(ctx context.Context, maxAge time.Duration, done func(*models.Location)) {
	go func() {
		loc, err := c.provider.LastKnownLocation(ctx)
		if err != nil {
			c.logger.Debug("last known location unavailable", "error", err)
			loc = nil
		}
		if loc != nil && loc.Age(c.now()) >= maxAge {
			loc = nil
		}
		c.post(func() { done(loc) })
	}()
}

func (c *Coordinator) requestSingleLocation(locReq models.LocationRequest, req *singleRequest) {
	if req.guard.Done() {
		return
	}

	h, err := c.provider.Subscribe(locReq.SingleUpdate(),
		c.onFix(func(loc models.Location) {
			c.completeSingle(req, func() { req.promise.resolve(loc) })
		}),
		c.onLoop(func() {
			c.completeSingle(req, func() { req.promise.reject(newError(KindUnavailable, nil)) })
		}),
	)
	if err != nil {
		c.completeSingle(req, func() { req.promise.reject(newError(KindRequestRejected, err)) })
		return
	}
	req.handle = h
	req.subscribed = true

	if req.guard.Done() {
		c.releaseSingle(req)
	}
}

// completeSingle runs settle only if this completion wins the guard, then drops the live subscription
func (c *Coordinator) completeSingle(req *singleRequest, settle func()) {
	if req.guard.MarkDoneIfNotTimedOut() {
		settle()
	}
	c.releaseSingle(req)
}

func (c *Coordinator) releaseSingle(req *singleRequest) {
	if !req.guard.Done() {
		return
	}
	delete(c.singles, req)
	if !req.subscribed {
		return
	}
	c.provider.Unsubscribe(req.handle)
	req.subscribed = false
	req.handle = nil
}

// WatchPosition registers a continuous subscription keyed by watchID. Each fix is
// emitted as a locationChanged event; the call itself settles once.
// A canceled ctx abandons the call: a watch it already registered is removed and
// one still waiting on settings is never registered.
func (c *Coordinator) WatchPosition(ctx context.Context, watchID int, opts models.LocationOptions) error {
	w := &watchRequest{id: watchID, promise: newPromise[struct{}]()}
	if !c.loop.post(func() { c.watchPosition(w, opts) }) {
		return ErrClosed
	}

	select {
	case res := <-w.promise.ch:
		return res.err
	case <-ctx.Done():
		c.post(func() { c.abandonWatch(w) })
		return ctx.Err()
	}
}

// watchRequest is the state of one in-flight WatchPosition call
type watchRequest struct {
	id        int
	promise   *promise[struct{}]
	abandoned bool
}

func (c *Coordinator) watchPosition(w *watchRequest, opts models.LocationOptions) {
	if c.closing {
		w.promise.reject(ErrClosed)
		return
	}
	if c.isMissingPermissions() {
		w.promise.reject(newError(KindUnauthorized, nil))
		return
	}

	c.pending[w] = struct{}{}
	locReq := opts.Request()
	c.withSettings(opts, locReq, func() {
		c.requestContinuousUpdates(w, locReq)
	}, func(err error) {
		c.settleWatch(w, err)
	})
}

func (c *Coordinator) requestContinuousUpdates(w *watchRequest, locReq models.LocationRequest) {
	if w.abandoned {
		return
	}
	watchID := w.id
	err := c.registry.Add(watchID, locReq,
		c.onFix(func(loc models.Location) {
			if !c.registry.IsActive(watchID) {
				return
			}
			c.emit(models.EventLocationChanged, models.LocationEvent{WatchID: watchID, Location: loc})
		}),
		c.onLoop(func() {
			c.logger.Debug("location temporarily unavailable for watch", "watch_id", watchID)
		}),
	)
	if err != nil {
		c.settleWatch(w, err)
		return
	}
	c.watches[watchID] = w
	c.logger.Info("location watch started", "watch_id", watchID)
	c.settleWatch(w, nil)
}

func (c *Coordinator) settleWatch(w *watchRequest, err error) {
	delete(c.pending, w)
	if err != nil {
		w.promise.reject(err)
		return
	}
	w.promise.resolve(struct{}{})
}

// abandonWatch undoes whatever a canceled WatchPosition call got to register
func (c *Coordinator) abandonWatch(w *watchRequest) {
	w.abandoned = true
	delete(c.pending, w)
	if c.watches[w.id] != w {
		return
	}
	delete(c.watches, w.id)
	if c.registry.Remove(w.id) {
		c.logger.Info("abandoned location watch removed", "watch_id", w.id)
	}
}

// RemoveWatch tears down the location or heading watch with watchID.
// Unknown ids succeed.
func (c *Coordinator) RemoveWatch(watchID int) error {
	if !c.loop.call(func() {
		if c.heading != nil && c.heading.id == watchID {
			c.destroyHeadingWatch()
			return
		}
		delete(c.watches, watchID)
		if c.registry.Remove(watchID) {
			c.logger.Info("location watch removed", "watch_id", watchID)
		}
	}) {
		return ErrClosed
	}
	return nil
}

// EnableBetterAccuracy asks the user to raise the device location mode
func (c *Coordinator) EnableBetterAccuracy(ctx context.Context) error {
	p := newPromise[struct{}]()
	if !c.loop.post(func() {
		if c.ui == nil || c.ui.CurrentForegroundSurface() == nil {
			p.reject(newError(KindContextUnavailable, nil))
			return
		}
		c.settings.Request(models.LocationOptions{}.Request(), func(o SettingsOutcome) {
			if o == OutcomeSatisfied {
				p.resolve(struct{}{})
				return
			}
			p.reject(newError(KindSettingsUnsatisfied, nil))
		})
	}) {
		return ErrClosed
	}

	select {
	case res := <-p.ch:
		return res.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// withSettings runs proceed directly when no dialog is needed, otherwise after the
// settings batch resolves satisfied.
func (c *Coordinator) withSettings(opts models.LocationOptions, locReq models.LocationRequest, proceed func(), fail func(error)) {
	if c.hasNetworkProviderEnabled() || !opts.MayShowSettingsDialog() {
		proceed()
		return
	}
	c.settings.Request(locReq, func(o SettingsOutcome) {
		if o == OutcomeSatisfied {
			proceed()
			return
		}
		fail(newError(KindSettingsUnsatisfied, nil))
	})
}

// ProviderStatus reports which providers are usable
func (c *Coordinator) ProviderStatus() (models.ProviderStatus, error) {
	if c.provider == nil {
		return models.ProviderStatus{}, newError(KindContextUnavailable, nil)
	}
	return c.provider.Status(), nil
}

// HasServicesEnabled reports whether any provider is available
func (c *Coordinator) HasServicesEnabled() bool {
	status, err := c.ProviderStatus()
	return err == nil && status.AnyProviderAvailable()
}

// RequestPermissions prompts for fine and coarse location; one grant is enough
func (c *Coordinator) RequestPermissions(ctx context.Context) error {
	if c.permissions == nil {
		return NewError(KindUnauthorized, "Permissions module is not available", nil)
	}

	results, err := c.permissions.Request(ctx, []Capability{CapabilityFine, CapabilityCoarse})
	if err != nil {
		return newError(KindUnauthorized, err)
	}
	for _, granted := range results {
		if granted {
			return nil
		}
	}
	return newError(KindUnauthorized, nil)
}

// ActiveWatches returns the ids of tracked location watches
func (c *Coordinator) ActiveWatches() []int {
	var ids []int
	c.loop.call(func() { ids = c.registry.IDs() })
	return ids
}

// Close settles every in-flight call with ErrClosed, removes every watch and
// stops the event loop.
func (c *Coordinator) Close() {
	c.loop.call(func() {
		c.closing = true
		for req := range c.singles {
			c.completeSingle(req, func() { req.promise.reject(ErrClosed) })
		}
		for w := range c.pending {
			w.abandoned = true
			c.settleWatch(w, ErrClosed)
		}
		clear(c.watches)
		for _, id := range c.registry.IDs() {
			c.registry.Remove(id)
		}
		c.destroyHeadingWatch()
		c.settings.ResolveAll(OutcomeUnresolvable)
		c.cancelGeocodes()
	})
	c.loop.close()
}

func (c *Coordinator) isMissingPermissions() bool {
	return c.permissions == nil ||
		(!c.permissions.HasCapability(CapabilityFine) && !c.permissions.HasCapability(CapabilityCoarse))
}

func (c *Coordinator) hasNetworkProviderEnabled() bool {
	return c.provider != nil && c.provider.Status().NetworkAvailable
}

func (c *Coordinator) emit(name string, payload any) {
	if c.events != nil {
		c.events.Emit(name, payload)
	}
}

func (c *Coordinator) post(fn func()) {
	c.loop.post(fn)
}

// onFix re-posts provider fix callbacks onto the loop
func (c *Coordinator) onFix(fn func(models.Location)) func(models.Location) {
	return func(loc models.Location) {
		c.loop.post(func() { fn(loc) })
	}
}

// onLoop re-posts a provider callback onto the loop
func (c *Coordinator) onLoop(fn func()) func() {
	return func() {
		c.loop.post(fn)
	}
}
