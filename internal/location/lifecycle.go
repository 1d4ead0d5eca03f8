package location

import (
	"context"

	"github.com/jengzang/location-bridge-go/internal/models"
)

// OnHostResume resumes every paused watch and restarts the heading watch
func (c *Coordinator) OnHostResume() {
	c.loop.call(func() {
		// Permission may have been granted while the host was in the background.
		if !c.isMissingPermissions() {
			c.geocoderPaused = false
		}

		if errs := c.registry.ResumeAll(); len(errs) > 0 {
			c.logger.Warn("some location watches could not be resumed", "failed", len(errs), "total", c.registry.Len())
		}

		if err := c.startHeadingUpdate(); err != nil {
			c.logger.Error("failed to restart heading updates", "error", err)
		}
	})
}

// OnHostPause pauses every watch, stops the heading sensors and the geocoder
func (c *Coordinator) OnHostPause() {
	c.loop.call(c.stopWatching)
}

// OnHostDestroy behaves like OnHostPause; bookkeeping survives so a recreated host can resume
func (c *Coordinator) OnHostDestroy() {
	c.loop.call(c.stopWatching)
}

func (c *Coordinator) stopWatching() {
	if c.geocoder != nil && !c.isMissingPermissions() {
		c.geocoderPaused = true
		c.cancelGeocodes()
	}
	c.registry.PauseAll()
	c.stopHeadingWatch()
}

// Geocode resolves an address into candidate locations
func (c *Coordinator) Geocode(ctx context.Context, address string) ([]models.Location, error) {
	gctx, done, err := c.beginGeocode(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	results, err := c.geocoder.Forward(gctx, address)
	if c.geocoderIsPaused() {
		return nil, errGeocoderNotRunning()
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ReverseGeocode resolves coordinates into candidate addresses
func (c *Coordinator) ReverseGeocode(ctx context.Context, coords models.Coords) ([]models.Address, error) {
	gctx, done, err := c.beginGeocode(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	results, err := c.geocoder.Reverse(gctx, models.Location{Coords: coords})
	if c.geocoderIsPaused() {
		return nil, errGeocoderNotRunning()
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

// beginGeocode checks the pause flag and permissions and registers a cancelable
// context that a host pause cancels.
func (c *Coordinator) beginGeocode(ctx context.Context) (context.Context, func(), error) {
	var (
		paused bool
		id     uint64
		gctx   context.Context
	)
	gctx, cancel := context.WithCancel(ctx)

	if !c.loop.call(func() {
		paused = c.geocoderPaused
		if paused {
			return
		}
		c.nextGeocode++
		id = c.nextGeocode
		c.geocodes[id] = cancel
	}) {
		cancel()
		return nil, nil, ErrClosed
	}

	release := func() {
		cancel()
		c.post(func() { delete(c.geocodes, id) })
	}

	switch {
	case paused:
		cancel()
		return nil, nil, errGeocoderNotRunning()
	case c.isMissingPermissions():
		release()
		return nil, nil, newError(KindUnauthorized, nil)
	case c.geocoder == nil:
		release()
		return nil, nil, newError(KindGeocoderUnavailable, nil)
	}
	return gctx, release, nil
}

func (c *Coordinator) geocoderIsPaused() bool {
	var paused bool
	c.loop.call(func() { paused = c.geocoderPaused })
	return paused
}

func (c *Coordinator) cancelGeocodes() {
	for id, cancel := range c.geocodes {
		cancel()
		delete(c.geocodes, id)
	}
}

func errGeocoderNotRunning() error {
	return NewError(KindGeocoderUnavailable, "Geocoder is not running", nil)
}
