package location

import (
	"context"
	"time"

	"github.com/jengzang/location-bridge-go/internal/heading"
	"github.com/jengzang/location-bridge-go/internal/models"
)

// headingWatch is the single compass watch. The filter is dropped on pause and
// rebuilt on resume so a resumed watch never runs on a stale declination.
type headingWatch struct {
	id      int
	filter  *heading.Filter
	running bool

	declHandle     SubscriptionHandle
	declSubscribed bool
}

// WatchHeading starts emitting headingChanged events tagged with watchID
func (c *Coordinator) WatchHeading(ctx context.Context, watchID int) error {
	if c.sensors == nil {
		return NewError(KindContextUnavailable, "Sensor service is not available", nil)
	}

	var startErr error
	if !c.loop.call(func() {
		if c.heading != nil {
			c.destroyHeadingWatch()
		}
		c.heading = &headingWatch{id: watchID}
		startErr = c.startHeadingUpdate()
	}) {
		return ErrClosed
	}
	return startErr
}

// startHeadingUpdate (re)builds the filter, derives the declination and starts the sensors
func (c *Coordinator) startHeadingUpdate() error {
	w := c.heading
	if w == nil || w.running || c.sensors == nil {
		return nil
	}

	f := heading.NewFilter()
	w.filter = f
	c.deriveDeclination(w, f)

	if err := c.sensors.Start(&sensorBridge{c: c, filter: f}); err != nil {
		w.filter = nil
		c.releaseDeclinationFix(w)
		return NewError(KindContextUnavailable, "failed to start heading sensors", err)
	}
	w.running = true
	return nil
}

// deriveDeclination uses the last known fix, or a one-shot live fix when there is none.
// The value stays fixed for the lifetime of the filter.
func (c *Coordinator) deriveDeclination(w *headingWatch, f *heading.Filter) {
	if c.provider == nil {
		return
	}

	apply := func(loc models.Location) {
		if w.filter != f {
			return
		}
		f.SetDeclination(c.declination.Declination(
			loc.Coords.Latitude, loc.Coords.Longitude, loc.Coords.Altitude, c.now()))
	}

	go func() {
		loc, err := c.provider.LastKnownLocation(context.Background())
		if err != nil {
			loc = nil
		}
		c.post(func() {
			if w.filter != f {
				return
			}
			if loc != nil {
				apply(*loc)
				return
			}
			c.requestDeclinationFix(w, f, apply)
		})
	}()
}

func (c *Coordinator) requestDeclinationFix(w *headingWatch, f *heading.Filter, apply func(models.Location)) {
	req := models.LocationOptions{Accuracy: models.AccuracyBalanced}.Request().SingleUpdate()
	h, err := c.provider.Subscribe(req,
		c.onFix(func(loc models.Location) {
			apply(loc)
			if w.filter == f {
				c.releaseDeclinationFix(w)
			}
		}),
		c.onLoop(func() {}),
	)
	if err != nil {
		c.logger.Debug("could not request a fix for declination", "error", err)
		return
	}
	w.declHandle = h
	w.declSubscribed = true
}

func (c *Coordinator) releaseDeclinationFix(w *headingWatch) {
	if !w.declSubscribed {
		return
	}
	c.provider.Unsubscribe(w.declHandle)
	w.declHandle = nil
	w.declSubscribed = false
}

// stopHeadingWatch stops the sensors and drops the filter, keeping the watch id
func (c *Coordinator) stopHeadingWatch() {
	w := c.heading
	if w == nil {
		return
	}
	if w.running {
		c.sensors.Stop()
		w.running = false
	}
	c.releaseDeclinationFix(w)
	w.filter = nil
}

func (c *Coordinator) destroyHeadingWatch() {
	if c.heading == nil {
		return
	}
	c.stopHeadingWatch()
	c.logger.Info("heading watch removed", "watch_id", c.heading.id)
	c.heading = nil
}

func (c *Coordinator) sendHeadingUpdate(f *heading.Filter, at time.Time) {
	w := c.heading
	if w == nil || w.filter != f {
		return
	}
	h, ok := f.Update(at, !c.isMissingPermissions())
	if !ok {
		return
	}
	c.emit(models.EventHeadingChanged, models.HeadingEvent{WatchID: w.id, Heading: h})
}

// sensorBridge moves raw sensor callbacks onto the loop for one filter generation
type sensorBridge struct {
	c      *Coordinator
	filter *heading.Filter
}

func (b *sensorBridge) OnAccelerometer(v Vector) {
	b.c.post(func() {
		b.filter.SetGravity(v)
		b.c.sendHeadingUpdate(b.filter, b.c.now())
	})
}

func (b *sensorBridge) OnMagnetometer(v Vector) {
	b.c.post(func() {
		b.filter.SetGeomagnetic(v)
		b.c.sendHeadingUpdate(b.filter, b.c.now())
	})
}

func (b *sensorBridge) OnAccuracyChanged(accuracy int) {
	b.c.post(func() {
		b.filter.SetAccuracy(accuracy)
	})
}
