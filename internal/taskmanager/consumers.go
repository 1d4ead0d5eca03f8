package taskmanager

import (
	"sync"

	"github.com/jengzang/location-bridge-go/internal/location"
	"github.com/jengzang/location-bridge-go/internal/models"
	"github.com/jengzang/location-bridge-go/internal/spatial"
)

// LocationBatch is the data handed to a location task
type LocationBatch struct {
	Locations []models.Location `json:"locations"`
}

type locationConsumer struct {
	provider location.LocationProvider
	opts     models.LocationTaskOptions
	exec     executor

	mu      sync.Mutex
	handle  location.SubscriptionHandle
	running bool
	pending []models.Location
}

func newLocationConsumer(provider location.LocationProvider, opts models.LocationTaskOptions, exec executor) *locationConsumer {
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	return &locationConsumer{provider: provider, opts: opts, exec: exec}
}

func (c *locationConsumer) start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, err := c.provider.Subscribe(c.opts.Request(), c.onUpdate, c.onUnavailable)
	if err != nil {
		return err
	}
	c.handle = h
	c.running = true
	return nil
}

func (c *locationConsumer) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.provider.Unsubscribe(c.handle)
	c.handle = nil
	c.running = false
	c.pending = nil
}

func (c *locationConsumer) onUpdate(loc models.Location) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.pending = append(c.pending, loc)
	if len(c.pending) < c.opts.BatchSize {
		c.mu.Unlock()
		return
	}
	batch := LocationBatch{Locations: c.pending}
	c.pending = nil
	c.mu.Unlock()

	c.exec.execute(batch)
}

func (c *locationConsumer) onUnavailable() {
	c.exec.logger.Warn("background location updates unavailable", "task", c.exec.taskName)
}

type geofencingConsumer struct {
	provider location.LocationProvider
	regions  []models.GeofenceRegion
	exec     executor

	mu      sync.Mutex
	handle  location.SubscriptionHandle
	running bool
	states  map[string]models.RegionState
}

func newGeofencingConsumer(provider location.LocationProvider, regions []models.GeofenceRegion, exec executor) *geofencingConsumer {
	return &geofencingConsumer{
		provider: provider,
		regions:  regions,
		exec:     exec,
		states:   make(map[string]models.RegionState, len(regions)),
	}
}

// geofencingRequest keeps the provider sensitive enough for the smallest region
func (c *geofencingConsumer) geofencingRequest() models.LocationRequest {
	req := models.LocationOptions{Accuracy: models.AccuracyBalanced}.Request()
	for _, r := range c.regions {
		if half := r.Radius / 2; half < req.SmallestDisplacement {
			req.SmallestDisplacement = half
		}
	}
	return req
}

func (c *geofencingConsumer) start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, err := c.provider.Subscribe(c.geofencingRequest(), c.onUpdate, func() {
		c.exec.logger.Warn("geofencing location updates unavailable", "task", c.exec.taskName)
	})
	if err != nil {
		return err
	}
	c.handle = h
	c.running = true
	return nil
}

func (c *geofencingConsumer) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.provider.Unsubscribe(c.handle)
	c.handle = nil
	c.running = false
}

func (c *geofencingConsumer) onUpdate(loc models.Location) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	var events []models.GeofencingEvent
	for _, r := range c.regions {
		next := spatial.RegionStateFor(r, loc.Coords)
		prev := c.states[r.Identifier]
		c.states[r.Identifier] = next
		if ev, ok := transition(r, prev, next); ok {
			events = append(events, ev)
		}
	}
	c.mu.Unlock()

	for _, ev := range events {
		c.exec.execute(ev)
	}
}

// transition decides whether a state change is reported. Leaving the unknown
// state only reports an enter.
func transition(r models.GeofenceRegion, prev, next models.RegionState) (models.GeofencingEvent, bool) {
	if prev == next {
		return models.GeofencingEvent{}, false
	}
	switch next {
	case models.RegionStateInside:
		if r.EntersNotified() {
			return models.GeofencingEvent{EventType: models.GeofencingEventEnter, Region: r, State: next}, true
		}
	case models.RegionStateOutside:
		if prev == models.RegionStateInside && r.ExitsNotified() {
			return models.GeofencingEvent{EventType: models.GeofencingEventExit, Region: r, State: next}, true
		}
	}
	return models.GeofencingEvent{}, false
}

// RegionStates returns a snapshot of the last evaluated state per region
func (c *geofencingConsumer) RegionStates() map[string]models.RegionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]models.RegionState, len(c.states))
	for k, v := range c.states {
		out[k] = v
	}
	return out
}
