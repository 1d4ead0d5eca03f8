package taskmanager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jengzang/location-bridge-go/internal/location"
	"github.com/jengzang/location-bridge-go/internal/models"
)

var (
	// ErrInvalidTaskName is returned for an empty task name
	ErrInvalidTaskName = errors.New("task name must not be empty")
	// ErrUnknownConsumer is returned for a consumer kind the manager cannot run
	ErrUnknownConsumer = errors.New("unknown task consumer")
	// ErrInvalidOptions wraps option decoding and validation failures
	ErrInvalidOptions = errors.New("invalid task options")
)

// Store persists task registrations
type Store interface {
	Upsert(ctx context.Context, name string, consumer models.ConsumerKind, options json.RawMessage) error
	Delete(ctx context.Context, name string, consumer models.ConsumerKind) (bool, error)
	Get(ctx context.Context, name string, consumer models.ConsumerKind) (*models.Task, error)
	List(ctx context.Context, consumer models.ConsumerKind) ([]models.Task, error)
}

type consumerKey struct {
	name string
	kind models.ConsumerKind
}

type consumer interface {
	start() error
	stop()
}

var _ location.BackgroundTaskManager = (*Manager)(nil)

// Manager runs background location and geofencing consumers on top of the provider
type Manager struct {
	store       Store
	provider    location.LocationProvider
	permissions location.PermissionProvider
	events      location.EventSink
	logger      *slog.Logger

	mu        sync.Mutex
	consumers map[consumerKey]consumer
}

// NewManager creates a task manager
func NewManager(store Store, provider location.LocationProvider, permissions location.PermissionProvider, events location.EventSink, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:       store,
		provider:    provider,
		permissions: permissions,
		events:      events,
		logger:      logger,
		consumers:   make(map[consumerKey]consumer),
	}
}

// Register persists the task and (re)starts its consumer with the new options
func (m *Manager) Register(ctx context.Context, taskName string, kind models.ConsumerKind, options []byte) error {
	if taskName == "" {
		return ErrInvalidTaskName
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownConsumer, kind)
	}
	if m.permissions != nil &&
		!m.permissions.HasCapability(location.CapabilityFine) &&
		!m.permissions.HasCapability(location.CapabilityCoarse) {
		return location.NewError(location.KindUnauthorized, "Not authorized to use background location services", nil)
	}

	c, err := m.newConsumer(taskName, kind, options)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := consumerKey{taskName, kind}
	if prev, ok := m.consumers[key]; ok {
		prev.stop()
		delete(m.consumers, key)
	}
	if err := c.start(); err != nil {
		// the previous consumer is gone, so its row must go too
		if _, derr := m.store.Delete(ctx, taskName, kind); derr != nil {
			m.logger.Error("failed to drop task after start failure", "task", taskName, "consumer", kind, "error", derr)
		}
		return location.NewError(location.KindRequestRejected, "failed to start background task", err)
	}
	if err := m.store.Upsert(ctx, taskName, kind, options); err != nil {
		c.stop()
		return err
	}
	m.consumers[key] = c

	m.logger.Info("background task registered", "task", taskName, "consumer", kind)
	return nil
}

// Unregister stops the consumer and forgets the task. Unknown tasks are a no-op.
func (m *Manager) Unregister(ctx context.Context, taskName string, kind models.ConsumerKind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownConsumer, kind)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := consumerKey{taskName, kind}
	if c, ok := m.consumers[key]; ok {
		c.stop()
		delete(m.consumers, key)
	}
	removed, err := m.store.Delete(ctx, taskName, kind)
	if err != nil {
		return err
	}
	if removed {
		m.logger.Info("background task unregistered", "task", taskName, "consumer", kind)
	}
	return nil
}

// HasConsumer reports whether the task is registered and running
func (m *Manager) HasConsumer(ctx context.Context, taskName string, kind models.ConsumerKind) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownConsumer, kind)
	}
	m.mu.Lock()
	_, running := m.consumers[consumerKey{taskName, kind}]
	m.mu.Unlock()
	if !running {
		return false, nil
	}

	task, err := m.store.Get(ctx, taskName, kind)
	if err != nil {
		return false, err
	}
	return task != nil, nil
}

// Task returns the stored registration, nil when not registered
func (m *Manager) Task(ctx context.Context, taskName string, kind models.ConsumerKind) (*models.Task, error) {
	return m.store.Get(ctx, taskName, kind)
}

// Restore starts consumers for every persisted task
func (m *Manager) Restore(ctx context.Context) error {
	tasks, err := m.store.List(ctx, "")
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err := m.Register(ctx, t.Name, t.Consumer, t.Options); err != nil {
			m.logger.Error("failed to restore background task", "task", t.Name, "consumer", t.Consumer, "error", err)
		}
	}
	return nil
}

// Close stops every consumer without forgetting registrations
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, c := range m.consumers {
		c.stop()
		delete(m.consumers, key)
	}
}

func (m *Manager) newConsumer(taskName string, kind models.ConsumerKind, options []byte) (consumer, error) {
	exec := executor{taskName: taskName, kind: kind, events: m.events, logger: m.logger}

	switch kind {
	case models.ConsumerLocation:
		var opts models.LocationTaskOptions
		if err := decodeOptions(options, &opts); err != nil {
			return nil, err
		}
		if opts.BatchSize < 0 {
			return nil, fmt.Errorf("%w: batchSize must not be negative", ErrInvalidOptions)
		}
		return newLocationConsumer(m.provider, opts, exec), nil

	case models.ConsumerGeofencing:
		var opts models.GeofencingTaskOptions
		if err := decodeOptions(options, &opts); err != nil {
			return nil, err
		}
		if err := validateRegions(opts.Regions); err != nil {
			return nil, err
		}
		return newGeofencingConsumer(m.provider, opts.Regions, exec), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownConsumer, kind)
}

func decodeOptions(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

func validateRegions(regions []models.GeofenceRegion) error {
	if len(regions) == 0 {
		return fmt.Errorf("%w: at least one region is required", ErrInvalidOptions)
	}
	seen := make(map[string]bool, len(regions))
	for i, r := range regions {
		switch {
		case r.Identifier == "":
			return fmt.Errorf("%w: region %d has no identifier", ErrInvalidOptions, i)
		case seen[r.Identifier]:
			return fmt.Errorf("%w: duplicate region %q", ErrInvalidOptions, r.Identifier)
		case r.Radius <= 0:
			return fmt.Errorf("%w: region %q needs a positive radius", ErrInvalidOptions, r.Identifier)
		case r.Latitude < -90 || r.Latitude > 90 || r.Longitude < -180 || r.Longitude > 180:
			return fmt.Errorf("%w: region %q is out of range", ErrInvalidOptions, r.Identifier)
		}
		seen[r.Identifier] = true
	}
	return nil
}

// executor hands consumer data to the task, as a taskExecuted event
type executor struct {
	taskName string
	kind     models.ConsumerKind
	events   location.EventSink
	logger   *slog.Logger
}

func (e executor) execute(data any) {
	e.logger.Debug("executing background task", "task", e.taskName, "consumer", e.kind)
	if e.events == nil {
		return
	}
	e.events.Emit(models.EventTaskExecuted, models.TaskExecution{
		TaskName: e.taskName,
		Consumer: e.kind,
		Data:     data,
	})
}

// RegionStates returns the last evaluated region states of a running geofencing task
func (m *Manager) RegionStates(taskName string) (map[string]models.RegionState, bool) {
	m.mu.Lock()
	c, ok := m.consumers[consumerKey{taskName, models.ConsumerGeofencing}]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	return c.(*geofencingConsumer).RegionStates(), true
}
