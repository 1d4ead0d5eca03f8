package location

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/jengzang/location-bridge-go/internal/models"
)

// WatchHandle is the bookkeeping for one continuous subscription
type WatchHandle struct {
	ID      int
	Request models.LocationRequest

	handle        SubscriptionHandle
	active        bool
	onUpdate      func(models.Location)
	onUnavailable func()
}

// Active reports whether the entry currently holds a provider subscription
func (w *WatchHandle) Active() bool {
	return w.active
}

// SubscriptionRegistry tracks provider subscriptions keyed by watch id.
// It is not safe for concurrent use; the coordinator loop owns it.
type SubscriptionRegistry struct {
	provider LocationProvider
	logger   *slog.Logger
	entries  map[int]*WatchHandle
}

// NewSubscriptionRegistry creates an empty registry backed by provider
func NewSubscriptionRegistry(provider LocationProvider, logger *slog.Logger) *SubscriptionRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubscriptionRegistry{
		provider: provider,
		logger:   logger,
		entries:  make(map[int]*WatchHandle),
	}
}

// Add subscribes and tracks a watch. An existing entry with the same id is replaced.
// Nothing is tracked when the provider refuses the subscription.
func (r *SubscriptionRegistry) Add(id int, req models.LocationRequest, onUpdate func(models.Location), onUnavailable func()) error {
	r.Remove(id)

	h, err := r.provider.Subscribe(req, onUpdate, onUnavailable)
	if err != nil {
		return newError(KindRequestRejected, err)
	}

	r.entries[id] = &WatchHandle{
		ID:            id,
		Request:       req,
		handle:        h,
		active:        true,
		onUpdate:      onUpdate,
		onUnavailable: onUnavailable,
	}
	return nil
}

// Remove unsubscribes and forgets a watch. Unknown ids are ignored.
func (r *SubscriptionRegistry) Remove(id int) bool {
	w, ok := r.entries[id]
	if !ok {
		return false
	}
	r.pause(w)
	delete(r.entries, id)
	return true
}

// PauseAll stops provider delivery for every entry but keeps the bookkeeping
func (r *SubscriptionRegistry) PauseAll() {
	for _, id := range r.IDs() {
		r.pause(r.entries[id])
	}
}

// ResumeAll resubscribes every paused entry with its stored request.
// A failing entry is logged and stays paused; the remaining entries still resume.
func (r *SubscriptionRegistry) ResumeAll() []error {
	var errs []error
	for _, id := range r.IDs() {
		w := r.entries[id]
		if w.active {
			continue
		}

		h, err := r.provider.Subscribe(w.Request, w.onUpdate, w.onUnavailable)
		if err != nil {
			r.logger.Error("error occurred while resuming location updates", "watch_id", id, "error", err)
			errs = append(errs, fmt.Errorf("failed to resume watch %d: %w", id, newError(KindRequestRejected, err)))
			continue
		}
		w.handle = h
		w.active = true
	}
	return errs
}

// IsActive reports whether id is tracked and currently subscribed
func (r *SubscriptionRegistry) IsActive(id int) bool {
	w, ok := r.entries[id]
	return ok && w.active
}

// Has reports whether id is tracked, paused or not
func (r *SubscriptionRegistry) Has(id int) bool {
	_, ok := r.entries[id]
	return ok
}

// Get returns a copy of the entry for id
func (r *SubscriptionRegistry) Get(id int) (WatchHandle, bool) {
	w, ok := r.entries[id]
	if !ok {
		return WatchHandle{}, false
	}
	return *w, true
}

// Len returns the number of tracked watches
func (r *SubscriptionRegistry) Len() int {
	return len(r.entries)
}

// IDs returns tracked watch ids in ascending order
func (r *SubscriptionRegistry) IDs() []int {
	ids := make([]int, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (r *SubscriptionRegistry) pause(w *WatchHandle) {
	if !w.active {
		return
	}
	r.provider.Unsubscribe(w.handle)
	w.handle = nil
	w.active = false
}
