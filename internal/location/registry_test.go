package location

import (
	"errors"
	"testing"
	"time"

	"github.com/jengzang/location-bridge-go/internal/models"
)

func newWatchRequest(interval time.Duration) models.LocationRequest {
	req := models.LocationOptions{Accuracy: models.AccuracyHigh}.Request()
	req.Interval = interval
	return req
}

func noopUpdate(models.Location) {}

func TestSubscriptionRegistryPauseResume(t *testing.T) {
	p := newFakeProvider()
	r := NewSubscriptionRegistry(p, nil)

	for id := 1; id <= 3; id++ {
		if err := r.Add(id, newWatchRequest(time.Duration(id)*time.Second), noopUpdate, func() {}); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}

	r.PauseAll()
	if p.liveCount() != 0 {
		t.Fatalf("expected no live subscriptions after pause, got %d", p.liveCount())
	}
	for id := 1; id <= 3; id++ {
		if !r.Has(id) || r.IsActive(id) {
			t.Fatalf("watch %d should be tracked but paused", id)
		}
	}

	// A second pause must not unsubscribe again
	r.PauseAll()
	if p.unsubscribeCount() != 3 {
		t.Fatalf("expected 3 unsubscribes, got %d", p.unsubscribeCount())
	}

	if errs := r.ResumeAll(); len(errs) != 0 {
		t.Fatalf("unexpected resume errors: %v", errs)
	}
	if p.liveCount() != 3 {
		t.Fatalf("expected 3 live subscriptions after resume, got %d", p.liveCount())
	}
	if p.subscribeCount() != 6 {
		t.Fatalf("expected one new subscription per watch, got %d total", p.subscribeCount())
	}

	for _, sub := range p.liveSubs() {
		id := int(sub.req.Interval / time.Second)
		w, ok := r.Get(id)
		if !ok {
			t.Fatalf("no entry for resumed request %v", sub.req.Interval)
		}
		if w.Request != sub.req {
			t.Errorf("watch %d resumed with %+v, want %+v", id, sub.req, w.Request)
		}
	}

	// Resuming active entries is a no-op
	r.ResumeAll()
	if p.subscribeCount() != 6 {
		t.Fatalf("active watches must not be resubscribed, got %d total", p.subscribeCount())
	}
}

func TestSubscriptionRegistryResumeFailureIsolation(t *testing.T) {
	p := newFakeProvider()
	r := NewSubscriptionRegistry(p, nil)

	for id := 1; id <= 3; id++ {
		if err := r.Add(id, newWatchRequest(time.Duration(id)*time.Second), noopUpdate, func() {}); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}
	r.PauseAll()

	p.mu.Lock()
	p.reject = func(req models.LocationRequest) error {
		if req.Interval == 2*time.Second {
			return errProviderRefused
		}
		return nil
	}
	p.mu.Unlock()

	errs := r.ResumeAll()
	if len(errs) != 1 {
		t.Fatalf("expected 1 resume error, got %d", len(errs))
	}
	if !errors.Is(errs[0], ErrRequestRejected) {
		t.Fatalf("expected request rejected, got %v", errs[0])
	}
	if !errors.Is(errs[0], errProviderRefused) {
		t.Fatalf("resume error should wrap the provider error, got %v", errs[0])
	}

	if !r.IsActive(1) || !r.IsActive(3) {
		t.Fatal("watches 1 and 3 should have resumed")
	}
	if r.IsActive(2) || !r.Has(2) {
		t.Fatal("watch 2 should stay tracked and paused")
	}
}

func TestSubscriptionRegistryAddReplaces(t *testing.T) {
	p := newFakeProvider()
	r := NewSubscriptionRegistry(p, nil)

	r.Add(7, newWatchRequest(time.Second), noopUpdate, func() {})
	r.Add(7, newWatchRequest(2*time.Second), noopUpdate, func() {})

	if r.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", r.Len())
	}
	if p.liveCount() != 1 || p.unsubscribeCount() != 1 {
		t.Fatalf("replacing must drop the old subscription: live=%d unsubscribed=%d", p.liveCount(), p.unsubscribeCount())
	}
	w, _ := r.Get(7)
	if w.Request.Interval != 2*time.Second {
		t.Fatalf("expected the replacement request, got %v", w.Request.Interval)
	}
}

func TestSubscriptionRegistryAddRejected(t *testing.T) {
	p := newFakeProvider()
	p.reject = func(models.LocationRequest) error { return errProviderRefused }
	r := NewSubscriptionRegistry(p, nil)

	err := r.Add(1, newWatchRequest(time.Second), noopUpdate, func() {})
	if !errors.Is(err, ErrRequestRejected) {
		t.Fatalf("expected request rejected, got %v", err)
	}
	if r.Has(1) {
		t.Fatal("rejected watch must not be tracked")
	}
}

func TestSubscriptionRegistryRemove(t *testing.T) {
	p := newFakeProvider()
	r := NewSubscriptionRegistry(p, nil)
	r.Add(1, newWatchRequest(time.Second), noopUpdate, func() {})

	if r.Remove(42) {
		t.Fatal("removing an unknown id should report false")
	}
	if !r.Remove(1) {
		t.Fatal("removing a tracked id should report true")
	}
	if r.Len() != 0 || p.liveCount() != 0 {
		t.Fatal("removed watch left state behind")
	}

	// Removing a paused watch does not unsubscribe twice
	r.Add(2, newWatchRequest(time.Second), noopUpdate, func() {})
	r.PauseAll()
	r.Remove(2)
	if p.unsubscribeCount() != 2 {
		t.Fatalf("expected 2 unsubscribes, got %d", p.unsubscribeCount())
	}
}
