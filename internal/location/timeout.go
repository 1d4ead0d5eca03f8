package location

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	guardPending int32 = iota
	guardCompleted
	guardTimedOut
)

// TimeoutGuard arbitrates which of {result, error, timeout} completes a request.
// The state leaves pending exactly once; every later attempt is a no-op.
type TimeoutGuard struct {
	timeout *time.Duration
	state   atomic.Int32

	mu    sync.Mutex
	timer *time.Timer
}

// NewTimeoutGuard creates a guard. A nil timeout never fires.
func NewTimeoutGuard(timeout *time.Duration) *TimeoutGuard {
	return &TimeoutGuard{timeout: timeout}
}

// Start schedules onTimeout at the deadline. It runs only if nothing completed first.
func (g *TimeoutGuard) Start(onTimeout func()) {
	if g.timeout == nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil || g.Done() {
		return
	}
	g.timer = time.AfterFunc(*g.timeout, func() {
		if g.state.CompareAndSwap(guardPending, guardTimedOut) && onTimeout != nil {
			onTimeout()
		}
	})
}

// MarkDoneIfNotTimedOut completes the guard and reports whether this call won
func (g *TimeoutGuard) MarkDoneIfNotTimedOut() bool {
	if !g.state.CompareAndSwap(guardPending, guardCompleted) {
		return false
	}
	g.mu.Lock()
	if g.timer != nil {
		g.timer.Stop()
	}
	g.mu.Unlock()
	return true
}

// Done reports whether the guard already left the pending state
func (g *TimeoutGuard) Done() bool {
	return g.state.Load() != guardPending
}

// TimedOut reports whether the deadline won
func (g *TimeoutGuard) TimedOut() bool {
	return g.state.Load() == guardTimedOut
}
