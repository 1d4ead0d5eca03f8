package location

import "sync"

// eventLoop runs posted closures one at a time on a single goroutine.
// Every piece of coordinator state is touched only from inside a closure.
type eventLoop struct {
	mu      sync.Mutex
	queue   []func()
	closed  bool
	wake    chan struct{}
	stopped chan struct{}
}

func newEventLoop() *eventLoop {
	l := &eventLoop{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go l.run()
	return l
}

// post enqueues fn and never blocks. It reports false once the loop is closed.
func (l *eventLoop) post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// call runs fn on the loop and waits for it. Must not be used from inside the loop.
func (l *eventLoop) call(fn func()) bool {
	done := make(chan struct{})
	if !l.post(func() {
		defer close(done)
		fn()
	}) {
		return false
	}
	<-done
	return true
}

// close drains what is already queued and stops the goroutine
func (l *eventLoop) close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	<-l.stopped
}

func (l *eventLoop) run() {
	defer close(l.stopped)
	for range l.wake {
		for {
			l.mu.Lock()
			batch := l.queue
			l.queue = nil
			closed := l.closed
			l.mu.Unlock()

			for _, fn := range batch {
				fn()
			}
			if len(batch) == 0 {
				if closed {
					return
				}
				break
			}
		}
	}
}
