package reactor

import (
	"sync"
	"sync/atomic"
	"time"
)

// Notifier is the minimal surface a readiness-driven reader needs from its
// event loop: register interest in a readable descriptor.
type Notifier interface {
	RegisterReadable(fd int, onReadable func()) (Registration, error)
}

// Registration is a handle on readable interest in one descriptor.
type Registration interface {
	// SetEnabled turns notifications on or off. While disabled the callback
	// is never invoked, including for a notification already queued when
	// SetEnabled(false) was called.
	SetEnabled(enabled bool)

	// Enabled reports whether notifications are on.
	Enabled() bool

	// Close disables the registration permanently and releases its watcher.
	// It does not close the descriptor.
	Close() error
}

// watch is the Loop's Registration: a goroutine that waits for fd to become
// readable, posts the callback to the loop, and waits for it to finish
// before waiting again.
type watch struct {
	loop       *Loop
	fd         int
	onReadable func()

	enabled   atomic.Bool
	wake      chan struct{} // nudged when re-enabled
	closed    chan struct{}
	closeOnce sync.Once
}

func newWatch(l *Loop, fd int, onReadable func()) *watch {
	w := &watch{
		loop:       l,
		fd:         fd,
		onReadable: onReadable,
		wake:       make(chan struct{}, 1),
		closed:     make(chan struct{}),
	}
	w.enabled.Store(true)
	return w
}

func (w *watch) SetEnabled(enabled bool) {
	if w.isClosed() {
		return
	}
	if w.enabled.Swap(enabled) == enabled || !enabled {
		return
	}
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *watch) Enabled() bool {
	return w.enabled.Load() && !w.isClosed()
}

func (w *watch) Close() error {
	w.closeOnce.Do(func() {
		w.enabled.Store(false)
		close(w.closed)
	})
	return nil
}

func (w *watch) isClosed() bool {
	select {
	case <-w.closed:
		return true
	default:
		return false
	}
}

// run is the watcher goroutine.
func (w *watch) run() {
	for {
		select {
		case <-w.loop.stopCh:
			return
		case <-w.closed:
			return
		default:
		}

		if !w.enabled.Load() {
			select {
			case <-w.wake:
			case <-w.closed:
				return
			case <-w.loop.stopCh:
				return
			}
			continue
		}

		ready, err := Readable(w.fd, w.loop.pollInterval)
		if err != nil {
			// The descriptor itself is broken (closed under us, or out of
			// range). Let the owner discover that through its own read, then
			// back off so a handler that stays enabled cannot spin.
			w.loop.logger.Warn("readiness wait failed", "fd", w.fd, "error", err.Error())
			if !w.dispatch() {
				return
			}
			select {
			case <-time.After(w.loop.pollInterval):
			case <-w.closed:
				return
			case <-w.loop.stopCh:
				return
			}
			continue
		}
		if !ready {
			continue
		}

		if !w.dispatch() {
			return
		}
	}
}

// dispatch posts the callback and blocks until it has run (or been skipped
// because the registration was disabled in the meantime). It returns false
// if the watcher should exit.
func (w *watch) dispatch() bool {
	ran := make(chan struct{})
	posted := w.loop.Post(func() {
		defer close(ran)
		if w.enabled.Load() && !w.isClosed() {
			w.onReadable()
		}
	})
	if !posted {
		return false
	}

	select {
	case <-ran:
		return true
	case <-w.closed:
		return false
	case <-w.loop.stopCh:
		return false
	}
}
