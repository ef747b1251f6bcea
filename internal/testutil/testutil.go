// Package testutil provides testing utilities for linebridge tests.
package testutil

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/linebridge/internal/event"
)

// DefaultTimeout bounds how long helpers wait for asynchronous conditions.
const DefaultTimeout = 2 * time.Second

// NewPipe creates an OS pipe whose ends are closed when the test completes.
// Closing an end early is fine; the cleanup ignores the second close.
func NewPipe(t *testing.T) (r, w *os.File) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})
	return r, w
}

// WaitFor polls cond until it returns true, failing the test with msg if it
// does not within timeout.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !cond() {
		t.Fatalf("timed out after %v: %s", timeout, msg)
	}
}

// Runner is anything with a blocking Run and an idempotent Stop, such as
// reactor.Loop.
type Runner interface {
	Run(ctx context.Context) error
	Stop()
}

// StartRunner runs r on a new goroutine and stops it when the test
// completes. The returned function stops r and returns Run's result.
// If r has a Running method, StartRunner returns once it reports true.
func StartRunner(t *testing.T, r Runner) (stop func() error) {
	t.Helper()

	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(context.Background()) }()

	// A Stop that lands before Run has started would make Run refuse to
	// start at all, so wait for runners that can say they are running.
	if rr, ok := r.(interface{ Running() bool }); ok {
		deadline := time.Now().Add(DefaultTimeout)
		for !rr.Running() && len(errCh) == 0 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
	}

	var once sync.Once
	var runErr error
	stop = func() error {
		once.Do(func() {
			r.Stop()
			select {
			case runErr = <-errCh:
			case <-time.After(DefaultTimeout):
				runErr = errors.New("runner did not stop in time")
			}
		})
		return runErr
	}
	t.Cleanup(func() { _ = stop() })
	return stop
}

// EventRecorder captures every event published on a bus, in order.
// It is safe for concurrent use.
type EventRecorder struct {
	mu     sync.Mutex
	events []event.Event
}

// NewEventRecorder subscribes a recorder to all events on bus.
func NewEventRecorder(bus *event.Bus) *EventRecorder {
	r := &EventRecorder{}
	bus.SubscribeAll(func(e event.Event) {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
	})
	return r
}

// Events returns a copy of the recorded events.
func (r *EventRecorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]event.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the type of each recorded event, in order.
func (r *EventRecorder) Types() []string {
	events := r.Events()
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType()
	}
	return types
}

// Count returns how many events of eventType were recorded.
func (r *EventRecorder) Count(eventType string) int {
	n := 0
	for _, e := range r.Events() {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

// Received returns the payloads of recorded message.received events.
func (r *EventRecorder) Received() []string {
	var msgs []string
	for _, e := range r.Events() {
		if m, ok := e.(event.MessageReceivedEvent); ok {
			msgs = append(msgs, m.Message)
		}
	}
	return msgs
}

// Sent returns the payloads of recorded message.sent events.
func (r *EventRecorder) Sent() []string {
	var msgs []string
	for _, e := range r.Events() {
		if m, ok := e.(event.MessageSentEvent); ok {
			msgs = append(msgs, m.Message)
		}
	}
	return msgs
}

// WaitForCount blocks until at least n events of eventType were recorded.
func (r *EventRecorder) WaitForCount(t *testing.T, eventType string, n int) {
	t.Helper()
	WaitFor(t, DefaultTimeout, func() bool { return r.Count(eventType) >= n },
		"waiting for "+eventType)
}

// Reset discards recorded events.
func (r *EventRecorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// FailingWriter is an io.Writer whose writes always fail with Err.
type FailingWriter struct {
	Err error

	mu    sync.Mutex
	calls int
}

// Write implements io.Writer.
func (w *FailingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	w.calls++
	w.mu.Unlock()
	return 0, w.Err
}

// Calls returns how many writes were attempted.
func (w *FailingWriter) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

// SkipIfNoCommand skips the test if name is not installed.
func SkipIfNoCommand(t *testing.T, name string) {
	t.Helper()

	if _, err := exec.LookPath(name); err != nil {
		t.Skip(name + " not found in PATH, skipping test")
	}
}
