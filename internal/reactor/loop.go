package reactor

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/Iron-Ham/linebridge/internal/errors"
	"github.com/Iron-Ham/linebridge/internal/logging"
)

const (
	// DefaultPollInterval bounds how long a readiness watcher blocks in
	// select(2) before re-checking whether it should exit.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultQueueSize is the capacity of the loop's work queue.
	DefaultQueueSize = 256
)

// Loop is a single-threaded event loop. Every callback it runs, whether
// posted, fired by a timer, or triggered by descriptor readiness, executes on
// the goroutine that called Run, one at a time and in queue order.
type Loop struct {
	queue        chan func()
	stopCh       chan struct{}
	running      atomic.Bool
	pollInterval time.Duration
	logger       *logging.Logger

	// mu orders Stop against Run's start and against watcher Adds, so
	// watchers.Wait never overlaps an Add from a zero count.
	mu       sync.Mutex
	stopped  bool
	watchers sync.WaitGroup
}

// Option configures a Loop.
type Option func(*Loop)

// WithPollInterval sets how often readiness watchers wake to observe
// shutdown and disable requests. Non-positive values are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.pollInterval = d
		}
	}
}

// WithQueueSize sets the capacity of the work queue. Non-positive values
// are ignored.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.queue = make(chan func(), n)
		}
	}
}

// WithLogger sets the logger used for recovered panics and watcher errors.
func WithLogger(logger *logging.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger.WithComponent("reactor")
		}
	}
}

// New creates a Loop. The loop does nothing until Run is called, but work
// may be posted and descriptors registered beforehand.
func New(opts ...Option) *Loop {
	l := &Loop{
		queue:        make(chan func(), DefaultQueueSize),
		stopCh:       make(chan struct{}),
		pollInterval: DefaultPollInterval,
		logger:       logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes queued work on the calling goroutine until Stop is called or
// ctx is cancelled. It returns nil after Stop and ctx.Err() after
// cancellation; in both cases the loop is stopped for good and its watcher
// goroutines have exited by the time Run returns.
//
// Run returns ErrLoopRunning if the loop is already running and
// ErrLoopStopped if it was stopped before Run was called. Once Running
// reports true, a Stop makes Run return nil.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return apperrors.ErrLoopStopped
	}
	if !l.running.CompareAndSwap(false, true) {
		l.mu.Unlock()
		return apperrors.ErrLoopRunning
	}
	l.mu.Unlock()
	defer l.running.Store(false)

	l.logger.Debug("event loop started", "poll_interval", l.pollInterval.String())
	defer l.logger.Debug("event loop stopped")

	for {
		select {
		case fn := <-l.queue:
			l.safeRun(fn)
		case <-l.stopCh:
			l.watchers.Wait()
			return nil
		case <-ctx.Done():
			l.Stop()
			l.watchers.Wait()
			return ctx.Err()
		}
	}
}

// safeRun invokes fn and recovers from any panic so one faulty callback
// cannot take the loop down.
func (l *Loop) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop callback panicked",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Stop signals Run to return and every watcher to exit.
// Stop is idempotent and safe to call from any goroutine, including from a
// callback running on the loop.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	close(l.stopCh)
}

// addWatcher counts a watcher goroutine in. It returns false once the loop
// has stopped, in which case the goroutine must not be started.
func (l *Loop) addWatcher() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return false
	}
	l.watchers.Add(1)
	return true
}

// Done returns a channel that is closed once Stop has been called.
func (l *Loop) Done() <-chan struct{} {
	return l.stopCh
}

// Running reports whether Run is currently executing.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// Post schedules fn to run on the loop. It is safe to call from any
// goroutine and blocks while the queue is full. Post returns false, without
// queueing fn, once the loop has been stopped.
//
// A callback running on the loop must not Post more work than the queue can
// hold, since nothing drains the queue while it waits.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.stopCh:
		return false
	default:
	}

	select {
	case l.queue <- fn:
		return true
	case <-l.stopCh:
		return false
	}
}

// Every runs fn on the loop once per interval until the returned stop
// function is called or the loop stops. On a stopped loop it never fires.
// A tick that arrives while the
// previous one is still queued is dropped rather than piling up.
func (l *Loop) Every(interval time.Duration, fn func()) (stop func()) {
	done := make(chan struct{})
	var once sync.Once
	stop = func() { once.Do(func() { close(done) }) }

	if interval <= 0 || !l.addWatcher() {
		return stop
	}

	go func() {
		defer l.watchers.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var pending atomic.Bool
		for {
			select {
			case <-l.stopCh:
				return
			case <-done:
				return
			case <-ticker.C:
				if !pending.CompareAndSwap(false, true) {
					continue
				}
				posted := l.Post(func() {
					pending.Store(false)
					select {
					case <-done:
						return
					default:
					}
					fn()
				})
				if !posted {
					return
				}
			}
		}
	}()
	return stop
}

// RegisterReadable watches fd and calls onReadable on the loop whenever fd
// has data (or end-of-stream, or an error) pending. Notification is
// level-triggered: after onReadable returns, the watcher checks fd again and
// re-notifies if it is still readable. The watcher itself never reads from
// fd. The registration starts enabled.
func (l *Loop) RegisterReadable(fd int, onReadable func()) (Registration, error) {
	if onReadable == nil {
		panic("reactor: RegisterReadable requires a non-nil callback")
	}
	if err := checkDescriptor(fd); err != nil {
		return nil, err
	}

	if !l.addWatcher() {
		return nil, apperrors.ErrLoopStopped
	}

	w := newWatch(l, fd, onReadable)
	go func() {
		defer l.watchers.Done()
		w.run()
	}()

	l.logger.Debug("readable interest registered", "fd", fd)
	return w, nil
}

// Compile-time check that Loop satisfies Notifier.
var _ Notifier = (*Loop)(nil)
