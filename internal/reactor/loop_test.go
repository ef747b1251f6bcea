package reactor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/Iron-Ham/linebridge/internal/errors"
	"github.com/Iron-Ham/linebridge/internal/testutil"
)

func TestNew_Defaults(t *testing.T) {
	l := New()
	if l.pollInterval != DefaultPollInterval {
		t.Errorf("pollInterval = %v, want %v", l.pollInterval, DefaultPollInterval)
	}
	if cap(l.queue) != DefaultQueueSize {
		t.Errorf("queue capacity = %d, want %d", cap(l.queue), DefaultQueueSize)
	}

	l = New(WithPollInterval(-1), WithQueueSize(0), WithLogger(nil))
	if l.pollInterval != DefaultPollInterval || cap(l.queue) != DefaultQueueSize {
		t.Error("invalid option values should be ignored")
	}

	l = New(WithPollInterval(5*time.Millisecond), WithQueueSize(8))
	if l.pollInterval != 5*time.Millisecond || cap(l.queue) != 8 {
		t.Errorf("options not applied: poll=%v queue=%d", l.pollInterval, cap(l.queue))
	}
}

func TestLoop_RunUntilStop(t *testing.T) {
	l := New()
	stop := testutil.StartRunner(t, l)

	ran := make(chan struct{})
	if !l.Post(func() { close(ran) }) {
		t.Fatal("Post() = false on a live loop")
	}
	select {
	case <-ran:
	case <-time.After(testutil.DefaultTimeout):
		t.Fatal("posted function did not run")
	}

	if err := stop(); err != nil {
		t.Errorf("Run() = %v, want nil after Stop", err)
	}
	select {
	case <-l.Done():
	default:
		t.Error("Done() should be closed after Stop")
	}
}

func TestLoop_StopFromCallback(t *testing.T) {
	l := New()
	l.Post(l.Stop)

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(context.Background()) }()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(testutil.DefaultTimeout):
		t.Fatal("Run did not return after Stop from a callback")
	}
}

func TestLoop_RunTwice(t *testing.T) {
	l := New()
	testutil.StartRunner(t, l)
	testutil.WaitFor(t, testutil.DefaultTimeout, l.Running, "loop to start")

	if err := l.Run(context.Background()); !errors.Is(err, apperrors.ErrLoopRunning) {
		t.Errorf("second Run() = %v, want ErrLoopRunning", err)
	}
}

func TestLoop_RunAfterStop(t *testing.T) {
	l := New()
	l.Stop()
	l.Stop() // idempotent

	if err := l.Run(context.Background()); !errors.Is(err, apperrors.ErrLoopStopped) {
		t.Errorf("Run() after Stop = %v, want ErrLoopStopped", err)
	}
	if l.Post(func() {}) {
		t.Error("Post() after Stop should return false")
	}
}

func TestLoop_ContextCancel(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(testutil.DefaultTimeout):
		t.Fatal("Run did not return after cancel")
	}
	if l.Post(func() {}) {
		t.Error("a cancelled loop should be stopped")
	}
}

func TestLoop_PostPreservesOrder(t *testing.T) {
	l := New(WithQueueSize(4))
	testutil.StartRunner(t, l)

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})
	for i := 0; i < 50; i++ {
		i := i
		l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			if i == 49 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(testutil.DefaultTimeout):
		t.Fatal("posted work did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d] = %d, want %d (order not preserved)", i, v, i)
		}
	}
}

func TestLoop_CallbacksAreSerialized(t *testing.T) {
	l := New()
	testutil.StartRunner(t, l)

	var active, maxActive, total atomic.Int32
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				l.Post(func() {
					n := active.Add(1)
					if n > maxActive.Load() {
						maxActive.Store(n)
					}
					time.Sleep(100 * time.Microsecond)
					active.Add(-1)
					total.Add(1)
				})
			}
		}()
	}
	wg.Wait()
	testutil.WaitFor(t, testutil.DefaultTimeout, func() bool { return total.Load() == 100 }, "all callbacks to run")

	if maxActive.Load() != 1 {
		t.Errorf("max concurrent callbacks = %d, want 1", maxActive.Load())
	}
}

func TestLoop_PanicRecovered(t *testing.T) {
	l := New()
	testutil.StartRunner(t, l)

	l.Post(func() { panic("boom") })

	ran := make(chan struct{})
	l.Post(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(testutil.DefaultTimeout):
		t.Fatal("loop did not survive a panicking callback")
	}
}

func TestLoop_Every(t *testing.T) {
	l := New()
	testutil.StartRunner(t, l)

	var ticks atomic.Int32
	stopTick := l.Every(5*time.Millisecond, func() { ticks.Add(1) })

	testutil.WaitFor(t, testutil.DefaultTimeout, func() bool { return ticks.Load() >= 3 }, "three ticks")

	stopTick()
	stopTick() // idempotent
	time.Sleep(20 * time.Millisecond)
	settled := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	if ticks.Load() != settled {
		t.Errorf("ticks continued after stop: %d -> %d", settled, ticks.Load())
	}
}

func TestLoop_EveryNonPositiveInterval(t *testing.T) {
	l := New()
	stop := l.Every(0, func() { t.Error("zero interval should never fire") })
	stop()
}

func TestLoop_StopAsSoonAsRunning(t *testing.T) {
	for i := 0; i < 50; i++ {
		l := New()
		errCh := make(chan error, 1)
		go func() { errCh <- l.Run(context.Background()) }()
		testutil.WaitFor(t, testutil.DefaultTimeout, l.Running, "loop to start")
		l.Stop()

		select {
		case err := <-errCh:
			if err != nil {
				t.Fatalf("run %d: Run() = %v, want nil after Stop", i, err)
			}
		case <-time.After(testutil.DefaultTimeout):
			t.Fatalf("run %d: Run did not return after Stop", i)
		}
	}
}

func TestLoop_EveryAfterStop(t *testing.T) {
	l := New()
	l.Stop()

	stop := l.Every(time.Millisecond, func() { t.Error("stopped loop should never tick") })
	defer stop()
	time.Sleep(10 * time.Millisecond)
}

func TestLoop_StopWhileAddingTimers(t *testing.T) {
	l := New()
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(context.Background()) }()
	testutil.WaitFor(t, testutil.DefaultTimeout, l.Running, "loop to start")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				stop := l.Every(time.Millisecond, func() {})
				defer stop()
			}
		}()
	}
	l.Stop()
	wg.Wait()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(testutil.DefaultTimeout):
		t.Fatal("Run did not return while timers were being added")
	}
}
