package heartbeat

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Iron-Ham/linebridge/internal/config"
	"github.com/Iron-Ham/linebridge/internal/event"
	"github.com/Iron-Ham/linebridge/internal/logging"
)

// Sender sends one line to the peer. *bridge.Bridge satisfies it.
type Sender interface {
	Send(msg string) error
}

// Scheduler runs fn periodically. *reactor.Loop satisfies it.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (stop func())
}

// Status is a snapshot of the monitor.
type Status struct {
	Enabled  bool
	Alive    bool
	Sent     int       // heartbeats sent
	LastEcho time.Time // zero until the first echo
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger for the monitor.
func WithLogger(logger *logging.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// Monitor sends heartbeats and tracks whether the peer echoes them.
type Monitor struct {
	sender   Sender
	bus      *event.Bus
	interval time.Duration
	timeout  time.Duration
	prefix   string
	logger   *logging.Logger
	now      func() time.Time

	mu        sync.Mutex
	started   bool
	stopTick  func()
	subID     string
	seq       int
	since     time.Time // last echo, or start if none yet
	lastEcho  time.Time
	lost      bool
	lostAt    time.Time
	sendFails bool
}

// New creates a Monitor from cfg. An interval of zero leaves the monitor
// disabled: Start does nothing.
//
// The sender and bus must be non-nil. Passing nil will panic early to
// surface wiring bugs immediately.
func New(sender Sender, bus *event.Bus, cfg config.HeartbeatConfig, opts ...Option) *Monitor {
	if sender == nil {
		panic("heartbeat: Sender must not be nil")
	}
	if bus == nil {
		panic("heartbeat: event.Bus must not be nil")
	}

	m := &Monitor{
		sender:   sender,
		bus:      bus,
		interval: cfg.Interval(),
		timeout:  cfg.Timeout(),
		prefix:   cfg.Prefix,
		logger:   logging.NopLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithComponent("heartbeat")
	return m
}

// Enabled reports whether the monitor sends heartbeats at all.
func (m *Monitor) Enabled() bool {
	return m.interval > 0
}

// Start subscribes to received messages and schedules heartbeats on s.
// It returns an error if the monitor was already started.
func (m *Monitor) Start(s Scheduler) error {
	if !m.Enabled() {
		m.logger.Debug("heartbeat disabled")
		return nil
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("heartbeat: already started")
	}
	m.started = true
	m.since = m.now()
	m.mu.Unlock()

	subID := m.bus.Subscribe(event.TypeMessageReceived, m.onReceived)
	stop := s.Every(m.interval, m.Tick)

	m.mu.Lock()
	m.subID = subID
	m.stopTick = stop
	m.mu.Unlock()

	m.logger.Info("heartbeat started",
		"interval", m.interval.String(), "timeout", m.timeout.String(), "prefix", m.prefix)
	return nil
}

// Stop cancels heartbeats and the echo subscription. It is safe to call
// multiple times.
func (m *Monitor) Stop() {
	m.mu.Lock()
	stop := m.stopTick
	subID := m.subID
	m.stopTick = nil
	m.subID = ""
	m.mu.Unlock()

	if stop != nil {
		stop()
	}
	if subID != "" {
		m.bus.Unsubscribe(subID)
	}
}

// Tick checks liveness, then sends the next heartbeat. The scheduler calls
// it once per interval.
func (m *Monitor) Tick() {
	now := m.now()

	m.mu.Lock()
	if m.sendFails {
		m.mu.Unlock()
		return
	}
	var lostEvent event.Event
	if !m.lost && now.Sub(m.since) > m.timeout {
		m.lost = true
		m.lostAt = now
		lostEvent = event.NewPeerLostEvent(m.lastEcho)
	}
	m.seq++
	msg := fmt.Sprintf("%s %d", m.prefix, m.seq)
	m.mu.Unlock()

	if lostEvent != nil {
		m.logger.Warn("peer stopped echoing heartbeats", "timeout", m.timeout.String())
		m.bus.Publish(lostEvent)
	}

	if err := m.sender.Send(msg); err != nil {
		// The output side is gone for good; keep the ticker from retrying.
		m.mu.Lock()
		m.sendFails = true
		m.mu.Unlock()
		m.logger.Warn("heartbeat send failed, stopping", "error", err.Error())
		m.Stop()
	}
}

// IsHeartbeat reports whether msg is a heartbeat line (sent or echoed).
func (m *Monitor) IsHeartbeat(msg string) bool {
	return hasPrefix(m.prefix, msg)
}

// Matcher returns a predicate matching heartbeat lines for prefix, for
// code that recognizes heartbeats without running a Monitor. An empty
// prefix matches nothing.
func Matcher(prefix string) func(msg string) bool {
	return func(msg string) bool { return hasPrefix(prefix, msg) }
}

func hasPrefix(prefix, msg string) bool {
	return prefix != "" && strings.HasPrefix(msg, prefix)
}

func (m *Monitor) onReceived(e event.Event) {
	rcv, ok := e.(event.MessageReceivedEvent)
	if !ok || !m.IsHeartbeat(rcv.Message) {
		return
	}
	now := m.now()

	m.mu.Lock()
	m.since = now
	m.lastEcho = now
	var restored event.Event
	if m.lost {
		m.lost = false
		restored = event.NewPeerRestoredEvent(now.Sub(m.lostAt))
	}
	m.mu.Unlock()

	if restored != nil {
		m.logger.Info("peer answering heartbeats again")
		m.bus.Publish(restored)
	}
}

// Status returns a snapshot of the monitor.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Enabled:  m.Enabled(),
		Alive:    !m.lost,
		Sent:     m.seq,
		LastEcho: m.lastEcho,
	}
}
