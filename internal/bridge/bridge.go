package bridge

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"syscall"

	apperrors "github.com/Iron-Ham/linebridge/internal/errors"
	"github.com/Iron-Ham/linebridge/internal/event"
	"github.com/Iron-Ham/linebridge/internal/logging"
	"github.com/Iron-Ham/linebridge/internal/reactor"
)

// Bridge exchanges newline-terminated messages over a readable descriptor
// and a writer.
//
// Inbound bytes are read only when the notifier reports the descriptor
// readable. Each notification drains at most one line; a level-triggered
// notifier calls again while bytes remain. Completed lines are published
// as event.MessageReceivedEvent. Send writes one line and publishes
// event.MessageSentEvent.
type Bridge struct {
	fd     int
	in     io.ByteReader
	out    io.Writer
	bus    *event.Bus
	policy Policy
	logger *logging.Logger

	// mu guards the inbound side. Events are collected under mu and
	// published after it is released so subscribers may call back into
	// the bridge.
	mu    sync.Mutex
	reg   reactor.Registration
	line  []byte
	state State

	// writeMu serializes Send so each line is written whole and sent
	// events are published in write order.
	writeMu  sync.Mutex
	writeErr error

	closeOnce sync.Once
	onClose   func() // releases resources the constructor acquired

	keepAlive *os.File // owner of fd when built by NewFile

	received atomic.Uint64
	sent     atomic.Uint64
}

// New creates a Bridge reading fd through in and writing to out, and
// registers it with n for readable notifications on fd. No byte is read
// until the first notification.
//
// The notifier, reader, writer, and bus must be non-nil. Passing nil will
// panic early to surface wiring bugs immediately.
func New(n reactor.Notifier, fd int, in io.ByteReader, out io.Writer, bus *event.Bus, opts ...Option) (*Bridge, error) {
	if n == nil {
		panic("bridge: reactor.Notifier must not be nil")
	}
	if in == nil {
		panic("bridge: input reader must not be nil")
	}
	if out == nil {
		panic("bridge: output writer must not be nil")
	}
	if bus == nil {
		panic("bridge: event.Bus must not be nil")
	}

	cfg := &config{
		policy:       PolicyDistinctEOF,
		capacityHint: DefaultCapacityHint,
		logger:       logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.capacityHint <= 0 {
		cfg.capacityHint = DefaultCapacityHint
	}
	if cfg.logger == nil {
		cfg.logger = logging.NopLogger()
	}

	b := &Bridge{
		fd:     fd,
		in:     in,
		out:    out,
		bus:    bus,
		policy: cfg.policy,
		logger: cfg.logger.WithComponent("bridge"),
		line:   make([]byte, 0, cfg.capacityHint),
		state:  StateOpen,
	}

	// Hold mu across registration so a notification that arrives before
	// reg is assigned waits for it.
	b.mu.Lock()
	reg, err := n.RegisterReadable(fd, b.handleReadable)
	if err != nil {
		b.mu.Unlock()
		return nil, fmt.Errorf("register fd %d for readable notifications: %w", fd, err)
	}
	b.reg = reg
	b.mu.Unlock()

	b.logger.Info("bridge opened", "fd", fd, "policy", b.policy.String())
	return b, nil
}

// NewFile creates a Bridge that reads from in's descriptor through an
// FDReader. The bridge keeps in referenced but never closes it.
func NewFile(n reactor.Notifier, in *os.File, out io.Writer, bus *event.Bus, opts ...Option) (*Bridge, error) {
	if in == nil {
		panic("bridge: input file must not be nil")
	}
	fd := int(in.Fd())
	b, err := New(n, fd, NewFDReader(fd), out, bus, opts...)
	if err != nil {
		return nil, err
	}
	b.keepAlive = in
	return b, nil
}

// -----------------------------------------------------------------------------
// Inbound
// -----------------------------------------------------------------------------

// handleReadable is the readable callback. It runs on the notifier's loop.
func (b *Bridge) handleReadable() {
	b.mu.Lock()
	pending := b.drainLocked()
	b.mu.Unlock()

	for _, e := range pending {
		b.bus.Publish(e)
	}
}

// drainLocked reads until a terminator, end-of-stream, a would-block, or a
// read error, and returns the events to publish in order.
func (b *Bridge) drainLocked() []event.Event {
	if b.state == StateClosed {
		return nil
	}

	for {
		c, err := b.in.ReadByte()
		if err == nil {
			if c == '\n' {
				return []event.Event{b.completeLocked()}
			}
			b.line = append(b.line, c)
			continue
		}

		switch {
		case apperrors.Is(err, apperrors.ErrWouldBlock):
			// Keep the partial line for the next notification.
			return nil
		case apperrors.Is(err, io.EOF):
			return b.endOfStreamLocked()
		default:
			return b.readFailedLocked(err)
		}
	}
}

// completeLocked turns the accumulator into a received event and starts a
// fresh, empty line.
func (b *Bridge) completeLocked() event.Event {
	msg := string(b.line)
	b.line = b.line[:0]
	b.received.Add(1)
	b.logger.Debug("message received", "direction", "inbound", "bytes", len(msg))
	return event.NewMessageReceivedEvent(msg)
}

func (b *Bridge) endOfStreamLocked() []event.Event {
	if b.policy == PolicyAlwaysPublish {
		return []event.Event{b.completeLocked()}
	}

	var events []event.Event
	if len(b.line) > 0 {
		events = append(events, b.completeLocked())
	}
	b.closeInboundLocked()
	b.logger.Info("input stream closed", "fd", b.fd)
	return append(events, event.NewEndOfStreamEvent())
}

func (b *Bridge) readFailedLocked(cause error) []event.Event {
	var events []event.Event
	if len(b.line) > 0 {
		events = append(events, b.completeLocked())
	}
	b.closeInboundLocked()

	err := apperrors.NewStreamError(apperrors.DirectionInbound, "read failed",
		fmt.Errorf("%w: %w", apperrors.ErrReadFailed, cause)).WithFD(b.fd)
	b.logger.Error("read failed", "fd", b.fd, "error", err.Error())
	return append(events, event.NewReadErrorEvent(err))
}

// closeInboundLocked moves to Closed and stops notifications for good.
func (b *Bridge) closeInboundLocked() {
	b.state = StateClosed
	if b.reg != nil {
		b.reg.SetEnabled(false)
		_ = b.reg.Close()
	}
}

// -----------------------------------------------------------------------------
// Outbound
// -----------------------------------------------------------------------------

// Send writes msg followed by '\n' in a single write and flushes out if it
// buffers. On success it publishes a sent event carrying msg.
//
// The first write failure publishes event.WriteFailedEvent and returns a
// *errors.StreamError wrapping errors.ErrWriteFailed. A broken pipe is
// reported with errors.SeverityWarning, anything else with SeverityError.
// The output side is then finished: later calls return the same error
// without writing.
//
// A message containing '\n' is written as is and arrives as several lines.
// Subscribers to message.sent must not call Send synchronously.
func (b *Bridge) Send(msg string) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if b.writeErr != nil {
		return b.writeErr
	}

	if err := b.write(msg); err != nil {
		serr := apperrors.NewStreamError(apperrors.DirectionOutbound, "send failed",
			fmt.Errorf("%w: %w", apperrors.ErrWriteFailed, err))
		if fd, ok := descriptorOf(b.out); ok {
			serr = serr.WithFD(fd)
		}
		// The reader hanging up is how a session normally ends.
		if apperrors.Is(err, syscall.EPIPE) {
			serr = serr.WithSeverity(apperrors.SeverityWarning)
		}
		b.writeErr = serr
		if serr.Severity() == apperrors.SeverityWarning {
			b.logger.Warn("write failed", "direction", "outbound", "error", serr.Error())
		} else {
			b.logger.Error("write failed", "direction", "outbound", "error", serr.Error())
		}
		b.bus.Publish(event.NewWriteFailedEvent(msg, serr))
		return serr
	}

	b.sent.Add(1)
	b.logger.Debug("message sent", "direction", "outbound", "bytes", len(msg))
	b.bus.Publish(event.NewMessageSentEvent(msg))
	return nil
}

func (b *Bridge) write(msg string) error {
	buf := make([]byte, 0, len(msg)+1)
	buf = append(buf, msg...)
	buf = append(buf, '\n')
	if _, err := b.out.Write(buf); err != nil {
		return err
	}
	if f, ok := b.out.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func descriptorOf(w io.Writer) (int, bool) {
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		return int(f.Fd()), true
	}
	return 0, false
}

// WriteErr returns the terminal write error, or nil while sends succeed.
func (b *Bridge) WriteErr() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.writeErr
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// State returns the inbound lifecycle state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Policy returns the completion policy the bridge was built with.
func (b *Bridge) Policy() Policy {
	return b.policy
}

// FD returns the input descriptor.
func (b *Bridge) FD() int {
	return b.fd
}

// Stats returns traffic counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Received: b.received.Load(),
		Sent:     b.sent.Load(),
	}
}

// Close stops listening for input and releases what the constructor
// acquired. A partial line is discarded. Close publishes
// event.BridgeStoppedEvent once; it does not publish end-of-stream and
// does not close the descriptors. Send keeps working after Close.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		if len(b.line) > 0 {
			b.logger.Debug("discarding partial line", "bytes", len(b.line))
			b.line = b.line[:0]
		}
		b.closeInboundLocked()
		b.mu.Unlock()

		if b.onClose != nil {
			b.onClose()
		}
		b.logger.Info("bridge closed", "fd", b.fd)
		b.bus.Publish(event.NewBridgeStoppedEvent("closed by owner"))
	})
	return nil
}
