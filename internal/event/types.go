package event

import "time"

// Event is the interface that all events must implement.
// It provides a common way to identify and timestamp events.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "message.received", "stream.closed")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeMessageReceived  = "message.received"
	TypeMessageSent      = "message.sent"
	TypeEndOfStream      = "stream.closed"
	TypeReadError        = "stream.read_error"
	TypeWriteFailed      = "stream.write_failed"
	TypePeerLost         = "heartbeat.lost"
	TypePeerRestored     = "heartbeat.restored"
	TypeConfigReloaded   = "config.reloaded"
	TypeLifecycleStopped = "bridge.stopped"
)

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Message Events
// -----------------------------------------------------------------------------

// MessageReceivedEvent is emitted once per completed inbound line.
// Message excludes the line terminator.
type MessageReceivedEvent struct {
	baseEvent
	Message string
}

// NewMessageReceivedEvent creates a MessageReceivedEvent.
func NewMessageReceivedEvent(message string) MessageReceivedEvent {
	return MessageReceivedEvent{
		baseEvent: newBaseEvent(TypeMessageReceived),
		Message:   message,
	}
}

// MessageSentEvent is emitted once per successful Send, carrying the exact
// text written (without the terminator).
type MessageSentEvent struct {
	baseEvent
	Message string
}

// NewMessageSentEvent creates a MessageSentEvent.
func NewMessageSentEvent(message string) MessageSentEvent {
	return MessageSentEvent{
		baseEvent: newBaseEvent(TypeMessageSent),
		Message:   message,
	}
}

// -----------------------------------------------------------------------------
// Stream Lifecycle Events
// -----------------------------------------------------------------------------

// EndOfStreamEvent is emitted at most once, when the input stream closes.
type EndOfStreamEvent struct {
	baseEvent
}

// NewEndOfStreamEvent creates an EndOfStreamEvent.
func NewEndOfStreamEvent() EndOfStreamEvent {
	return EndOfStreamEvent{baseEvent: newBaseEvent(TypeEndOfStream)}
}

// ReadErrorEvent is emitted when the input descriptor fails with an error
// other than end-of-stream. It is terminal for the inbound side.
type ReadErrorEvent struct {
	baseEvent
	Err error
}

// NewReadErrorEvent creates a ReadErrorEvent.
func NewReadErrorEvent(err error) ReadErrorEvent {
	return ReadErrorEvent{
		baseEvent: newBaseEvent(TypeReadError),
		Err:       err,
	}
}

// WriteFailedEvent is emitted the first time a Send cannot write to the
// output stream (for example, the reader went away).
type WriteFailedEvent struct {
	baseEvent
	Message string // The message that could not be sent
	Err     error
}

// NewWriteFailedEvent creates a WriteFailedEvent.
func NewWriteFailedEvent(message string, err error) WriteFailedEvent {
	return WriteFailedEvent{
		baseEvent: newBaseEvent(TypeWriteFailed),
		Message:   message,
		Err:       err,
	}
}

// BridgeStoppedEvent is emitted when a bridge is closed by its owner,
// as opposed to the stream closing underneath it.
type BridgeStoppedEvent struct {
	baseEvent
	Reason string
}

// NewBridgeStoppedEvent creates a BridgeStoppedEvent.
func NewBridgeStoppedEvent(reason string) BridgeStoppedEvent {
	return BridgeStoppedEvent{
		baseEvent: newBaseEvent(TypeLifecycleStopped),
		Reason:    reason,
	}
}

// -----------------------------------------------------------------------------
// Heartbeat Events
// -----------------------------------------------------------------------------

// PeerLostEvent is emitted when heartbeat echoes stop arriving.
type PeerLostEvent struct {
	baseEvent
	LastSeen time.Time // Zero if no echo was ever received
}

// NewPeerLostEvent creates a PeerLostEvent.
func NewPeerLostEvent(lastSeen time.Time) PeerLostEvent {
	return PeerLostEvent{
		baseEvent: newBaseEvent(TypePeerLost),
		LastSeen:  lastSeen,
	}
}

// PeerRestoredEvent is emitted when an echo arrives after PeerLostEvent.
type PeerRestoredEvent struct {
	baseEvent
	Downtime time.Duration
}

// NewPeerRestoredEvent creates a PeerRestoredEvent.
func NewPeerRestoredEvent(downtime time.Duration) PeerRestoredEvent {
	return PeerRestoredEvent{
		baseEvent: newBaseEvent(TypePeerRestored),
		Downtime:  downtime,
	}
}

// -----------------------------------------------------------------------------
// Configuration Events
// -----------------------------------------------------------------------------

// ConfigReloadedEvent is emitted after the config file changes on disk and
// has been re-read successfully.
type ConfigReloadedEvent struct {
	baseEvent
	Path string
}

// NewConfigReloadedEvent creates a ConfigReloadedEvent.
func NewConfigReloadedEvent(path string) ConfigReloadedEvent {
	return ConfigReloadedEvent{
		baseEvent: newBaseEvent(TypeConfigReloaded),
		Path:      path,
	}
}
