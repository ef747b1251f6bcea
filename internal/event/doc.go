// Package event provides a pub-sub event bus for decoupled communication
// between the line bridge and whatever observes its traffic.
//
// The bridge publishes one event per inbound line, per outbound send, and
// per lifecycle transition. A UI view, a logger, and the heartbeat monitor
// subscribe independently without the bridge knowing about any of them.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Message Traffic:
//   - [MessageReceivedEvent]: One completed inbound line
//   - [MessageSentEvent]: One successful outbound send
//
// Stream Lifecycle:
//   - [EndOfStreamEvent]: The input stream closed (at most once)
//   - [ReadErrorEvent]: The input descriptor failed
//   - [WriteFailedEvent]: The output stream is broken
//   - [BridgeStoppedEvent]: The owner closed the bridge
//
// Peer Liveness:
//   - [PeerLostEvent]: Heartbeat echoes stopped arriving
//   - [PeerRestoredEvent]: Heartbeat echoes resumed
//
// Configuration:
//   - [ConfigReloadedEvent]: The config file changed on disk
//
// # Ordering
//
// Publish dispatches on the calling goroutine and returns after every
// handler has run. Events published in sequence from one goroutine are
// therefore observed in that sequence by every subscriber. The bridge
// publishes only from the event loop goroutine, which gives received
// messages the byte-arrival order of the stream.
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are protected against
// panics; a panicking handler will not prevent other handlers from being
// called.
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	bus.Subscribe(event.TypeMessageReceived, func(e event.Event) {
//	    msg := e.(event.MessageReceivedEvent)
//	    log.Printf("peer said %q", msg.Message)
//	})
//
//	bus.SubscribeAll(func(e event.Event) {
//	    log.Printf("Event: %s at %v", e.EventType(), e.Timestamp())
//	})
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - message.received, message.sent
//   - stream.closed, stream.read_error, stream.write_failed
//   - bridge.stopped
//   - heartbeat.lost, heartbeat.restored
//   - config.reloaded
package event
