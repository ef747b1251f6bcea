// Package bridge exchanges newline-terminated text messages with a peer
// process over a pair of byte streams, normally the process's own stdin
// and stdout.
//
// A Bridge never blocks its event loop. It registers the input descriptor
// with a [reactor.Notifier] and reads only when told the descriptor is
// readable, one byte at a time, through an [FDReader] that returns
// [errors.ErrWouldBlock] instead of waiting. Each notification drains at
// most one line. The notifier is level-triggered, so a descriptor holding
// several lines is notified once per line.
//
// Traffic is published on an [event.Bus]:
//
//   - message.received for every line terminated by '\n', even an empty one
//   - message.sent for every successful [Bridge.Send]
//   - stream.closed once at end-of-stream under [PolicyDistinctEOF]
//   - stream.read_error and stream.write_failed when a side fails for good
//   - bridge.stopped when the owner calls [Bridge.Close]
//
// What happens at end-of-stream depends on the [Policy]. Under
// [PolicyDistinctEOF] a non-empty partial line is published, then
// end-of-stream, and the registration is disabled permanently. Under
// [PolicyAlwaysPublish] the accumulated text is published even if empty
// and nothing else changes.
//
// Lifecycle:
//
//	loop := reactor.New()
//	b, err := bridge.NewStdio(loop, bus, bridge.WithPolicy(bridge.PolicyDistinctEOF))
//	go loop.Run(ctx)
//	loop.Post(func() { _ = b.Send("hello") })
//	// ...
//	b.Close()
package bridge
