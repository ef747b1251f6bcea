// Package reactor provides the single-threaded event loop that hosts a
// bridge, together with level-triggered readiness notification for file
// descriptors.
//
// # Model
//
// A [Loop] owns one goroutine, the one that calls [Loop.Run]. Work reaches it
// three ways:
//
//   - [Loop.Post] queues a closure from any goroutine
//   - [Loop.Every] queues a closure on a fixed interval
//   - [Loop.RegisterReadable] queues a descriptor's callback whenever the
//     descriptor is readable
//
// Closures run one at a time in queue order, so state touched only from loop
// callbacks needs no locking.
//
// # Readiness
//
// Each registration has a watcher goroutine that waits in select(2), with
// the loop's poll interval as timeout so it notices Stop and Close promptly.
// When the descriptor is readable the watcher posts the callback and waits
// for it to finish before selecting again. If the callback leaves data
// unread, the next select returns immediately and the callback runs again:
// readiness is level-triggered. Watchers never read from the descriptor.
//
// Disabling a registration with SetEnabled(false) suppresses the callback
// even if a notification is already queued. Close does the same and ends the
// watcher; neither closes the descriptor.
//
// select(2) limits descriptors to the range [0, 1024). On platforms without
// select(2), [Readable] and [Loop.RegisterReadable] return ErrUnsupported.
//
// # Basic Usage
//
//	loop := reactor.New(reactor.WithLogger(logger))
//	reg, err := loop.RegisterReadable(0, func() {
//	    // read what is available from fd 0
//	})
//	if err != nil {
//	    return err
//	}
//	defer reg.Close()
//
//	stopTick := loop.Every(time.Second, func() { /* ... */ })
//	defer stopTick()
//
//	err = loop.Run(ctx) // blocks until loop.Stop() or ctx is done
package reactor
