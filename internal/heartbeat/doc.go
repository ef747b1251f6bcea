// Package heartbeat checks that the peer on the other end of a bridge is
// still answering.
//
// A Monitor sends "<prefix> <n>" on a fixed interval and watches received
// messages for lines that start with the same prefix, which a cooperating
// peer echoes back. When no echo has arrived for longer than the timeout it
// publishes heartbeat.lost once; the next echo publishes heartbeat.restored.
//
// A Monitor does no I/O of its own. Ticks come from a [Scheduler] (normally
// the reactor loop) and echoes arrive as message.received events, so all of
// its work happens on the loop goroutine.
package heartbeat
