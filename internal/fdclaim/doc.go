// Package fdclaim tracks exclusive ownership of file descriptors within the
// process.
//
// A line bridge is the sole reader of its input descriptor and the sole
// writer of its output descriptor. For the process's standard streams that
// is a process-wide precondition: two bridges reading fd 0 would split lines
// between them unpredictably. The [Registry] turns the precondition into an
// explicit, checked claim: owners claim descriptors before using them and
// release them when done, and a conflicting claim fails with
// [ErrAlreadyClaimed] instead of silently interleaving.
//
// [Process] is the registry shared by everything in the process that
// touches the standard streams.
//
// # Basic Usage
//
//	if err := fdclaim.Process.ClaimMultiple("bridge-1", []int{0, 1}); err != nil {
//	    return err // someone else owns stdio
//	}
//	defer fdclaim.Process.ReleaseAll("bridge-1")
//
// # Thread Safety
//
// All [Registry] methods are safe for concurrent use via an internal sync.RWMutex.
package fdclaim
