package bridge

import (
	"fmt"
	"os"
	"sync/atomic"

	apperrors "github.com/Iron-Ham/linebridge/internal/errors"
	"github.com/Iron-Ham/linebridge/internal/event"
	"github.com/Iron-Ham/linebridge/internal/fdclaim"
	"github.com/Iron-Ham/linebridge/internal/reactor"
)

// Process stdio descriptors.
const (
	StdinFD  = 0
	StdoutFD = 1
)

var stdioOwners atomic.Uint64

// NewStdio creates a Bridge over the process's standard input and output.
//
// The bridge assumes exclusive ownership of both streams for its lifetime:
// nothing else in the process may read stdin or write stdout. The claim is
// recorded in fdclaim.Process, so a second NewStdio fails with
// errors.ErrStdioClaimed until the first bridge is closed.
func NewStdio(n reactor.Notifier, bus *event.Bus, opts ...Option) (*Bridge, error) {
	owner := fmt.Sprintf("bridge-%d", stdioOwners.Add(1))
	if err := fdclaim.Process.ClaimMultiple(owner, []int{StdinFD, StdoutFD}); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrStdioClaimed, err)
	}

	b, err := NewFile(n, os.Stdin, os.Stdout, bus, opts...)
	if err != nil {
		fdclaim.Process.ReleaseAll(owner)
		return nil, err
	}
	b.onClose = func() {
		released := fdclaim.Process.ReleaseAll(owner)
		b.logger.Debug("released stdio claim", "owner", owner, "fds", released)
	}
	b.logger.Info("claimed process stdio", "owner", owner)
	return b, nil
}
