//go:build unix

package reactor

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	apperrors "github.com/Iron-Ham/linebridge/internal/errors"
)

// maxSelectFD is the number of descriptors an FdSet can hold.
const maxSelectFD = 1024

// Supported reports whether readiness notification works on this platform.
const Supported = true

// Readable reports whether a read on fd would not block: data is pending,
// the peer has closed, or the descriptor is in an error state. A negative
// timeout blocks until fd is ready; zero polls without blocking.
// An interrupted wait (EINTR) reports not ready.
func Readable(fd int, timeout time.Duration) (bool, error) {
	if err := checkDescriptor(fd); err != nil {
		return false, err
	}

	var readFds unix.FdSet
	readFds.Zero()
	readFds.Set(fd)

	var tv *unix.Timeval
	if timeout >= 0 {
		tvVal := unix.NsecToTimeval(timeout.Nanoseconds())
		tv = &tvVal
	}

	n, err := unix.Select(fd+1, &readFds, nil, nil, tv)
	if err != nil {
		// EINTR is expected when signals arrive
		if err == unix.EINTR {
			return false, nil
		}
		return false, fmt.Errorf("select on fd %d: %w", fd, err)
	}

	return n > 0 && readFds.IsSet(fd), nil
}

// checkDescriptor rejects descriptors select(2) cannot watch.
func checkDescriptor(fd int) error {
	if fd < 0 || fd >= maxSelectFD {
		return apperrors.NewStreamError(apperrors.DirectionInbound,
			fmt.Sprintf("descriptor out of range [0, %d)", maxSelectFD), apperrors.ErrInvalidInput).WithFD(fd)
	}
	return nil
}
