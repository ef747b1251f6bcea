//go:build unix

package bridge

import (
	"io"

	"golang.org/x/sys/unix"

	apperrors "github.com/Iron-Ham/linebridge/internal/errors"
	"github.com/Iron-Ham/linebridge/internal/reactor"
)

// FDReader reads a descriptor one byte at a time without blocking.
//
// Before each read it probes readiness with a zero timeout, so it never
// waits for input and never needs O_NONBLOCK on a descriptor it may share
// with other processes. It holds no buffer beyond the byte being read,
// which keeps readiness on the descriptor an honest signal of unread input.
type FDReader struct {
	fd  int
	buf [1]byte
}

// NewFDReader returns an FDReader for fd. It does not take ownership.
func NewFDReader(fd int) *FDReader {
	return &FDReader{fd: fd}
}

// ReadByte returns the next byte, errors.ErrWouldBlock if none is
// available right now, or io.EOF once the writer side is closed.
func (r *FDReader) ReadByte() (byte, error) {
	ready, err := reactor.Readable(r.fd, 0)
	if err != nil {
		return 0, err
	}
	if !ready {
		return 0, apperrors.ErrWouldBlock
	}

	for {
		n, err := unix.Read(r.fd, r.buf[:])
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return 0, apperrors.ErrWouldBlock
		case err != nil:
			return 0, err
		case n == 0:
			return 0, io.EOF
		}
		return r.buf[0], nil
	}
}
