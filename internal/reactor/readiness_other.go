//go:build !unix

package reactor

import (
	"time"

	apperrors "github.com/Iron-Ham/linebridge/internal/errors"
)

// Supported reports whether readiness notification works on this platform.
const Supported = false

// Readable always fails with ErrUnsupported on this platform.
func Readable(fd int, timeout time.Duration) (bool, error) {
	return false, apperrors.ErrUnsupported
}

func checkDescriptor(fd int) error {
	return apperrors.ErrUnsupported
}
