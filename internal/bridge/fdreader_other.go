//go:build !unix

package bridge

import (
	apperrors "github.com/Iron-Ham/linebridge/internal/errors"
)

// FDReader is unavailable on this platform; every read fails with
// errors.ErrUnsupported.
type FDReader struct {
	fd int
}

// NewFDReader returns an FDReader for fd.
func NewFDReader(fd int) *FDReader {
	return &FDReader{fd: fd}
}

// ReadByte always fails on this platform.
func (r *FDReader) ReadByte() (byte, error) {
	return 0, apperrors.ErrUnsupported
}
