package bridge

import (
	apperrors "github.com/Iron-Ham/linebridge/internal/errors"
	"github.com/Iron-Ham/linebridge/internal/event"
	"github.com/Iron-Ham/linebridge/internal/reactor"
)

type nopNotifier struct{}

func (nopNotifier) RegisterReadable(int, func()) (reactor.Registration, error) {
	return nopRegistration{}, nil
}

type nopRegistration struct{}

func (nopRegistration) SetEnabled(bool) {}
func (nopRegistration) Enabled() bool   { return true }
func (nopRegistration) Close() error    { return nil }

type nopReader struct{}

func (nopReader) ReadByte() (byte, error) { return 0, apperrors.ErrWouldBlock }

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestBus() *event.Bus { return event.NewBus() }
