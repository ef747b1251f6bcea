package event

import (
	"errors"
	"testing"
	"time"
)

func TestEventConstructors(t *testing.T) {
	boom := errors.New("boom")
	lastSeen := time.Now().Add(-time.Minute)

	tests := []struct {
		name     string
		event    Event
		wantType string
	}{
		{"received", NewMessageReceivedEvent("abc"), TypeMessageReceived},
		{"sent", NewMessageSentEvent("hello"), TypeMessageSent},
		{"end of stream", NewEndOfStreamEvent(), TypeEndOfStream},
		{"read error", NewReadErrorEvent(boom), TypeReadError},
		{"write failed", NewWriteFailedEvent("hello", boom), TypeWriteFailed},
		{"stopped", NewBridgeStoppedEvent("shutdown"), TypeLifecycleStopped},
		{"peer lost", NewPeerLostEvent(lastSeen), TypePeerLost},
		{"peer restored", NewPeerRestoredEvent(3 * time.Second), TypePeerRestored},
		{"config reloaded", NewConfigReloadedEvent("/tmp/config.yaml"), TypeConfigReloaded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.EventType(); got != tt.wantType {
				t.Errorf("EventType() = %q, want %q", got, tt.wantType)
			}
			if tt.event.Timestamp().IsZero() {
				t.Error("Timestamp() should be set")
			}
		})
	}
}

func TestEventPayloads(t *testing.T) {
	boom := errors.New("boom")

	if got := NewMessageSentEvent("").Message; got != "" {
		t.Errorf("empty sent message = %q, want empty", got)
	}
	if got := NewReadErrorEvent(boom).Err; !errors.Is(got, boom) {
		t.Errorf("ReadErrorEvent.Err = %v, want %v", got, boom)
	}
	wf := NewWriteFailedEvent("hello", boom)
	if wf.Message != "hello" || !errors.Is(wf.Err, boom) {
		t.Errorf("WriteFailedEvent = %+v", wf)
	}
	if got := NewPeerRestoredEvent(2 * time.Second).Downtime; got != 2*time.Second {
		t.Errorf("Downtime = %v, want 2s", got)
	}
	if got := NewPeerLostEvent(time.Time{}).LastSeen; !got.IsZero() {
		t.Errorf("LastSeen = %v, want zero", got)
	}
}
