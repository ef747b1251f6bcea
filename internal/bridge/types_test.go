package bridge

import (
	"errors"
	"testing"

	apperrors "github.com/Iron-Ham/linebridge/internal/errors"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"distinct_eof", PolicyDistinctEOF, false},
		{"always_publish", PolicyAlwaysPublish, false},
		{"  Always_Publish ", PolicyAlwaysPublish, false},
		{"DISTINCT_EOF", PolicyDistinctEOF, false},
		{"", PolicyDistinctEOF, true},
		{"variant_a", PolicyDistinctEOF, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrInvalidInput) {
					t.Errorf("ParsePolicy(%q) error = %v, want ErrInvalidInput", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePolicy(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPolicyString_RoundTrip(t *testing.T) {
	for _, p := range []Policy{PolicyDistinctEOF, PolicyAlwaysPublish} {
		got, err := ParsePolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePolicy(%q) = (%v, %v), want %v", p.String(), got, err, p)
		}
	}
	if Policy(9).String() != "policy(9)" {
		t.Errorf("unknown policy String() = %q", Policy(9).String())
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateOpen:   "open",
		StateClosed: "closed",
		State(5):    "state(5)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

func TestNew_DefaultCapacity(t *testing.T) {
	b, err := New(nopNotifier{}, 0, nopReader{}, nopWriter{}, newTestBus())
	if err != nil {
		t.Fatal(err)
	}
	if cap(b.line) != DefaultCapacityHint {
		t.Errorf("accumulator capacity = %d, want %d", cap(b.line), DefaultCapacityHint)
	}

	b, err = New(nopNotifier{}, 0, nopReader{}, nopWriter{}, newTestBus(), WithCapacityHint(64))
	if err != nil {
		t.Fatal(err)
	}
	if cap(b.line) != 64 {
		t.Errorf("accumulator capacity = %d, want 64", cap(b.line))
	}
}
