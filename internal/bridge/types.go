package bridge

import (
	"fmt"
	"strings"

	apperrors "github.com/Iron-Ham/linebridge/internal/errors"
)

// Policy decides what a bridge publishes when the input stream ends.
// A line terminated by '\n' is always published, even when empty; the
// policies differ only at end-of-stream.
type Policy int

const (
	// PolicyDistinctEOF publishes a trailing partial line only if it is
	// non-empty, then publishes a single end-of-stream event and stops
	// listening. Consumers can tell an empty line from a closing stream.
	PolicyDistinctEOF Policy = iota

	// PolicyAlwaysPublish publishes whatever was accumulated at
	// end-of-stream, even nothing, and never reports end-of-stream. The
	// registration stays enabled, so a closed stream yields a repeated empty
	// message on every notification until the owner closes the bridge.
	PolicyAlwaysPublish
)

// String returns the configuration name of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyDistinctEOF:
		return "distinct_eof"
	case PolicyAlwaysPublish:
		return "always_publish"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy converts a configuration name into a Policy. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "distinct_eof":
		return PolicyDistinctEOF, nil
	case "always_publish":
		return PolicyAlwaysPublish, nil
	default:
		return PolicyDistinctEOF, apperrors.NewValidationError("completion_policy", s,
			"must be one of: distinct_eof, always_publish")
	}
}

// State is the inbound lifecycle of a bridge. The only transition is
// Open to Closed, and it is permanent.
type State int

const (
	// StateOpen means notifications are active and more input may arrive.
	StateOpen State = iota
	// StateClosed means the input side is finished: end-of-stream (under
	// PolicyDistinctEOF), a read error, or Close.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Stats counts traffic through a bridge.
type Stats struct {
	Received uint64 // message.received events published
	Sent     uint64 // successful sends
}
