package fdclaim

import (
	"errors"
	"time"
)

// Sentinel errors returned by registry operations.
var (
	// ErrAlreadyClaimed is returned when a descriptor is already claimed by another owner.
	ErrAlreadyClaimed = errors.New("descriptor already claimed by another owner")

	// ErrNotOwner is returned when an owner tries to release a descriptor it does not own.
	ErrNotOwner = errors.New("owner does not hold this descriptor")

	// ErrNotClaimed is returned when an owner tries to release an unclaimed descriptor.
	ErrNotClaimed = errors.New("descriptor is not claimed")
)

// Claim represents an ownership claim on a descriptor.
type Claim struct {
	Owner     string    // Owner that holds the claim
	FD        int       // The claimed descriptor
	ClaimedAt time.Time // When the claim was established
}

// DescriptorName returns a readable name for well-known descriptors.
func DescriptorName(fd int) string {
	switch fd {
	case 0:
		return "stdin"
	case 1:
		return "stdout"
	case 2:
		return "stderr"
	default:
		return "fd"
	}
}
