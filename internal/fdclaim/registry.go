package fdclaim

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Process is the registry for descriptors shared by the whole process, in
// particular the standard streams.
var Process = NewRegistry()

// Registry manages exclusive descriptor ownership claims.
type Registry struct {
	mu     sync.RWMutex
	claims map[int]Claim // fd -> claim
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		claims: make(map[int]Claim),
	}
}

// Claim registers ownership of fd for owner.
// Returns ErrAlreadyClaimed if fd is owned by a different owner.
// If owner already holds fd, this is a no-op.
func (r *Registry) Claim(owner string, fd int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.claimLocked(owner, fd)
	return err
}

// claimLocked performs a single claim while the write lock is held.
// Returns true if a new claim was recorded, false for idempotent no-ops.
func (r *Registry) claimLocked(owner string, fd int) (bool, error) {
	if existing, ok := r.claims[fd]; ok {
		if existing.Owner == owner {
			return false, nil // idempotent
		}
		return false, fmt.Errorf("%w: %s owns %s (fd %d)", ErrAlreadyClaimed, existing.Owner, DescriptorName(fd), fd)
	}

	r.claims[fd] = Claim{
		Owner:     owner,
		FD:        fd,
		ClaimedAt: time.Now(),
	}
	return true, nil
}

// ClaimMultiple registers ownership of several descriptors for owner.
// It claims atomically: if any claim fails, descriptors newly claimed in
// this batch are rolled back.
func (r *Registry) ClaimMultiple(owner string, fds []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var claimed []int
	for _, fd := range fds {
		isNew, err := r.claimLocked(owner, fd)
		if err != nil {
			for _, c := range claimed {
				delete(r.claims, c)
			}
			return err
		}
		if isNew {
			claimed = append(claimed, fd)
		}
	}
	return nil
}

// Release relinquishes ownership of fd for owner.
// Returns ErrNotClaimed if fd is not claimed, or ErrNotOwner
// if fd is claimed by a different owner.
func (r *Registry) Release(owner string, fd int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.claims[fd]
	if !ok {
		return fmt.Errorf("%w: %s (fd %d)", ErrNotClaimed, DescriptorName(fd), fd)
	}
	if existing.Owner != owner {
		return fmt.Errorf("%w: %s owns %s (fd %d)", ErrNotOwner, existing.Owner, DescriptorName(fd), fd)
	}

	delete(r.claims, fd)
	return nil
}

// ReleaseAll relinquishes every descriptor owned by owner.
// Returns the released descriptors in ascending order.
func (r *Registry) ReleaseAll(owner string) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var released []int
	for fd, claim := range r.claims {
		if claim.Owner == owner {
			released = append(released, fd)
			delete(r.claims, fd)
		}
	}
	sort.Ints(released)
	return released
}

// Owner returns the owner of fd and true, or ("", false) if fd is unclaimed.
func (r *Registry) Owner(fd int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	claim, ok := r.claims[fd]
	if !ok {
		return "", false
	}
	return claim.Owner, true
}

// IsAvailable returns true if fd is not claimed by anyone.
func (r *Registry) IsAvailable(fd int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.claims[fd]
	return !ok
}

// Descriptors returns the descriptors claimed by owner in ascending order.
func (r *Registry) Descriptors(owner string) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var fds []int
	for fd, claim := range r.claims {
		if claim.Owner == owner {
			fds = append(fds, fd)
		}
	}
	sort.Ints(fds)
	return fds
}
