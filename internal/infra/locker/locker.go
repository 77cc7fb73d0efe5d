// Package locker provides the per-owner mutual-exclusion lease that
// serializes mutating operations (top-up, card creation, payout) for a
// single owner. Reads never acquire the lease.
package locker

import (
	"context"
	"sync"
	"time"

	"github.com/eventpay/connect-go/internal/domain"
)

// errLeaseBusy is returned when the lease cannot be acquired in time.
// It is transient: the caller may retry the whole operation.
func errLeaseBusy() *domain.DomainError {
	return domain.ErrTransient("lease_busy", "another operation for this account is in progress, retry shortly")
}

// errLeaseWaitCanceled translates a context cancellation while waiting for
// the lease. Raw context errors never cross the service boundary.
func errLeaseWaitCanceled(cause error) *domain.DomainError {
	return domain.ErrTransient("lease_wait_canceled", "gave up waiting for the account lease: "+cause.Error())
}

type ownerSlot struct {
	sem  chan struct{}
	refs int
}

// InMemory serializes per-owner work within a single process. Correct for
// single-instance deployments; multi-instance deployments use the
// store-backed lease instead.
type InMemory struct {
	mu      sync.Mutex
	slots   map[string]*ownerSlot
	timeout time.Duration
}

// NewInMemory creates an in-memory owner locker. timeout bounds how long
// Acquire waits before giving up with a retryable error.
func NewInMemory(timeout time.Duration) *InMemory {
	return &InMemory{
		slots:   make(map[string]*ownerSlot),
		timeout: timeout,
	}
}

// Acquire takes the owner's slot or fails after the configured timeout.
// The returned release func is safe to call exactly once, on any exit path.
func (l *InMemory) Acquire(ctx context.Context, ownerID string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[ownerID]
	if !ok {
		slot = &ownerSlot{sem: make(chan struct{}, 1)}
		l.slots[ownerID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case slot.sem <- struct{}{}:
		return func() {
			<-slot.sem
			l.put(ownerID, slot)
		}, nil
	case <-timer.C:
		l.put(ownerID, slot)
		return nil, errLeaseBusy()
	case <-ctx.Done():
		l.put(ownerID, slot)
		return nil, errLeaseWaitCanceled(ctx.Err())
	}
}

// put drops a reference and evicts the slot once nobody holds or waits.
func (l *InMemory) put(ownerID string, slot *ownerSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, ownerID)
	}
}
