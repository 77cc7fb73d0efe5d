package locker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/eventpay/connect-go/internal/domain"
	"github.com/eventpay/connect-go/internal/port"

	"go.uber.org/zap"
)

func TestInMemory_SerializesSameOwner(t *testing.T) {
	l := NewInMemory(time.Second)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "owner-1")
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	// Second acquire for the same owner must wait until release.
	acquired := make(chan struct{})
	go func() {
		r2, err := l.Acquire(ctx, "owner-1")
		if err != nil {
			t.Errorf("second acquire failed: %v", err)
			close(acquired)
			return
		}
		close(acquired)
		r2()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while the lease was held")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never completed after release")
	}
}

func TestInMemory_DifferentOwnersDoNotBlock(t *testing.T) {
	l := NewInMemory(time.Second)
	ctx := context.Background()

	r1, err := l.Acquire(ctx, "owner-1")
	if err != nil {
		t.Fatal(err)
	}
	defer r1()

	done := make(chan struct{})
	go func() {
		r2, err := l.Acquire(ctx, "owner-2")
		if err != nil {
			t.Errorf("acquire for a different owner failed: %v", err)
		} else {
			r2()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("different owners must not contend")
	}
}

func TestInMemory_TimeoutIsRetryable(t *testing.T) {
	l := NewInMemory(50 * time.Millisecond)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "owner-1")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	_, err = l.Acquire(ctx, "owner-1")
	de, ok := domain.AsDomainError(err)
	if !ok || !de.Retryable() {
		t.Fatalf("expected retryable lease_busy, got %v", err)
	}
	if de.Code != "lease_busy" {
		t.Errorf("expected code lease_busy, got %s", de.Code)
	}
}

func TestInMemory_CanceledWaitIsRetryable(t *testing.T) {
	l := NewInMemory(time.Minute)

	release, err := l.Acquire(context.Background(), "owner-1")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Acquire(ctx, "owner-1")
	de, ok := domain.AsDomainError(err)
	if !ok || !de.Retryable() {
		t.Fatalf("canceled wait must surface a retryable error, got %v", err)
	}
	if de.Code != "lease_wait_canceled" {
		t.Errorf("expected code lease_wait_canceled, got %s", de.Code)
	}
}

func TestInMemory_SlotEvictedWhenIdle(t *testing.T) {
	l := NewInMemory(time.Second)

	release, err := l.Acquire(context.Background(), "owner-1")
	if err != nil {
		t.Fatal(err)
	}
	release()

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.slots) != 0 {
		t.Errorf("expected idle slots evicted, %d remain", len(l.slots))
	}
}

// leaseRepo implements only the lease rows of port.AccountRepository.
type leaseRepo struct {
	mu     sync.Mutex
	leases map[string]string // ownerID -> token
}

func newLeaseRepo() *leaseRepo {
	return &leaseRepo{leases: make(map[string]string)}
}

func (r *leaseRepo) InsertLease(_ context.Context, ownerID, token string, _ time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, held := r.leases[ownerID]; held {
		return false, nil
	}
	r.leases[ownerID] = token
	return true, nil
}

func (r *leaseRepo) DeleteLease(_ context.Context, ownerID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.leases[ownerID] == token {
		delete(r.leases, ownerID)
	}
	return nil
}

func (r *leaseRepo) GetAccountRecord(context.Context, string) (*port.AccountRecord, error) {
	return nil, nil
}
func (r *leaseRepo) CreateAccountRecord(context.Context, *port.AccountRecord) error { return nil }
func (r *leaseRepo) SetCardholderID(context.Context, string, string) error          { return nil }
func (r *leaseRepo) SetTermsAccepted(context.Context, string, time.Time) error      { return nil }

func TestStoreBacked_AcquireAndRelease(t *testing.T) {
	repo := newLeaseRepo()
	l := NewStoreBacked(repo, time.Minute, time.Second, zap.NewNop())

	release, err := l.Acquire(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	repo.mu.Lock()
	_, held := repo.leases["owner-1"]
	repo.mu.Unlock()
	if !held {
		t.Fatal("expected lease row inserted")
	}

	release()

	repo.mu.Lock()
	_, held = repo.leases["owner-1"]
	repo.mu.Unlock()
	if held {
		t.Error("expected lease row deleted on release")
	}
}

func TestStoreBacked_ContentionTimesOut(t *testing.T) {
	repo := newLeaseRepo()
	l := NewStoreBacked(repo, time.Minute, 150*time.Millisecond, zap.NewNop())
	ctx := context.Background()

	release, err := l.Acquire(ctx, "owner-1")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	_, err = l.Acquire(ctx, "owner-1")
	de, ok := domain.AsDomainError(err)
	if !ok || de.Code != "lease_busy" {
		t.Fatalf("expected lease_busy, got %v", err)
	}
}

func TestStoreBacked_CanceledWaitIsRetryable(t *testing.T) {
	repo := newLeaseRepo()
	l := NewStoreBacked(repo, time.Minute, time.Minute, zap.NewNop())

	release, err := l.Acquire(context.Background(), "owner-1")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Acquire(ctx, "owner-1")
	de, ok := domain.AsDomainError(err)
	if !ok || !de.Retryable() {
		t.Fatalf("canceled wait must surface a retryable error, got %v", err)
	}
	if de.Code != "lease_wait_canceled" {
		t.Errorf("expected code lease_wait_canceled, got %s", de.Code)
	}
}

func TestStoreBacked_WaitsForRelease(t *testing.T) {
	repo := newLeaseRepo()
	l := NewStoreBacked(repo, time.Minute, 2*time.Second, zap.NewNop())
	ctx := context.Background()

	release, err := l.Acquire(ctx, "owner-1")
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(200 * time.Millisecond)
		release()
	}()

	r2, err := l.Acquire(ctx, "owner-1")
	if err != nil {
		t.Fatalf("expected acquire after release, got %v", err)
	}
	r2()
}
