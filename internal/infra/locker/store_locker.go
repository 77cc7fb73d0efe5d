package locker

import (
	"context"
	"time"

	"github.com/eventpay/connect-go/internal/port"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoreBacked implements the owner lease on repository lock rows, so the
// lease holds across multiple service instances. Acquisition is a
// conditional insert; contention is resolved by short polling until the
// acquire timeout elapses.
type StoreBacked struct {
	repo     port.AccountRepository
	ttl      time.Duration
	timeout  time.Duration
	interval time.Duration
	logger   *zap.Logger
}

// NewStoreBacked creates a store-backed owner locker. ttl bounds how long
// a crashed holder can wedge an owner; timeout bounds the acquire wait.
func NewStoreBacked(repo port.AccountRepository, ttl, timeout time.Duration, logger *zap.Logger) *StoreBacked {
	return &StoreBacked{
		repo:     repo,
		ttl:      ttl,
		timeout:  timeout,
		interval: 100 * time.Millisecond,
		logger:   logger,
	}
}

// Acquire inserts the lease row for the owner, polling on contention.
func (l *StoreBacked) Acquire(ctx context.Context, ownerID string) (func(), error) {
	token := uuid.New().String()
	deadline := time.Now().Add(l.timeout)

	for {
		ok, err := l.repo.InsertLease(ctx, ownerID, token, time.Now().Add(l.ttl))
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// Release uses a fresh context: the operation's context may
				// already be canceled, and the lease must still be freed.
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := l.repo.DeleteLease(releaseCtx, ownerID, token); err != nil {
					l.logger.Warn("locker: lease release failed, will expire by ttl",
						zap.String("owner_id", ownerID),
						zap.Error(err),
					)
				}
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, errLeaseBusy()
		}
		select {
		case <-ctx.Done():
			return nil, errLeaseWaitCanceled(ctx.Err())
		case <-time.After(l.interval):
		}
	}
}
