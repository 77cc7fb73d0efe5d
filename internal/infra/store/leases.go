package store

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Lease rows back the store-based owner lock for multi-instance
// deployments. A row in connect_leases is the lease; a unique index on
// owner_id makes acquisition a conditional insert.

type leaseRow struct {
	OwnerID   string    `json:"owner_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// InsertLease attempts to acquire the lease row for an owner. Returns
// false (no error) when another holder already has it. Expired rows are
// cleared first so a crashed holder cannot wedge the owner forever.
func (c *Client) InsertLease(ctx context.Context, ownerID, token string, expiresAt time.Time) (bool, error) {
	ctx, span := tracer.Start(ctx, "store.InsertLease")
	defer span.End()

	// Clear an expired lease if one is present.
	expirePath := fmt.Sprintf("connect_leases?owner_id=eq.%s&expires_at=lt.%s",
		url.QueryEscape(ownerID), url.QueryEscape(time.Now().UTC().Format(time.RFC3339)))
	if _, err := c.doRequest(ctx, http.MethodDelete, expirePath, nil); err != nil {
		return false, fmt.Errorf("clear expired lease: %w", err)
	}

	row := leaseRow{OwnerID: ownerID, Token: token, ExpiresAt: expiresAt}
	if _, err := c.doRequest(ctx, http.MethodPost, "connect_leases", row); err != nil {
		if isConflict(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert lease: %w", err)
	}

	c.logger.Debug("store: lease acquired",
		zap.String("owner_id", ownerID),
		zap.String("token", token),
	)
	return true, nil
}

// DeleteLease releases the lease row, matching on the holder's token so a
// late release cannot free a lease re-acquired by someone else.
func (c *Client) DeleteLease(ctx context.Context, ownerID, token string) error {
	ctx, span := tracer.Start(ctx, "store.DeleteLease")
	defer span.End()

	path := fmt.Sprintf("connect_leases?owner_id=eq.%s&token=eq.%s",
		url.QueryEscape(ownerID), url.QueryEscape(token))
	if _, err := c.doRequest(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("delete lease: %w", err)
	}
	return nil
}
