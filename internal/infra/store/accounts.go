package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/eventpay/connect-go/internal/port"

	"go.uber.org/zap"
)

// connectAccountRow maps the connect_accounts table to the repository record.
type connectAccountRow struct {
	OwnerID            string     `json:"owner_id"`
	ProcessorAccountID string     `json:"processor_account_id"`
	CardholderID       string     `json:"cardholder_id,omitempty"`
	TermsAcceptedAt    *time.Time `json:"terms_accepted_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// GetAccountRecord returns the stored record for an owner, nil when absent.
func (c *Client) GetAccountRecord(ctx context.Context, ownerID string) (*port.AccountRecord, error) {
	ctx, span := tracer.Start(ctx, "store.GetAccountRecord")
	defer span.End()

	path := fmt.Sprintf("connect_accounts?owner_id=eq.%s&limit=1", url.QueryEscape(ownerID))
	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("get account record: %w", err)
	}
	if body == nil {
		return nil, nil
	}

	var rows []connectAccountRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode account record: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	return &port.AccountRecord{
		OwnerID:            row.OwnerID,
		ProcessorAccountID: row.ProcessorAccountID,
		CardholderID:       row.CardholderID,
		TermsAcceptedAt:    row.TermsAcceptedAt,
		CreatedAt:          row.CreatedAt,
	}, nil
}

// CreateAccountRecord inserts the owner's mapping row. The unique index on
// owner_id guarantees at most one connected account per owner.
func (c *Client) CreateAccountRecord(ctx context.Context, rec *port.AccountRecord) error {
	ctx, span := tracer.Start(ctx, "store.CreateAccountRecord")
	defer span.End()

	row := connectAccountRow{
		OwnerID:            rec.OwnerID,
		ProcessorAccountID: rec.ProcessorAccountID,
		CardholderID:       rec.CardholderID,
		TermsAcceptedAt:    rec.TermsAcceptedAt,
		CreatedAt:          rec.CreatedAt,
	}

	if _, err := c.doRequest(ctx, http.MethodPost, "connect_accounts", row); err != nil {
		return fmt.Errorf("create account record: %w", err)
	}

	c.logger.Info("store: account record created",
		zap.String("owner_id", rec.OwnerID),
		zap.String("processor_account_id", rec.ProcessorAccountID),
	)
	return nil
}

// SetCardholderID records the cardholder id for an owner.
func (c *Client) SetCardholderID(ctx context.Context, ownerID, cardholderID string) error {
	ctx, span := tracer.Start(ctx, "store.SetCardholderID")
	defer span.End()

	path := fmt.Sprintf("connect_accounts?owner_id=eq.%s", url.QueryEscape(ownerID))
	patch := map[string]string{"cardholder_id": cardholderID}

	if _, err := c.doRequest(ctx, http.MethodPatch, path, patch); err != nil {
		return fmt.Errorf("set cardholder id: %w", err)
	}
	return nil
}

// SetTermsAccepted records the terms-of-service acceptance marker. The
// marker makes re-acceptance idempotent without a processor round trip.
func (c *Client) SetTermsAccepted(ctx context.Context, ownerID string, acceptedAt time.Time) error {
	ctx, span := tracer.Start(ctx, "store.SetTermsAccepted")
	defer span.End()

	path := fmt.Sprintf("connect_accounts?owner_id=eq.%s", url.QueryEscape(ownerID))
	patch := map[string]any{"terms_accepted_at": acceptedAt}

	if _, err := c.doRequest(ctx, http.MethodPatch, path, patch); err != nil {
		return fmt.Errorf("set terms accepted: %w", err)
	}
	return nil
}
