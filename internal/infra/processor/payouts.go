package processor

import (
	"context"
	"fmt"

	"github.com/eventpay/connect-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Payouts
// ============================================================

// CreatePayout requests a withdrawal of payable balance to the default
// linked bank account.
func (c *Client) CreatePayout(ctx context.Context, processorAccountID string, amountCents int64, currency, idempotencyKey string) (*domain.Payout, error) {
	body := map[string]any{
		"amount":   amountCents,
		"currency": currency,
	}

	var payload payoutPayload
	if err := c.post(ctx, "/v1/payouts", processorAccountID, body, idempotencyKey, &payload); err != nil {
		return nil, err
	}

	c.logger.Info("processor: payout created",
		zap.String("processor_account_id", processorAccountID),
		zap.String("payout_id", payload.ID),
		zap.Int64("amount_cents", payload.Amount),
	)
	return mapPayout(&payload), nil
}

// ListPayouts pages through the account's payouts, most recent first.
func (c *Client) ListPayouts(ctx context.Context, processorAccountID string, limit int, cursor string) (*domain.PayoutPage, error) {
	path := fmt.Sprintf("/v1/payouts?limit=%d", limit)
	if cursor != "" {
		path += "&starting_after=" + cursor
	}

	var payload listPayload[payoutPayload]
	if err := c.get(ctx, path, processorAccountID, &payload); err != nil {
		return nil, err
	}

	page := &domain.PayoutPage{
		Payouts: make([]domain.Payout, 0, len(payload.Data)),
		HasMore: payload.HasMore,
	}
	for i := range payload.Data {
		page.Payouts = append(page.Payouts, *mapPayout(&payload.Data[i]))
	}
	if page.HasMore && len(page.Payouts) > 0 {
		page.NextCursor = page.Payouts[len(page.Payouts)-1].ID
	}
	return page, nil
}

func mapPayout(p *payoutPayload) *domain.Payout {
	return &domain.Payout{
		ID:        p.ID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Status:    domain.PayoutStatus(p.Status),
		CreatedAt: unixTime(p.Created),
	}
}
