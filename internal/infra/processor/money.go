package processor

import (
	"context"
	"fmt"

	"github.com/eventpay/connect-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Ledgers: payable balance, issuing balance, transactions
// ============================================================

// GetPayableBalance fetches the payments-side ledger.
func (c *Client) GetPayableBalance(ctx context.Context, processorAccountID string) (*domain.PayableBalance, error) {
	var payload balancePayload
	if err := c.get(ctx, "/v1/balance", processorAccountID, &payload); err != nil {
		return nil, err
	}

	balance := &domain.PayableBalance{
		Available: make([]domain.Money, 0, len(payload.Available)),
		Pending:   make([]domain.Money, 0, len(payload.Pending)),
	}
	for _, m := range payload.Available {
		balance.Available = append(balance.Available, domain.Money{Amount: m.Amount, Currency: m.Currency})
	}
	for _, m := range payload.Pending {
		balance.Pending = append(balance.Pending, domain.Money{Amount: m.Amount, Currency: m.Currency})
	}
	return balance, nil
}

// GetIssuingBalance fetches the card-funding reserve.
func (c *Client) GetIssuingBalance(ctx context.Context, processorAccountID string) (*domain.Money, error) {
	var payload issuingBalancePayload
	if err := c.get(ctx, "/v1/issuing/balance", processorAccountID, &payload); err != nil {
		return nil, err
	}
	return &domain.Money{
		Amount:   payload.Available.Amount,
		Currency: payload.Available.Currency,
	}, nil
}

// TopUpIssuing moves amountCents from the payable ledger into the issuing
// reserve as a single atomic transfer. Never retried here; the idempotency
// key makes a caller-level retry converge on the same transfer.
func (c *Client) TopUpIssuing(ctx context.Context, processorAccountID string, amountCents int64, idempotencyKey string) error {
	body := map[string]any{
		"amount":   amountCents,
		"currency": "usd",
	}

	if err := c.post(ctx, "/v1/issuing/topups", processorAccountID, body, idempotencyKey, nil); err != nil {
		return err
	}

	c.logger.Info("processor: issuing topup completed",
		zap.String("processor_account_id", processorAccountID),
		zap.Int64("amount_cents", amountCents),
	)
	return nil
}

// ListTransactions pages through the balance transaction log.
func (c *Client) ListTransactions(ctx context.Context, processorAccountID string, limit int, cursor string) (*domain.TransactionPage, error) {
	path := fmt.Sprintf("/v1/balance_transactions?limit=%d", limit)
	if cursor != "" {
		path += "&starting_after=" + cursor
	}

	var payload listPayload[transactionPayload]
	if err := c.get(ctx, path, processorAccountID, &payload); err != nil {
		return nil, err
	}

	page := &domain.TransactionPage{
		Transactions: make([]domain.Transaction, 0, len(payload.Data)),
		HasMore:      payload.HasMore,
	}
	for _, t := range payload.Data {
		page.Transactions = append(page.Transactions, domain.Transaction{
			ID:          t.ID,
			Type:        domain.TransactionType(t.Type),
			Amount:      t.Amount,
			Fee:         t.Fee,
			Net:         t.Net,
			Currency:    t.Currency,
			Status:      t.Status,
			Description: t.Description,
			CreatedAt:   unixTime(t.Created),
			AvailableOn: unixTime(t.AvailableOn),
		})
	}
	if page.HasMore && len(page.Transactions) > 0 {
		page.NextCursor = page.Transactions[len(page.Transactions)-1].ID
	}
	return page, nil
}
