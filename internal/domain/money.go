package domain

import "time"

// ============================================================
// Balances & ledger
// ============================================================

// Money is an amount in minor units (cents) with its currency.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// PayableBalance holds funds collected from payments. Pending amounts are
// subject to the processor's hold window (7 days for new accounts) before
// becoming available for payout.
type PayableBalance struct {
	Available []Money `json:"available"`
	Pending   []Money `json:"pending"`
}

// AvailableFor returns the available amount in the given currency.
func (b *PayableBalance) AvailableFor(currency string) int64 {
	for _, m := range b.Available {
		if m.Currency == currency {
			return m.Amount
		}
	}
	return 0
}

// IssuingBalance is the separate reserve funding virtual-card spend.
// It is populated only via an explicit top-up from the payable balance,
// never replenished automatically.
type IssuingBalance struct {
	Available     Money `json:"available"`
	CanCreateCard bool  `json:"can_create_card"`
}

// Balances bundles both ledgers for the dashboard view. The two ledgers
// are never merged.
type Balances struct {
	Payable PayableBalance `json:"payable"`
	Issuing IssuingBalance `json:"issuing"`
}

// ============================================================
// Transactions
// ============================================================

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionCharge   TransactionType = "charge"
	TransactionTransfer TransactionType = "transfer"
	TransactionPayout   TransactionType = "payout"
)

// Transaction is an immutable ledger log entry. Amounts are signed cents.
type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      int64           `json:"amount"`
	Fee         int64           `json:"fee"`
	Net         int64           `json:"net"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	AvailableOn time.Time       `json:"available_on"`
}

// TransactionPage is a cursor-paginated slice of transactions.
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	HasMore      bool          `json:"has_more"`
	NextCursor   string        `json:"next_cursor,omitempty"`
}

// ============================================================
// Payouts
// ============================================================

// PayoutStatus is the upstream settlement state of a payout.
// paid, failed and canceled are terminal.
type PayoutStatus string

const (
	PayoutPending   PayoutStatus = "pending"
	PayoutInTransit PayoutStatus = "in_transit"
	PayoutPaid      PayoutStatus = "paid"
	PayoutFailed    PayoutStatus = "failed"
	PayoutCanceled  PayoutStatus = "canceled"
)

// Payout is a withdrawal of payable balance to a linked bank account.
// Settlement timing is upstream behavior, surfaced but never computed here.
type Payout struct {
	ID        string       `json:"id"`
	Amount    int64        `json:"amount"`
	Currency  string       `json:"currency"`
	Status    PayoutStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// PayoutPage is a cursor-paginated slice of payouts.
type PayoutPage struct {
	Payouts    []Payout `json:"payouts"`
	HasMore    bool     `json:"has_more"`
	NextCursor string   `json:"next_cursor,omitempty"`
}
