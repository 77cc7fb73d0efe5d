package service_test

import (
	"context"
	"testing"

	"github.com/eventpay/connect-go/internal/domain"
	"github.com/eventpay/connect-go/internal/service"
)

func TestCreatePayout_ExplicitAmount(t *testing.T) {
	proc := &mockProcessor{
		account: approvedSnapshot(),
		payable: &domain.PayableBalance{Available: []domain.Money{usd(5000)}},
	}
	svc, locker := newService(t, proc, mappedRepo(""), false)

	amount := int64(1200)
	payout, err := svc.CreatePayout(context.Background(), testOwner, &amount, "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if payout.Amount != 1200 {
		t.Errorf("expected amount 1200, got %d", payout.Amount)
	}
	if payout.Status != domain.PayoutPending {
		t.Errorf("expected pending status, got %s", payout.Status)
	}
	if locker.acquires != 1 || locker.releases != 1 {
		t.Errorf("lease must be held for the payout: acquires=%d releases=%d", locker.acquires, locker.releases)
	}
}

func TestCreatePayout_DefaultsToFullBalance(t *testing.T) {
	proc := &mockProcessor{
		account: approvedSnapshot(),
		payable: &domain.PayableBalance{
			Available: []domain.Money{usd(5000)},
			Pending:   []domain.Money{usd(900)},
		},
	}
	svc, _ := newService(t, proc, mappedRepo(""), false)

	payout, err := svc.CreatePayout(context.Background(), testOwner, nil, "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// Full available balance, never the pending portion.
	if payout.Amount != 5000 {
		t.Errorf("expected full available 5000, got %d", payout.Amount)
	}
	if proc.lastPayout != 5000 {
		t.Errorf("amount sent upstream: got %d, want 5000", proc.lastPayout)
	}
}

func TestCreatePayout_NonPositiveAmount_NoNetworkCall(t *testing.T) {
	proc := &mockProcessor{}
	svc, locker := newService(t, proc, mappedRepo(""), false)

	zero := int64(0)
	_, err := svc.CreatePayout(context.Background(), testOwner, &zero, "")
	de, ok := domain.AsDomainError(err)
	if !ok || de.Kind != domain.KindInvalidInput {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
	if de.Param != "amount" {
		t.Errorf("expected param amount, got %s", de.Param)
	}
	if proc.callCount() != 0 {
		t.Error("amount check must run before any network call")
	}
	if locker.acquires != 0 {
		t.Error("amount check must run before the lease is taken")
	}
}

func TestCreatePayout_AmountAboveAvailable(t *testing.T) {
	proc := &mockProcessor{
		account: approvedSnapshot(),
		payable: &domain.PayableBalance{Available: []domain.Money{usd(2000)}},
	}
	svc, _ := newService(t, proc, mappedRepo(""), false)

	amount := int64(2500)
	_, err := svc.CreatePayout(context.Background(), testOwner, &amount, "")
	de, ok := domain.AsDomainError(err)
	if !ok || de.Kind != domain.KindInsufficientFunds {
		t.Fatalf("expected InsufficientFunds, got %v", err)
	}
	for _, call := range proc.calls {
		if call == "CreatePayout" {
			t.Error("insufficient funds must fail before the payout call")
		}
	}
}

func TestCreatePayout_RequiresBankAccount(t *testing.T) {
	account := approvedSnapshot()
	account.ExternalAccounts = nil

	proc := &mockProcessor{account: account}
	svc, _ := newService(t, proc, mappedRepo(""), false)

	_, err := svc.CreatePayout(context.Background(), testOwner, nil, "")
	de, ok := domain.AsDomainError(err)
	if !ok || de.Kind != domain.KindInvalidInput {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
	if de.Param != "bankAccount" {
		t.Errorf("expected param bankAccount, got %s", de.Param)
	}
}

func TestCreatePayout_RequiresApprovedPhase(t *testing.T) {
	pending := approvedSnapshot()
	pending.ChargesEnabled = false
	pending.PayoutsEnabled = false

	proc := &mockProcessor{account: pending}
	svc, _ := newService(t, proc, mappedRepo(""), false)

	_, err := svc.CreatePayout(context.Background(), testOwner, nil, "")
	de, ok := domain.AsDomainError(err)
	if !ok || de.Code != "not_eligible" {
		t.Fatalf("expected not_eligible, got %v", err)
	}
}

func TestListPayouts_NoLease(t *testing.T) {
	proc := &mockProcessor{
		account:    approvedSnapshot(),
		payoutPage: &domain.PayoutPage{Payouts: []domain.Payout{{ID: "po_1"}}, HasMore: false},
	}
	svc, locker := newService(t, proc, mappedRepo(""), false)

	page, err := svc.ListPayouts(context.Background(), testOwner, 20, "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(page.Payouts) != 1 {
		t.Errorf("expected one payout, got %d", len(page.Payouts))
	}
	if locker.acquires != 0 {
		t.Error("listing payouts is a read and must not take the lease")
	}
}

func TestCreatePayout_CallerKeyForwardedUpstream(t *testing.T) {
	proc := &mockProcessor{
		account: approvedSnapshot(),
		payable: &domain.PayableBalance{Available: []domain.Money{usd(5000)}},
	}
	svc, _ := newService(t, proc, mappedRepo(""), false)

	amount := int64(1200)
	ctx := service.WithIdempotencyKey(context.Background(), "payout-retry-9")
	if _, err := svc.CreatePayout(ctx, testOwner, &amount, ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if proc.lastPayoutKey != "payout-retry-9" {
		t.Errorf("expected caller key payout-retry-9, got %q", proc.lastPayoutKey)
	}
}
