package service

import (
	"context"
	"time"

	"github.com/eventpay/connect-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Payout manager
// ============================================================

// CreatePayout moves funds from the payable ledger to the owner's external
// bank account. A nil amount means "pay out the full available balance";
// a supplied non-positive amount is rejected before any network call.
func (s *ConnectService) CreatePayout(ctx context.Context, ownerID string, amountCents *int64, currency string) (*domain.Payout, error) {
	ctx, span := tracer.Start(ctx, "ConnectService.CreatePayout")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	start := time.Now()
	var err error
	defer func() { s.observe("createPayout", start, err) }()

	if amountCents != nil && *amountCents <= 0 {
		err = domain.ErrInvalidInput("amount", "payout amount must be a positive integer of cents")
		return nil, err
	}
	if currency == "" {
		currency = payoutCurrency
	}

	release, err := s.acquireLease(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	defer release()

	account, err := s.gate(ctx, ownerID, domain.PhaseApproved, "createPayout")
	if err != nil {
		return nil, err
	}
	if !account.HasExternalAccount() {
		err = domain.ErrInvalidInput("bankAccount", "a bank account must be added before payouts")
		return nil, err
	}

	balance, err := s.processor.GetPayableBalance(ctx, account.ProcessorAccountID)
	if err != nil {
		return nil, err
	}
	available := balance.AvailableFor(currency)

	amount := available
	if amountCents != nil {
		amount = *amountCents
	}
	if amount <= 0 || amount > available {
		err = domain.ErrInsufficientFunds(available, amount)
		return nil, err
	}

	payout, err := s.processor.CreatePayout(ctx, account.ProcessorAccountID, amount, currency, idempotencyKey(ctx))
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMoneyMoved("payout", amount)
	s.logger.Info("payout created",
		zap.String("owner_id", ownerID),
		zap.String("payout_id", payout.ID),
		zap.Int64("amount", amount),
		zap.String("currency", currency),
		zap.String("status", string(payout.Status)),
	)
	return payout, nil
}

// ListPayouts returns the payout history page for an owner.
func (s *ConnectService) ListPayouts(ctx context.Context, ownerID string, limit int, cursor string) (*domain.PayoutPage, error) {
	ctx, span := tracer.Start(ctx, "ConnectService.ListPayouts")
	defer span.End()

	start := time.Now()
	var err error
	defer func() { s.observe("listPayouts", start, err) }()

	accountID, err := s.accountID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	page, err := s.processor.ListPayouts(ctx, accountID, normalizeLimit(limit), cursor)
	if err != nil {
		return nil, err
	}
	return page, nil
}
