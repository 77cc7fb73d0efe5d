package service

import (
	"context"
	"time"

	"github.com/eventpay/connect-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ============================================================
// Dual-ledger balance manager
// ============================================================

// MinTopUpCents is the smallest accepted top-up ($1).
const MinTopUpCents int64 = 100

// payoutCurrency is the ledger currency for accounts in this deployment.
const payoutCurrency = "usd"

// GetBalance returns the payable ledger: available vs pending per currency.
// Pending funds are subject to the processor hold window (7 days for new
// accounts); the window is surfaced, never computed here.
func (s *ConnectService) GetBalance(ctx context.Context, ownerID string) (*domain.PayableBalance, error) {
	ctx, span := tracer.Start(ctx, "ConnectService.GetBalance")
	defer span.End()

	start := time.Now()
	var err error
	defer func() { s.observe("getBalance", start, err) }()

	accountID, err := s.accountID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	balance, err := s.processor.GetPayableBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// GetIssuingBalance returns the card-funding reserve plus the derived
// canCreateCard flag: funds present, issuing active, and no active card.
func (s *ConnectService) GetIssuingBalance(ctx context.Context, ownerID string) (*domain.IssuingBalance, error) {
	ctx, span := tracer.Start(ctx, "ConnectService.GetIssuingBalance")
	defer span.End()

	start := time.Now()
	var err error
	defer func() { s.observe("getIssuingBalance", start, err) }()

	account, err := s.fetchStatus(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	available, err := s.processor.GetIssuingBalance(ctx, account.ProcessorAccountID)
	if err != nil {
		return nil, err
	}

	hasActiveCard, err := s.hasActiveCard(ctx, account.ProcessorAccountID)
	if err != nil {
		return nil, err
	}

	return &domain.IssuingBalance{
		Available: *available,
		CanCreateCard: available.Amount > 0 &&
			account.CapabilityActiveFor(domain.CapabilityCardIssuing) &&
			!hasActiveCard,
	}, nil
}

// GetBalances returns both ledgers for the dashboard, fetched concurrently.
// The ledgers stay distinct; they are never merged.
func (s *ConnectService) GetBalances(ctx context.Context, ownerID string) (*domain.Balances, error) {
	ctx, span := tracer.Start(ctx, "ConnectService.GetBalances")
	defer span.End()

	var (
		payable *domain.PayableBalance
		issuing *domain.IssuingBalance
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.GetBalance(gCtx, ownerID)
		if err != nil {
			return err
		}
		payable = b
		return nil
	})
	g.Go(func() error {
		b, err := s.GetIssuingBalance(gCtx, ownerID)
		if err != nil {
			return err
		}
		issuing = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.Balances{Payable: *payable, Issuing: *issuing}, nil
}

// TopUpIssuing moves amountCents from the payable ledger into the issuing
// reserve. The move is one atomic processor transfer: it fully succeeds or
// fully fails, no partial ledger update is ever assumed. Requires the
// APPROVED phase and the card_issuing capability.
func (s *ConnectService) TopUpIssuing(ctx context.Context, ownerID string, amountCents int64) (*domain.Money, error) {
	ctx, span := tracer.Start(ctx, "ConnectService.TopUpIssuing")
	defer span.End()
	span.SetAttributes(
		attribute.String("owner.id", ownerID),
		attribute.Int64("amount.cents", amountCents),
	)

	start := time.Now()
	var err error
	defer func() { s.observe("topUpIssuing", start, err) }()

	if amountCents < MinTopUpCents {
		err = domain.ErrInvalidInput("amountCents", "minimum top-up is 100 cents ($1)")
		return nil, err
	}

	release, err := s.acquireLease(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	defer release()

	account, err := s.gate(ctx, ownerID, domain.PhaseApproved, "topUpIssuing")
	if err != nil {
		return nil, err
	}
	if !account.CapabilityActiveFor(domain.CapabilityCardIssuing) {
		err = domain.ErrCapabilityNotEnabled(domain.CapabilityCardIssuing)
		return nil, err
	}

	payable, err := s.processor.GetPayableBalance(ctx, account.ProcessorAccountID)
	if err != nil {
		return nil, err
	}
	if available := payable.AvailableFor(payoutCurrency); available < amountCents {
		err = domain.ErrInsufficientFunds(available, amountCents)
		return nil, err
	}

	// One idempotency key per logical intent; a caller retrying with the
	// same key converges on the same transfer.
	key := idempotencyKey(ctx)
	if err = s.processor.TopUpIssuing(ctx, account.ProcessorAccountID, amountCents, key); err != nil {
		return nil, err
	}

	s.metrics.RecordMoneyMoved("topup", amountCents)
	s.logger.Info("issuing balance topped up",
		zap.String("owner_id", ownerID),
		zap.Int64("amount_cents", amountCents),
		zap.String("idempotency_key", key),
	)

	newAvailable, err := s.processor.GetIssuingBalance(ctx, account.ProcessorAccountID)
	if err != nil {
		return nil, err
	}
	return newAvailable, nil
}

// ListTransactions pages through the immutable ledger log.
func (s *ConnectService) ListTransactions(ctx context.Context, ownerID string, limit int, cursor string) (*domain.TransactionPage, error) {
	ctx, span := tracer.Start(ctx, "ConnectService.ListTransactions")
	defer span.End()

	start := time.Now()
	var err error
	defer func() { s.observe("getTransactions", start, err) }()

	accountID, err := s.accountID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	page, err := s.processor.ListTransactions(ctx, accountID, normalizeLimit(limit), cursor)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// normalizeLimit clamps page sizes to 1..100, defaulting to 20.
func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return 20
	case limit > 100:
		return 100
	default:
		return limit
	}
}
