package service

import (
	"context"
	"strings"
	"time"

	"github.com/eventpay/connect-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Bank accounts, account info, terms of service
// ============================================================

// AddBankAccount attaches an external bank account for payouts.
func (s *ConnectService) AddBankAccount(ctx context.Context, ownerID string, req domain.AddBankAccountRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "ConnectService.AddBankAccount")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	start := time.Now()
	var err error
	defer func() { s.observe("addBankAccount", start, err) }()

	if err = validateBankAccount(req); err != nil {
		return "", err
	}

	release, err := s.acquireLease(ctx, ownerID)
	if err != nil {
		return "", err
	}
	defer release()

	account, err := s.gate(ctx, ownerID, domain.PhaseCreated, "addBankAccount")
	if err != nil {
		return "", err
	}

	bankAccountID, err := s.processor.AddBankAccount(ctx, account.ProcessorAccountID, req)
	if err != nil {
		return "", err
	}

	s.logger.Info("bank account added",
		zap.String("owner_id", ownerID),
		zap.String("bank_account_id", bankAccountID),
	)
	return bankAccountID, nil
}

// UpdateAccountInfo forwards a partial business-detail update, then
// re-reads the snapshot so the caller sees the applied state.
func (s *ConnectService) UpdateAccountInfo(ctx context.Context, ownerID string, patch domain.AccountInfoPatch) (*domain.ConnectedAccount, error) {
	ctx, span := tracer.Start(ctx, "ConnectService.UpdateAccountInfo")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	start := time.Now()
	var err error
	defer func() { s.observe("updateAccountInfo", start, err) }()

	release, err := s.acquireLease(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	defer release()

	account, err := s.gate(ctx, ownerID, domain.PhaseCreated, "updateAccountInfo")
	if err != nil {
		return nil, err
	}

	if err = s.processor.UpdateAccountInfo(ctx, account.ProcessorAccountID, patch); err != nil {
		return nil, err
	}

	updated, err := s.processor.GetAccount(ctx, account.ProcessorAccountID)
	if err != nil {
		return nil, err
	}
	updated.OwnerID = ownerID
	return updated, nil
}

// AcceptTermsOfService records terms acceptance with the processor exactly
// once. Repeat calls for an owner that already accepted are answered locally
// without a processor call.
func (s *ConnectService) AcceptTermsOfService(ctx context.Context, ownerID, ip string) error {
	ctx, span := tracer.Start(ctx, "ConnectService.AcceptTermsOfService")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	start := time.Now()
	var err error
	defer func() { s.observe("acceptTermsOfService", start, err) }()

	release, err := s.acquireLease(ctx, ownerID)
	if err != nil {
		return err
	}
	defer release()

	rec, err := s.repo.GetAccountRecord(ctx, ownerID)
	if err != nil {
		return err
	}
	if rec == nil {
		err = domain.ErrNotFound("connected account")
		return err
	}
	if rec.TermsAcceptedAt != nil {
		s.logger.Debug("terms already accepted",
			zap.String("owner_id", ownerID),
			zap.Time("accepted_at", *rec.TermsAcceptedAt),
		)
		return nil
	}

	acceptedAt := time.Now().UTC()
	if err = s.processor.AcceptTermsOfService(ctx, rec.ProcessorAccountID, ip, acceptedAt); err != nil {
		return err
	}

	if err = s.repo.SetTermsAccepted(ctx, ownerID, acceptedAt); err != nil {
		// Acceptance is recorded upstream; a repeat call re-sends the same
		// acceptance which the processor treats as an overwrite.
		s.logger.Warn("terms acceptance marker write failed",
			zap.String("owner_id", ownerID),
			zap.Error(err),
		)
		err = nil
	}

	s.logger.Info("terms of service accepted",
		zap.String("owner_id", ownerID),
		zap.Time("accepted_at", acceptedAt),
	)
	return nil
}

func validateBankAccount(req domain.AddBankAccountRequest) error {
	checks := []struct {
		param string
		value string
	}{
		{"accountHolderName", req.AccountHolderName},
		{"routingNumber", req.RoutingNumber},
		{"accountNumber", req.AccountNumber},
	}
	for _, c := range checks {
		if strings.TrimSpace(c.value) == "" {
			return domain.ErrInvalidInput(c.param, c.param+" is required")
		}
	}
	return nil
}
