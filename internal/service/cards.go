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
// Cardholder & virtual card manager
// ============================================================

// sandboxPhone replaces empty or placeholder phone numbers when running
// against a non-production processor configuration.
const sandboxPhone = "+15555550100"

// sentinelDOB is the fixed default applied when a submitted dob is not an
// object. Known data-quality leniency; every coercion is logged at Warn.
var sentinelDOB = domain.DateOfBirth{Day: 1, Month: 1, Year: 1990}

// CreateCardholder registers the identity profile required before any
// virtual card can be issued.
func (s *ConnectService) CreateCardholder(ctx context.Context, ownerID string, profile domain.CardholderProfile) (string, error) {
	ctx, span := tracer.Start(ctx, "ConnectService.CreateCardholder")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	start := time.Now()
	var err error
	defer func() { s.observe("createCardholder", start, err) }()

	if err = validateCardholderProfile(profile); err != nil {
		return "", err
	}

	release, err := s.acquireLease(ctx, ownerID)
	if err != nil {
		return "", err
	}
	defer release()

	rec, err := s.repo.GetAccountRecord(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		err = domain.ErrNotFound("connected account")
		return "", err
	}
	if rec.CardholderID != "" {
		err = domain.ErrConflict("cardholder_exists", "a cardholder already exists for this account")
		return "", err
	}

	// An empty marker does not prove absence upstream: a previous create may
	// have succeeded at the processor and lost the marker write. Ask the
	// processor before creating a duplicate.
	if existing, lookupErr := s.processor.GetCardholder(ctx, rec.ProcessorAccountID); lookupErr == nil && existing != nil {
		if markErr := s.repo.SetCardholderID(ctx, ownerID, existing.ID); markErr != nil {
			s.logger.Warn("cardholder marker repair failed",
				zap.String("owner_id", ownerID),
				zap.String("cardholder_id", existing.ID),
				zap.Error(markErr),
			)
		}
		err = domain.ErrConflict("cardholder_exists", "a cardholder already exists for this account")
		return "", err
	} else if lookupErr != nil {
		if de, ok := domain.AsDomainError(lookupErr); !ok || de.Kind != domain.KindNotFound {
			err = lookupErr
			return "", err
		}
	}

	ch := buildCardholder(profile)

	ch.Phone = s.resolvePhone(ownerID, profile.Phone)
	ch.DOB = s.coerceDOB(ownerID, profile.DOB)

	cardholderID, err := s.processor.CreateCardholder(ctx, rec.ProcessorAccountID, ch, idempotencyKey(ctx))
	if err != nil {
		return "", err
	}

	if err = s.repo.SetCardholderID(ctx, ownerID, cardholderID); err != nil {
		// The processor has the cardholder. A repeat create finds it
		// upstream and repairs the marker, so surface success now.
		s.logger.Warn("cardholder marker write failed",
			zap.String("owner_id", ownerID),
			zap.String("cardholder_id", cardholderID),
			zap.Error(err),
		)
		err = nil
	}

	s.logger.Info("cardholder created",
		zap.String("owner_id", ownerID),
		zap.String("cardholder_id", cardholderID),
	)
	return cardholderID, nil
}

// CreateVirtualCard issues the account's virtual card. At most one active
// card exists per account; a second creation attempt always fails with a
// conflict, never silently creates another card.
func (s *ConnectService) CreateVirtualCard(ctx context.Context, ownerID string, req domain.VirtualCardRequest) (*domain.VirtualCard, error) {
	ctx, span := tracer.Start(ctx, "ConnectService.CreateVirtualCard")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	start := time.Now()
	var err error
	defer func() { s.observe("createVirtualCard", start, err) }()

	// Defaults and clamp before anything else.
	if req.SpendingLimitAmount <= 0 {
		req.SpendingLimitAmount = domain.MaxSpendingLimitCents
	}
	if req.SpendingLimitAmount > domain.MaxSpendingLimitCents {
		req.SpendingLimitAmount = domain.MaxSpendingLimitCents
	}
	if req.SpendingLimitInterval == "" {
		req.SpendingLimitInterval = domain.IntervalPerAuthorization
	}
	if !domain.ValidSpendingInterval(req.SpendingLimitInterval) {
		err = domain.ErrInvalidInput("spendingLimitInterval", "unknown spending limit interval")
		return nil, err
	}

	release, err := s.acquireLease(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Cardholder-before-card: checked against the local marker first so a
	// missing cardholder fails before any processor call.
	rec, err := s.repo.GetAccountRecord(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		err = domain.ErrNotFound("connected account")
		return nil, err
	}
	if rec.CardholderID == "" {
		err = domain.ErrInvalidInput("cardholder", "a cardholder profile must be created before a card")
		return nil, err
	}

	account, err := s.gate(ctx, ownerID, domain.PhaseApproved, "createVirtualCard")
	if err != nil {
		return nil, err
	}
	if !account.CapabilityActiveFor(domain.CapabilityCardIssuing) {
		err = domain.ErrCapabilityNotEnabled(domain.CapabilityCardIssuing)
		return nil, err
	}

	hasCard, err := s.hasActiveCard(ctx, account.ProcessorAccountID)
	if err != nil {
		return nil, err
	}
	if hasCard {
		err = domain.ErrConflict("card_exists", "an active virtual card already exists")
		return nil, err
	}

	available, err := s.processor.GetIssuingBalance(ctx, account.ProcessorAccountID)
	if err != nil {
		return nil, err
	}
	if available.Amount <= 0 {
		err = domain.ErrInsufficientFunds(available.Amount, 1)
		return nil, err
	}

	card, err := s.processor.CreateVirtualCard(ctx, account.ProcessorAccountID, rec.CardholderID, req, idempotencyKey(ctx))
	if err != nil {
		return nil, err
	}

	s.logger.Info("virtual card issued",
		zap.String("owner_id", ownerID),
		zap.String("card_id", card.ID),
		zap.String("last4", card.Last4),
		zap.Int64("spending_limit", card.SpendingLimitAmount),
	)
	return card, nil
}

// GetCardDetails returns the active virtual card, or NotFound.
func (s *ConnectService) GetCardDetails(ctx context.Context, ownerID string) (*domain.VirtualCard, error) {
	ctx, span := tracer.Start(ctx, "ConnectService.GetCardDetails")
	defer span.End()

	start := time.Now()
	var err error
	defer func() { s.observe("getCardDetails", start, err) }()

	accountID, err := s.accountID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	card, err := s.processor.GetVirtualCard(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return card, nil
}

// hasActiveCard reports whether the account already has an active card.
// NotFound from upstream means no card, not a failure.
func (s *ConnectService) hasActiveCard(ctx context.Context, processorAccountID string) (bool, error) {
	card, err := s.processor.GetVirtualCard(ctx, processorAccountID)
	if err != nil {
		if de, ok := domain.AsDomainError(err); ok && de.Kind == domain.KindNotFound {
			return false, nil
		}
		return false, err
	}
	return card.Active(), nil
}

// validateCardholderProfile enforces the required fields, naming the first
// missing one. Runs before the lease and before any network call.
// Returns error, not the concrete type: a typed nil assigned into the
// caller's error variable would read as non-nil.
func validateCardholderProfile(p domain.CardholderProfile) error {
	checks := []struct {
		param string
		value string
	}{
		{"name", p.Name},
		{"email", p.Email},
		{"address.line1", p.Address.Line1},
		{"address.city", p.Address.City},
		{"address.state", p.Address.State},
		{"address.postal_code", p.Address.PostalCode},
	}
	for _, c := range checks {
		if strings.TrimSpace(c.value) == "" {
			return domain.ErrInvalidInput(c.param, c.param+" is required")
		}
	}
	return nil
}

// buildCardholder maps the profile into the processor-facing identity,
// splitting the single name field on the first whitespace run. A name with
// no whitespace fills both first and last.
func buildCardholder(p domain.CardholderProfile) domain.Cardholder {
	name := strings.TrimSpace(p.Name)
	first, last := name, name
	if fields := strings.Fields(name); len(fields) > 1 {
		first = fields[0]
		last = strings.Join(fields[1:], " ")
	}

	return domain.Cardholder{
		Name:      name,
		FirstName: first,
		LastName:  last,
		Email:     p.Email,
		Address:   p.Address,
	}
}

// resolvePhone applies the sandbox accommodation: in test mode an empty or
// placeholder phone (an all-zero digit sequence) is replaced with a fixed
// sandbox-safe value. In production the caller's phone passes verbatim.
func (s *ConnectService) resolvePhone(ownerID, phone string) string {
	if !s.testMode {
		return phone
	}
	if phone != "" && !isPlaceholderPhone(phone) {
		return phone
	}

	s.logger.Warn("substituting sandbox phone for cardholder",
		zap.String("owner_id", ownerID),
		zap.String("submitted", phone),
	)
	return sandboxPhone
}

// isPlaceholderPhone recognizes all-zero digit sequences like "000-000-0000".
func isPlaceholderPhone(phone string) bool {
	sawDigit := false
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			if r != '0' {
				return false
			}
			sawDigit = true
		}
	}
	return sawDigit
}

// coerceDOB accepts a well-formed dob object and coerces anything else to
// the fixed sentinel. Flagged data-quality leniency: the coercion is kept
// for contract compatibility and logged so product can size the fallout.
func (s *ConnectService) coerceDOB(ownerID string, raw any) domain.DateOfBirth {
	if raw == nil {
		return sentinelDOB
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		s.logger.Warn("malformed dob coerced to sentinel",
			zap.String("owner_id", ownerID),
			zap.Any("submitted", raw),
		)
		return sentinelDOB
	}

	dob := domain.DateOfBirth{
		Day:   intField(obj, "day"),
		Month: intField(obj, "month"),
		Year:  intField(obj, "year"),
	}
	if dob.Day == 0 || dob.Month == 0 || dob.Year == 0 {
		s.logger.Warn("incomplete dob coerced to sentinel",
			zap.String("owner_id", ownerID),
			zap.Any("submitted", raw),
		)
		return sentinelDOB
	}
	return dob
}

// intField reads a JSON number out of a decoded object.
func intField(obj map[string]any, key string) int {
	switch v := obj[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
