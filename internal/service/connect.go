// Package service provides the business logic layer (use cases).
// ConnectService orchestrates the connected-account lifecycle: identity
// verification gating, dual-ledger balances, virtual card issuance,
// payouts and bank-account linking.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/eventpay/connect-go/internal/domain"
	"github.com/eventpay/connect-go/internal/infra/observability"
	"github.com/eventpay/connect-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("service/connect")

// ConnectService is the single entry point for all lifecycle operations.
// Every public operation goes through the verification gate before any
// processor mutation; failures cross the boundary as *domain.DomainError.
type ConnectService struct {
	processor port.ProcessorClient
	repo      port.AccountRepository
	locker    port.OwnerLocker
	// accountIDs caches only the immutable ownerId -> processorAccountId
	// mapping. Snapshots are never cached: gating must not see stale state.
	accountIDs port.Cache[string]
	metrics    *observability.Metrics
	logger     *zap.Logger

	// statusGroup collapses concurrent snapshot fetches for the same owner
	// into one upstream read. Dedup of in-flight work, not staleness.
	statusGroup singleflight.Group

	// testMode enables sandbox accommodations (placeholder phone
	// substitution on cardholder creation).
	testMode bool
}

// NewConnectService creates the connect service with all dependencies injected.
func NewConnectService(
	processor port.ProcessorClient,
	repo port.AccountRepository,
	locker port.OwnerLocker,
	accountIDs port.Cache[string],
	metrics *observability.Metrics,
	logger *zap.Logger,
	testMode bool,
) *ConnectService {
	return &ConnectService{
		processor:  processor,
		repo:       repo,
		locker:     locker,
		accountIDs: accountIDs,
		metrics:    metrics,
		logger:     logger,
		testMode:   testMode,
	}
}

// observe records operation duration and outcome for the metrics snapshot.
func (s *ConnectService) observe(operation string, start time.Time, err error) {
	s.metrics.RecordRequestDuration(operation, time.Since(start))
	if err != nil {
		s.metrics.IncrOperation(operation, "error")
		if de, ok := domain.AsDomainError(err); ok {
			s.metrics.IncrProcessorError(string(de.Kind))
		}
		return
	}
	s.metrics.IncrOperation(operation, "success")
}

// acquireLease takes the per-owner lease for a mutating operation.
func (s *ConnectService) acquireLease(ctx context.Context, ownerID string) (func(), error) {
	start := time.Now()
	release, err := s.locker.Acquire(ctx, ownerID)
	s.metrics.RecordLeaseWait(time.Since(start))
	if err != nil {
		return nil, err
	}
	return release, nil
}

// accountID resolves the owner's processor account id. The mapping is
// immutable once set, so it is served from cache when possible.
func (s *ConnectService) accountID(ctx context.Context, ownerID string) (string, error) {
	if id, ok := s.accountIDs.Get(ownerID); ok {
		s.metrics.IncrCacheHit("account_id")
		return id, nil
	}
	s.metrics.IncrCacheMiss("account_id")

	rec, err := s.repo.GetAccountRecord(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("resolve account id: %w", err)
	}
	if rec == nil || rec.ProcessorAccountID == "" {
		return "", domain.ErrNotFound("connected account")
	}

	s.accountIDs.Set(ownerID, rec.ProcessorAccountID)
	return rec.ProcessorAccountID, nil
}

// fetchStatus re-reads the authoritative snapshot from the processor.
// Concurrent callers for the same owner share one upstream read.
func (s *ConnectService) fetchStatus(ctx context.Context, ownerID string) (*domain.ConnectedAccount, error) {
	accountID, err := s.accountID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	v, err, _ := s.statusGroup.Do(ownerID, func() (any, error) {
		return s.processor.GetAccount(ctx, accountID)
	})
	if err != nil {
		return nil, err
	}

	// Callers collapsed onto one flight all receive the same pointer.
	// Stamp OwnerID on a private copy so no caller mutates the shared
	// snapshot.
	account := *v.(*domain.ConnectedAccount)
	account.OwnerID = ownerID
	return &account, nil
}

// gate enforces the minimum verification phase for an operation. Illegal
// phases fail fast with NotEligible; no mutating network call is made.
func (s *ConnectService) gate(ctx context.Context, ownerID string, min domain.Phase, operation string) (*domain.ConnectedAccount, error) {
	account, err := s.fetchStatus(ctx, ownerID)
	if err != nil {
		if de, ok := domain.AsDomainError(err); ok && de.Kind == domain.KindNotFound {
			return nil, domain.ErrNotEligible(domain.PhaseNoAccount, operation)
		}
		return nil, err
	}

	phase := domain.PhaseOf(account)
	if !phase.AtLeast(min) {
		s.logger.Warn("operation blocked by verification phase",
			zap.String("owner_id", ownerID),
			zap.String("operation", operation),
			zap.String("phase", string(phase)),
			zap.String("required", string(min)),
		)
		return nil, domain.ErrNotEligible(phase, operation)
	}
	return account, nil
}

// ============================================================
// Accounts & onboarding
// ============================================================

// CreateAccount creates the owner's connected account at the processor and
// persists the mapping. At most one account exists per owner.
func (s *ConnectService) CreateAccount(ctx context.Context, ownerID string, profile domain.OnboardingProfile) (string, error) {
	ctx, span := tracer.Start(ctx, "ConnectService.CreateAccount")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	start := time.Now()
	var err error
	defer func() { s.observe("createAccount", start, err) }()

	if profile.Email == "" {
		err = domain.ErrInvalidInput("email", "email is required")
		return "", err
	}
	if profile.Country == "" {
		profile.Country = "US"
	}

	release, err := s.acquireLease(ctx, ownerID)
	if err != nil {
		return "", err
	}
	defer release()

	existing, err := s.repo.GetAccountRecord(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		err = domain.ErrConflict("account_exists", "a connected account already exists for this user")
		return "", err
	}

	processorAccountID, err := s.processor.CreateAccount(ctx, ownerID, profile)
	if err != nil {
		return "", err
	}

	rec := &port.AccountRecord{
		OwnerID:            ownerID,
		ProcessorAccountID: processorAccountID,
		CreatedAt:          time.Now().UTC(),
	}
	if err = s.repo.CreateAccountRecord(ctx, rec); err != nil {
		// The processor account exists but the mapping write failed. The
		// next CreateAccount retry will conflict upstream via the owner
		// metadata; surfaced as transient so the caller retries.
		s.logger.Error("account mapping write failed after processor creation",
			zap.String("owner_id", ownerID),
			zap.String("processor_account_id", processorAccountID),
			zap.Error(err),
		)
		err = domain.ErrTransient("mapping_write_failed", "account created but not yet visible, retry shortly")
		return "", err
	}

	s.accountIDs.Set(ownerID, processorAccountID)
	s.logger.Info("connected account created",
		zap.String("owner_id", ownerID),
		zap.String("processor_account_id", processorAccountID),
	)
	return processorAccountID, nil
}

// CreateOnboardingLink returns a processor-hosted URL where the owner
// completes identity verification.
func (s *ConnectService) CreateOnboardingLink(ctx context.Context, ownerID string) (*domain.OnboardingLink, error) {
	ctx, span := tracer.Start(ctx, "ConnectService.CreateOnboardingLink")
	defer span.End()

	start := time.Now()
	var err error
	defer func() { s.observe("createOnboardingLink", start, err) }()

	accountID, err := s.accountID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	link, err := s.processor.CreateOnboardingLink(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return link, nil
}

// GetAccountStatus returns a fresh snapshot of the owner's account.
func (s *ConnectService) GetAccountStatus(ctx context.Context, ownerID string) (*domain.ConnectedAccount, error) {
	ctx, span := tracer.Start(ctx, "ConnectService.GetAccountStatus")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	start := time.Now()
	var err error
	defer func() { s.observe("getAccountStatus", start, err) }()

	account, err := s.fetchStatus(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// VerificationPhase derives the lifecycle phase for the owner.
func (s *ConnectService) VerificationPhase(ctx context.Context, ownerID string) (domain.Phase, error) {
	account, err := s.fetchStatus(ctx, ownerID)
	if err != nil {
		if de, ok := domain.AsDomainError(err); ok && de.Kind == domain.KindNotFound {
			return domain.PhaseNoAccount, nil
		}
		return "", err
	}
	return domain.PhaseOf(account), nil
}

// UpdateCapabilities requests activation of the card_payments, transfers
// and card_issuing capabilities and returns the re-read snapshot.
func (s *ConnectService) UpdateCapabilities(ctx context.Context, ownerID string) (*domain.ConnectedAccount, error) {
	ctx, span := tracer.Start(ctx, "ConnectService.UpdateCapabilities")
	defer span.End()

	start := time.Now()
	var err error
	defer func() { s.observe("updateCapabilities", start, err) }()

	accountID, err := s.accountID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	err = s.processor.RequestCapabilities(ctx, accountID, []domain.CapabilityName{
		domain.CapabilityCardPayments,
		domain.CapabilityTransfers,
		domain.CapabilityCardIssuing,
	})
	if err != nil {
		return nil, err
	}

	account, err := s.fetchStatus(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccountDetails returns the full snapshot including requirements.
// Same read as GetAccountStatus; kept as a distinct operation because the
// dashboard surfaces it separately.
func (s *ConnectService) GetAccountDetails(ctx context.Context, ownerID string) (*domain.ConnectedAccount, error) {
	ctx, span := tracer.Start(ctx, "ConnectService.GetAccountDetails")
	defer span.End()

	start := time.Now()
	var err error
	defer func() { s.observe("getAccountDetails", start, err) }()

	account, err := s.fetchStatus(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return account, nil
}
