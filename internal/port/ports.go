// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/eventpay/connect-go/internal/domain"
)

// ProcessorClient is the capability boundary to the payment processor.
// Implementations must translate every upstream failure into a
// *domain.DomainError before returning; the service layer never sees
// raw processor errors.
type ProcessorClient interface {
	// Accounts & onboarding
	CreateAccount(ctx context.Context, ownerID string, profile domain.OnboardingProfile) (string, error)
	GetAccount(ctx context.Context, processorAccountID string) (*domain.ConnectedAccount, error)
	CreateOnboardingLink(ctx context.Context, processorAccountID string) (*domain.OnboardingLink, error)
	RequestCapabilities(ctx context.Context, processorAccountID string, capabilities []domain.CapabilityName) error
	UpdateAccountInfo(ctx context.Context, processorAccountID string, patch domain.AccountInfoPatch) error
	AcceptTermsOfService(ctx context.Context, processorAccountID, ip string, acceptedAt time.Time) error

	// Ledgers
	GetPayableBalance(ctx context.Context, processorAccountID string) (*domain.PayableBalance, error)
	GetIssuingBalance(ctx context.Context, processorAccountID string) (*domain.Money, error)
	TopUpIssuing(ctx context.Context, processorAccountID string, amountCents int64, idempotencyKey string) error
	ListTransactions(ctx context.Context, processorAccountID string, limit int, cursor string) (*domain.TransactionPage, error)

	// Cards
	CreateCardholder(ctx context.Context, processorAccountID string, ch domain.Cardholder, idempotencyKey string) (string, error)
	GetCardholder(ctx context.Context, processorAccountID string) (*domain.Cardholder, error)
	CreateVirtualCard(ctx context.Context, processorAccountID, cardholderID string, req domain.VirtualCardRequest, idempotencyKey string) (*domain.VirtualCard, error)
	GetVirtualCard(ctx context.Context, processorAccountID string) (*domain.VirtualCard, error)

	// Payouts & bank accounts
	CreatePayout(ctx context.Context, processorAccountID string, amountCents int64, currency, idempotencyKey string) (*domain.Payout, error)
	ListPayouts(ctx context.Context, processorAccountID string, limit int, cursor string) (*domain.PayoutPage, error)
	AddBankAccount(ctx context.Context, processorAccountID string, req domain.AddBankAccountRequest) (string, error)
}

// AccountRepository persists the per-owner identifiers and idempotency
// markers in the document store. The processor remains the source of truth
// for account state; the repository only holds the mapping and local markers.
type AccountRepository interface {
	// GetAccountRecord returns the stored record for an owner, or nil when
	// the owner has no connected account yet.
	GetAccountRecord(ctx context.Context, ownerID string) (*AccountRecord, error)
	CreateAccountRecord(ctx context.Context, rec *AccountRecord) error
	SetCardholderID(ctx context.Context, ownerID, cardholderID string) error
	SetTermsAccepted(ctx context.Context, ownerID string, acceptedAt time.Time) error

	// Lease rows for the store-backed owner lock.
	InsertLease(ctx context.Context, ownerID, token string, expiresAt time.Time) (bool, error)
	DeleteLease(ctx context.Context, ownerID, token string) error
}

// AccountRecord is the document-store row for one owner.
type AccountRecord struct {
	OwnerID            string     `json:"owner_id"`
	ProcessorAccountID string     `json:"processor_account_id"`
	CardholderID       string     `json:"cardholder_id,omitempty"`
	TermsAcceptedAt    *time.Time `json:"terms_accepted_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// OwnerLocker serializes mutating operations per owner. Acquire returns a
// release func that must be called on all exit paths; reads never acquire.
type OwnerLocker interface {
	Acquire(ctx context.Context, ownerID string) (release func(), err error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
