package domain

import "time"

// ============================================================
// Connected accounts
// ============================================================

// CapabilityName identifies a processor-granted permission.
type CapabilityName string

const (
	CapabilityCardPayments CapabilityName = "card_payments"
	CapabilityTransfers    CapabilityName = "transfers"
	CapabilityCardIssuing  CapabilityName = "card_issuing"
)

// CapabilityState is the activation state of a single capability.
type CapabilityState string

const (
	CapabilityInactive CapabilityState = "inactive"
	CapabilityPending  CapabilityState = "pending"
	CapabilityActive   CapabilityState = "active"
)

// Requirements groups the outstanding verification items the processor
// reports for an account.
type Requirements struct {
	PastDue             []string `json:"past_due"`
	CurrentlyDue        []string `json:"currently_due"`
	EventuallyDue       []string `json:"eventually_due"`
	PendingVerification []string `json:"pending_verification"`
	DisabledReason      string   `json:"disabled_reason,omitempty"`
}

// BankAccount is an external withdrawal destination linked to the account.
type BankAccount struct {
	ID                 string `json:"id"`
	AccountHolderName  string `json:"account_holder_name"`
	BankName           string `json:"bank_name,omitempty"`
	RoutingNumber      string `json:"routing_number"`
	Last4              string `json:"last4"`
	Currency           string `json:"currency"`
	DefaultForCurrency bool   `json:"default_for_currency"`
}

// ConnectedAccount is the snapshot of a user's financial identity at the
// payment processor. The core never mutates it directly; it requests
// changes upstream and re-reads the resulting snapshot.
type ConnectedAccount struct {
	OwnerID            string                             `json:"owner_id"`
	ProcessorAccountID string                             `json:"processor_account_id"`
	Capabilities       map[CapabilityName]CapabilityState `json:"capabilities"`
	Requirements       Requirements                       `json:"requirements"`
	ChargesEnabled     bool                               `json:"charges_enabled"`
	PayoutsEnabled     bool                               `json:"payouts_enabled"`
	DetailsSubmitted   bool                               `json:"details_submitted"`
	ExternalAccounts   []BankAccount                      `json:"external_accounts"`
	TermsAcceptedAt    *time.Time                         `json:"terms_accepted_at,omitempty"`
}

// CapabilityActiveFor reports whether the named capability is active.
func (a *ConnectedAccount) CapabilityActiveFor(name CapabilityName) bool {
	if a == nil || a.Capabilities == nil {
		return false
	}
	return a.Capabilities[name] == CapabilityActive
}

// HasExternalAccount reports whether at least one bank destination is linked.
func (a *ConnectedAccount) HasExternalAccount() bool {
	return a != nil && len(a.ExternalAccounts) > 0
}

// AddBankAccountRequest carries the fields for linking an external
// withdrawal destination. The three required fields are enforced locally
// before any upstream call.
type AddBankAccountRequest struct {
	AccountHolderName string `json:"account_holder_name"`
	RoutingNumber     string `json:"routing_number"`
	AccountNumber     string `json:"account_number"`
	Currency          string `json:"currency,omitempty"`
	Country           string `json:"country,omitempty"`
}

// OnboardingProfile carries the fields collected before account creation.
type OnboardingProfile struct {
	Email        string `json:"email"`
	Country      string `json:"country"`
	BusinessType string `json:"business_type,omitempty"`
}

// OnboardingLink is a processor-hosted URL where the user completes
// identity verification. Links expire upstream; an expired link surfaces
// as an UpstreamLinkInvalid error when used.
type OnboardingLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// AccountInfoPatch is a partial update of processor-side profile fields.
// Zero-valued fields are left untouched.
type AccountInfoPatch struct {
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	URL        string `json:"url,omitempty"`
	ProductTag string `json:"product_tag,omitempty"`
}
