package processor

import "time"

// Wire types for the processor REST API. Payloads are mapped into domain
// types at this boundary; nothing upstream-shaped leaves the package.

// apiError is the error envelope the processor returns on non-2xx.
type apiError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

// accountPayload mirrors the processor account object.
type accountPayload struct {
	ID               string            `json:"id"`
	ChargesEnabled   bool              `json:"charges_enabled"`
	PayoutsEnabled   bool              `json:"payouts_enabled"`
	DetailsSubmitted bool              `json:"details_submitted"`
	Capabilities     map[string]string `json:"capabilities"`
	Requirements     struct {
		PastDue             []string `json:"past_due"`
		CurrentlyDue        []string `json:"currently_due"`
		EventuallyDue       []string `json:"eventually_due"`
		PendingVerification []string `json:"pending_verification"`
		DisabledReason      string   `json:"disabled_reason"`
	} `json:"requirements"`
	ExternalAccounts struct {
		Data []externalAccountPayload `json:"data"`
	} `json:"external_accounts"`
	TOSAcceptance struct {
		Date int64 `json:"date"`
	} `json:"tos_acceptance"`
}

type externalAccountPayload struct {
	ID                 string `json:"id"`
	AccountHolderName  string `json:"account_holder_name"`
	BankName           string `json:"bank_name"`
	RoutingNumber      string `json:"routing_number"`
	Last4              string `json:"last4"`
	Currency           string `json:"currency"`
	DefaultForCurrency bool   `json:"default_for_currency"`
}

type accountLinkPayload struct {
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expires_at"`
}

type moneyPayload struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type balancePayload struct {
	Available []moneyPayload `json:"available"`
	Pending   []moneyPayload `json:"pending"`
}

type issuingBalancePayload struct {
	Available moneyPayload `json:"available"`
}

type transactionPayload struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Amount      int64  `json:"amount"`
	Fee         int64  `json:"fee"`
	Net         int64  `json:"net"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Created     int64  `json:"created"`
	AvailableOn int64  `json:"available_on"`
}

type listPayload[T any] struct {
	Data    []T  `json:"data"`
	HasMore bool `json:"has_more"`
}

type cardholderPayload struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone_number"`
	Status string `json:"status"`
}

type cardPayload struct {
	ID               string `json:"id"`
	CardholderID     string `json:"cardholder"`
	Last4            string `json:"last4"`
	Status           string `json:"status"`
	Currency         string `json:"currency"`
	SpendingControls struct {
		SpendingLimits []struct {
			Amount   int64  `json:"amount"`
			Interval string `json:"interval"`
		} `json:"spending_limits"`
	} `json:"spending_controls"`
}

type payoutPayload struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Created  int64  `json:"created"`
}

func unixTime(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(v, 0).UTC()
}
