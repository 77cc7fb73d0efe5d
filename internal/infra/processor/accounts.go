package processor

import (
	"context"
	"time"

	"github.com/eventpay/connect-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Accounts & onboarding
// ============================================================

// CreateAccount creates a connected account and returns its processor id.
func (c *Client) CreateAccount(ctx context.Context, ownerID string, profile domain.OnboardingProfile) (string, error) {
	body := map[string]any{
		"type":          "express",
		"email":         profile.Email,
		"country":       profile.Country,
		"business_type": profile.BusinessType,
		"metadata":      map[string]string{"owner_id": ownerID},
		"capabilities": map[string]any{
			"card_payments": map[string]bool{"requested": true},
			"transfers":     map[string]bool{"requested": true},
		},
	}

	var payload accountPayload
	if err := c.post(ctx, "/v1/accounts", "", body, "", &payload); err != nil {
		return "", err
	}

	c.logger.Info("processor: account created",
		zap.String("owner_id", ownerID),
		zap.String("processor_account_id", payload.ID),
	)
	return payload.ID, nil
}

// GetAccount fetches the authoritative account snapshot. Always a fresh
// read; verification state changes asynchronously upstream and must never
// be served stale to a gating decision.
func (c *Client) GetAccount(ctx context.Context, processorAccountID string) (*domain.ConnectedAccount, error) {
	var payload accountPayload
	if err := c.get(ctx, "/v1/accounts/"+processorAccountID, processorAccountID, &payload); err != nil {
		return nil, err
	}
	return mapAccount(&payload), nil
}

// CreateOnboardingLink requests a processor-hosted onboarding URL.
func (c *Client) CreateOnboardingLink(ctx context.Context, processorAccountID string) (*domain.OnboardingLink, error) {
	body := map[string]any{
		"account": processorAccountID,
		"type":    "account_onboarding",
	}

	var payload accountLinkPayload
	if err := c.post(ctx, "/v1/account_links", processorAccountID, body, "", &payload); err != nil {
		return nil, err
	}
	return &domain.OnboardingLink{
		URL:       payload.URL,
		ExpiresAt: unixTime(payload.ExpiresAt),
	}, nil
}

// RequestCapabilities asks the processor to activate the named capabilities.
func (c *Client) RequestCapabilities(ctx context.Context, processorAccountID string, capabilities []domain.CapabilityName) error {
	requested := make(map[string]any, len(capabilities))
	for _, cap := range capabilities {
		requested[string(cap)] = map[string]bool{"requested": true}
	}
	body := map[string]any{"capabilities": requested}

	return c.post(ctx, "/v1/accounts/"+processorAccountID, processorAccountID, body, "", nil)
}

// UpdateAccountInfo patches processor-side profile fields.
func (c *Client) UpdateAccountInfo(ctx context.Context, processorAccountID string, patch domain.AccountInfoPatch) error {
	body := map[string]any{}
	if patch.Email != "" {
		body["email"] = patch.Email
	}
	if patch.Phone != "" {
		body["phone"] = patch.Phone
	}
	if patch.URL != "" {
		body["url"] = patch.URL
	}
	if patch.ProductTag != "" {
		body["product_description"] = patch.ProductTag
	}

	return c.post(ctx, "/v1/accounts/"+processorAccountID, processorAccountID, body, "", nil)
}

// AcceptTermsOfService records terms acceptance for the account.
func (c *Client) AcceptTermsOfService(ctx context.Context, processorAccountID, ip string, acceptedAt time.Time) error {
	body := map[string]any{
		"tos_acceptance": map[string]any{
			"date": acceptedAt.Unix(),
			"ip":   ip,
		},
	}
	return c.post(ctx, "/v1/accounts/"+processorAccountID, processorAccountID, body, "", nil)
}

// AddBankAccount links an external withdrawal destination.
func (c *Client) AddBankAccount(ctx context.Context, processorAccountID string, req domain.AddBankAccountRequest) (string, error) {
	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}
	country := req.Country
	if country == "" {
		country = "US"
	}
	body := map[string]any{
		"external_account": map[string]any{
			"object":              "bank_account",
			"account_holder_name": req.AccountHolderName,
			"routing_number":      req.RoutingNumber,
			"account_number":      req.AccountNumber,
			"currency":            currency,
			"country":             country,
		},
	}

	var payload externalAccountPayload
	if err := c.post(ctx, "/v1/accounts/"+processorAccountID+"/external_accounts", processorAccountID, body, "", &payload); err != nil {
		return "", err
	}

	c.logger.Info("processor: bank account linked",
		zap.String("processor_account_id", processorAccountID),
		zap.String("bank_account_id", payload.ID),
	)
	return payload.ID, nil
}

// mapAccount converts the wire payload into the internal snapshot.
func mapAccount(p *accountPayload) *domain.ConnectedAccount {
	caps := make(map[domain.CapabilityName]domain.CapabilityState, len(p.Capabilities))
	for name, state := range p.Capabilities {
		caps[domain.CapabilityName(name)] = domain.CapabilityState(state)
	}

	externals := make([]domain.BankAccount, 0, len(p.ExternalAccounts.Data))
	for _, e := range p.ExternalAccounts.Data {
		externals = append(externals, domain.BankAccount{
			ID:                 e.ID,
			AccountHolderName:  e.AccountHolderName,
			BankName:           e.BankName,
			RoutingNumber:      e.RoutingNumber,
			Last4:              e.Last4,
			Currency:           e.Currency,
			DefaultForCurrency: e.DefaultForCurrency,
		})
	}

	account := &domain.ConnectedAccount{
		ProcessorAccountID: p.ID,
		Capabilities:       caps,
		Requirements: domain.Requirements{
			PastDue:             p.Requirements.PastDue,
			CurrentlyDue:        p.Requirements.CurrentlyDue,
			EventuallyDue:       p.Requirements.EventuallyDue,
			PendingVerification: p.Requirements.PendingVerification,
			DisabledReason:      p.Requirements.DisabledReason,
		},
		ChargesEnabled:   p.ChargesEnabled,
		PayoutsEnabled:   p.PayoutsEnabled,
		DetailsSubmitted: p.DetailsSubmitted,
		ExternalAccounts: externals,
	}
	if p.TOSAcceptance.Date > 0 {
		t := unixTime(p.TOSAcceptance.Date)
		account.TermsAcceptedAt = &t
	}
	return account
}
