package processor

import (
	"context"

	"github.com/eventpay/connect-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Cardholders & virtual cards
// ============================================================

// CreateCardholder registers the identity profile that must exist before
// any card can be issued.
func (c *Client) CreateCardholder(ctx context.Context, processorAccountID string, ch domain.Cardholder, idempotencyKey string) (string, error) {
	body := map[string]any{
		"type":         "individual",
		"name":         ch.Name,
		"email":        ch.Email,
		"phone_number": ch.Phone,
		"billing": map[string]any{
			"address": map[string]string{
				"line1":       ch.Address.Line1,
				"line2":       ch.Address.Line2,
				"city":        ch.Address.City,
				"state":       ch.Address.State,
				"postal_code": ch.Address.PostalCode,
				"country":     "US",
			},
		},
		"individual": map[string]any{
			"first_name": ch.FirstName,
			"last_name":  ch.LastName,
			"dob": map[string]int{
				"day":   ch.DOB.Day,
				"month": ch.DOB.Month,
				"year":  ch.DOB.Year,
			},
		},
	}

	var payload cardholderPayload
	if err := c.post(ctx, "/v1/issuing/cardholders", processorAccountID, body, idempotencyKey, &payload); err != nil {
		return "", err
	}

	c.logger.Info("processor: cardholder created",
		zap.String("processor_account_id", processorAccountID),
		zap.String("cardholder_id", payload.ID),
	)
	return payload.ID, nil
}

// GetCardholder returns the account's cardholder, or NotFound.
func (c *Client) GetCardholder(ctx context.Context, processorAccountID string) (*domain.Cardholder, error) {
	var payload listPayload[cardholderPayload]
	if err := c.get(ctx, "/v1/issuing/cardholders?limit=1", processorAccountID, &payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 {
		return nil, domain.ErrNotFound("cardholder")
	}

	ch := payload.Data[0]
	return &domain.Cardholder{
		ID:     ch.ID,
		Name:   ch.Name,
		Email:  ch.Email,
		Phone:  ch.Phone,
		Status: ch.Status,
	}, nil
}

// CreateVirtualCard issues a virtual card for the cardholder.
func (c *Client) CreateVirtualCard(ctx context.Context, processorAccountID, cardholderID string, req domain.VirtualCardRequest, idempotencyKey string) (*domain.VirtualCard, error) {
	body := map[string]any{
		"cardholder": cardholderID,
		"type":       "virtual",
		"currency":   "usd",
		"status":     "active",
		"spending_controls": map[string]any{
			"spending_limits": []map[string]any{
				{
					"amount":   req.SpendingLimitAmount,
					"interval": string(req.SpendingLimitInterval),
				},
			},
		},
	}

	var payload cardPayload
	if err := c.post(ctx, "/v1/issuing/cards", processorAccountID, body, idempotencyKey, &payload); err != nil {
		return nil, err
	}

	c.logger.Info("processor: virtual card issued",
		zap.String("processor_account_id", processorAccountID),
		zap.String("card_id", payload.ID),
		zap.String("last4", payload.Last4),
	)
	return mapCard(&payload), nil
}

// GetVirtualCard returns the account's active virtual card, or NotFound.
func (c *Client) GetVirtualCard(ctx context.Context, processorAccountID string) (*domain.VirtualCard, error) {
	var payload listPayload[cardPayload]
	if err := c.get(ctx, "/v1/issuing/cards?status=active&limit=1", processorAccountID, &payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 {
		return nil, domain.ErrNotFound("virtual card")
	}
	return mapCard(&payload.Data[0]), nil
}

func mapCard(p *cardPayload) *domain.VirtualCard {
	card := &domain.VirtualCard{
		ID:           p.ID,
		CardholderID: p.CardholderID,
		Last4:        p.Last4,
		Status:       p.Status,
		Currency:     p.Currency,
	}
	if len(p.SpendingControls.SpendingLimits) > 0 {
		limit := p.SpendingControls.SpendingLimits[0]
		card.SpendingLimitAmount = limit.Amount
		card.SpendingLimitInterval = domain.SpendingInterval(limit.Interval)
	}
	return card
}
