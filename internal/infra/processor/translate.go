package processor

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/eventpay/connect-go/internal/domain"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// translate maps an upstream error payload to the closed DomainError set.
// Translation happens exactly once, here; downstream code only ever sees
// *domain.DomainError. Anything unrecognized becomes Unknown and is logged
// with the full upstream detail, never silently swallowed.
func (c *Client) translate(status int, e *apiError) *domain.DomainError {
	switch {
	case e.Code == "capability_disabled" || strings.HasSuffix(e.Code, "_capability_inactive"):
		capName := domain.CapabilityName(strings.TrimSuffix(e.Code, "_capability_inactive"))
		if e.Code == "capability_disabled" {
			capName = domain.CapabilityName(e.Param)
		}
		return domain.ErrCapabilityNotEnabled(capName)

	case e.Code == "balance_insufficient" || e.Code == "insufficient_funds":
		return &domain.DomainError{
			Kind:       domain.KindInsufficientFunds,
			Code:       "balance_insufficient",
			HTTPStatus: http.StatusBadRequest,
			Message:    safeMessage(e.Message, "insufficient funds for this operation"),
		}

	case e.Code == "postal_code_invalid" || (e.Code == "parameter_invalid" && isPostalParam(e.Param)):
		// Malformed ZIP: surfaced with our canonical param name so clients
		// can highlight the right field.
		return &domain.DomainError{
			Kind:       domain.KindInvalidInput,
			Code:       "postal_code_invalid",
			HTTPStatus: http.StatusBadRequest,
			Message:    safeMessage(e.Message, "postal code is invalid"),
			Param:      "zipCode",
		}

	case e.Code == "routing_number_invalid" || e.Code == "account_number_invalid" || e.Code == "bank_account_invalid":
		return &domain.DomainError{
			Kind:       domain.KindInvalidInput,
			Code:       e.Code,
			HTTPStatus: http.StatusBadRequest,
			Message:    safeMessage(e.Message, "bank account details are invalid"),
			Param:      e.Param,
		}

	case e.Code == "card_exists" || e.Code == "cardholder_exists":
		return domain.ErrConflict(e.Code, safeMessage(e.Message, "resource already exists"))

	case e.Code == "resource_missing" || status == http.StatusNotFound:
		return &domain.DomainError{
			Kind:       domain.KindNotFound,
			Code:       "resource_missing",
			HTTPStatus: http.StatusNotFound,
			Message:    "resource not found",
		}

	case e.Code == "account_link_expired" || e.Code == "url_expired" || e.Type == "invalid_grant":
		return domain.ErrLinkInvalid("onboarding link is expired or invalid, request a new one")

	case e.Code == "idempotency_key_in_use":
		return domain.ErrConflict("idempotency_key_in_use",
			"a request with this idempotency key is still in progress")

	case e.Code == "rate_limit" || status == http.StatusTooManyRequests:
		return domain.ErrTransient("rate_limited", "processor rate limit hit, retry shortly")

	case e.Code == "lock_timeout" || status == http.StatusConflict && e.Type == "idempotency_error":
		return domain.ErrTransient("lock_timeout", "processor resource busy, retry shortly")

	case e.Type == "permission_error" || status == http.StatusForbidden:
		return &domain.DomainError{
			Kind:       domain.KindForbidden,
			Code:       "permission_denied",
			HTTPStatus: http.StatusForbidden,
			Message:    "operation not permitted for this account",
		}

	case e.Type == "invalid_request_error" && e.Param != "":
		return &domain.DomainError{
			Kind:       domain.KindInvalidInput,
			Code:       "parameter_invalid",
			HTTPStatus: http.StatusBadRequest,
			Message:    safeMessage(e.Message, "request parameter is invalid"),
			Param:      e.Param,
		}

	case status >= 500:
		return domain.ErrTransient("upstream_unavailable", "processor temporarily unavailable")
	}

	// Unknown shape: log the raw detail server-side, return a generic error.
	c.logger.Error("processor: unrecognized error shape",
		zap.Int("status", status),
		zap.String("type", e.Type),
		zap.String("code", e.Code),
		zap.String("param", e.Param),
		zap.String("message", e.Message),
	)
	return domain.ErrUnknown()
}

// translateTransport maps client-side failures (timeouts, open breaker)
// that never produced an upstream payload.
func (c *Client) translateTransport(err error) *domain.DomainError {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return domain.ErrTransient("circuit_open", "processor circuit breaker open, retry shortly")
	case errors.Is(err, context.DeadlineExceeded):
		return domain.ErrTransient("upstream_timeout", "processor call timed out, safe to retry")
	case errors.Is(err, context.Canceled):
		// Caller stopped waiting; upstream state is not rolled back.
		return domain.ErrTransient("request_canceled", "request canceled before the processor responded")
	}

	c.logger.Error("processor: transport failure", zap.Error(err))
	return domain.ErrTransient("upstream_unreachable", "processor unreachable, retry shortly")
}

// safeMessage whitelists upstream text only where it is actionable and
// user-facing; callers pass a generic fallback for empty messages.
func safeMessage(upstream, fallback string) string {
	if upstream != "" {
		return upstream
	}
	return fallback
}

func isPostalParam(param string) bool {
	switch param {
	case "postal_code", "zip", "zip_code", "address[postal_code]":
		return true
	}
	return false
}
