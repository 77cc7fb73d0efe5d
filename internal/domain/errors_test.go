package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAsDomainError_Wrapped(t *testing.T) {
	inner := ErrNotFound("connected account")
	wrapped := fmt.Errorf("resolve account id: %w", inner)

	de, ok := AsDomainError(wrapped)
	if !ok {
		t.Fatal("expected a DomainError in the chain")
	}
	if de.Kind != KindNotFound {
		t.Errorf("expected NotFound kind, got %s", de.Kind)
	}
}

func TestAsDomainError_Plain(t *testing.T) {
	if _, ok := AsDomainError(errors.New("boom")); ok {
		t.Error("plain error must not unwrap to DomainError")
	}
}

func TestRetryable(t *testing.T) {
	if !ErrTransient("rate_limited", "retry").Retryable() {
		t.Error("transient errors must be retryable")
	}
	for _, de := range []*DomainError{
		ErrNotFound("x"),
		ErrInvalidInput("f", "bad"),
		ErrNotEligible(PhasePending, "topUpIssuing"),
		ErrConflict("account_exists", "exists"),
		ErrUnknown(),
	} {
		if de.Retryable() {
			t.Errorf("%s must not be retryable", de.Kind)
		}
	}
}

func TestConstructorStatuses(t *testing.T) {
	cases := []struct {
		err  *DomainError
		want int
	}{
		{ErrNotFound("x"), http.StatusNotFound},
		{ErrInvalidInput("f", "bad"), http.StatusBadRequest},
		{ErrNotEligible(PhaseRejected, "createPayout"), http.StatusForbidden},
		{ErrCapabilityNotEnabled(CapabilityCardIssuing), http.StatusBadRequest},
		{ErrInsufficientFunds(2000, 2500), http.StatusBadRequest},
		{ErrConflict("card_exists", "exists"), http.StatusConflict},
		{ErrLinkInvalid("expired"), http.StatusBadRequest},
		{ErrTransient("upstream_timeout", "retry"), http.StatusServiceUnavailable},
		{ErrUnknown(), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if c.err.HTTPStatus != c.want {
			t.Errorf("%s: status %d, want %d", c.err.Code, c.err.HTTPStatus, c.want)
		}
	}
}

func TestErrUnknown_GenericMessage(t *testing.T) {
	// Unknown errors must never leak upstream detail to callers.
	de := ErrUnknown()
	if de.Message != "an unexpected error occurred" {
		t.Errorf("unexpected message: %q", de.Message)
	}
	if de.Param != "" {
		t.Errorf("unknown error must not carry a param, got %q", de.Param)
	}
}
