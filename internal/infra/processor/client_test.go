package processor_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eventpay/connect-go/internal/domain"
	"github.com/eventpay/connect-go/internal/infra/processor"
	"github.com/eventpay/connect-go/internal/infra/resilience"

	"go.uber.org/zap"
)

func newTestClient(baseURL string) *processor.Client {
	cfg := resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxConcurrency: 4}
	return processor.NewClient(
		&http.Client{Timeout: 2 * time.Second},
		baseURL,
		"sk_test_123",
		resilience.NewCircuitBreaker("test"),
		cfg,
		zap.NewNop(),
	)
}

func errorBody(status int, typ, code, message, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"type":    typ,
				"code":    code,
				"message": message,
				"param":   param,
			},
		})
	}
}

func TestClient_SendsAuthAndAccountHeaders(t *testing.T) {
	var gotAuth, gotAccount string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccount = r.Header.Get("Processor-Account")
		_, _ = w.Write([]byte(`{"available":[{"amount":5000,"currency":"usd"}],"pending":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	balance, err := c.GetPayableBalance(context.Background(), "acct_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer sk_test_123" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if gotAccount != "acct_1" {
		t.Errorf("expected Processor-Account header, got %q", gotAccount)
	}
	if balance.AvailableFor("usd") != 5000 {
		t.Errorf("expected 5000 available, got %d", balance.AvailableFor("usd"))
	}
}

func TestClient_TranslatesErrorEnvelopes(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		typ      string
		code     string
		param    string
		wantKind domain.ErrorKind
		wantCode string
	}{
		{
			name:   "capability disabled",
			status: http.StatusBadRequest, typ: "invalid_request_error",
			code: "capability_disabled", param: "card_issuing",
			wantKind: domain.KindCapabilityNotEnabled, wantCode: "capability_not_enabled",
		},
		{
			name:   "capability inactive suffix",
			status: http.StatusBadRequest, typ: "invalid_request_error",
			code:     "transfers_capability_inactive",
			wantKind: domain.KindCapabilityNotEnabled, wantCode: "capability_not_enabled",
		},
		{
			name:   "insufficient balance",
			status: http.StatusBadRequest, typ: "invalid_request_error",
			code:     "balance_insufficient",
			wantKind: domain.KindInsufficientFunds, wantCode: "balance_insufficient",
		},
		{
			name:   "missing resource",
			status: http.StatusNotFound, typ: "invalid_request_error",
			code:     "resource_missing",
			wantKind: domain.KindNotFound, wantCode: "resource_missing",
		},
		{
			name:   "expired onboarding link",
			status: http.StatusBadRequest, typ: "invalid_request_error",
			code:     "account_link_expired",
			wantKind: domain.KindUpstreamLinkInvalid, wantCode: "link_invalid",
		},
		{
			name:   "duplicate cardholder",
			status: http.StatusConflict, typ: "invalid_request_error",
			code:     "cardholder_exists",
			wantKind: domain.KindResourceConflict, wantCode: "cardholder_exists",
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden, typ: "permission_error",
			wantKind: domain.KindForbidden, wantCode: "permission_denied",
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests, typ: "invalid_request_error",
			code:     "rate_limit",
			wantKind: domain.KindUpstreamTransient, wantCode: "rate_limited",
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError, typ: "api_error",
			wantKind: domain.KindUpstreamTransient, wantCode: "upstream_unavailable",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(errorBody(tc.status, tc.typ, tc.code, "", tc.param))
			defer srv.Close()

			c := newTestClient(srv.URL)
			_, err := c.GetAccount(context.Background(), "acct_1")
			de, ok := domain.AsDomainError(err)
			if !ok {
				t.Fatalf("expected DomainError, got %T: %v", err, err)
			}
			if de.Kind != tc.wantKind {
				t.Errorf("expected kind %s, got %s", tc.wantKind, de.Kind)
			}
			if de.Code != tc.wantCode {
				t.Errorf("expected code %s, got %s", tc.wantCode, de.Code)
			}
		})
	}
}

func TestClient_PostalCodeParamIsCanonical(t *testing.T) {
	srv := httptest.NewServer(errorBody(http.StatusBadRequest,
		"invalid_request_error", "parameter_invalid", "postal code looks wrong", "address[postal_code]"))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.UpdateAccountInfo(context.Background(), "acct_1", domain.AccountInfoPatch{})
	de, ok := domain.AsDomainError(err)
	if !ok {
		t.Fatalf("expected DomainError, got %v", err)
	}
	if de.Code != "postal_code_invalid" {
		t.Errorf("expected code postal_code_invalid, got %s", de.Code)
	}
	if de.Param != "zipCode" {
		t.Errorf("expected canonical param zipCode, got %q", de.Param)
	}
}

func TestClient_UnknownErrorShapeIsGeneric(t *testing.T) {
	srv := httptest.NewServer(errorBody(http.StatusBadRequest, "weird_type", "never_seen_before", "internal detail that must not leak", ""))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.GetAccount(context.Background(), "acct_1")
	de, ok := domain.AsDomainError(err)
	if !ok {
		t.Fatalf("expected DomainError, got %v", err)
	}
	if de.Kind != domain.KindUnknown {
		t.Errorf("expected unknown kind, got %s", de.Kind)
	}
	if de.Message == "internal detail that must not leak" {
		t.Error("upstream message leaked through the generic error")
	}
}

func TestClient_PlainText404MapsToNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.GetAccount(context.Background(), "acct_1")
	de, ok := domain.AsDomainError(err)
	if !ok {
		t.Fatalf("expected DomainError, got %v", err)
	}
	if de.Kind != domain.KindNotFound {
		t.Errorf("a 404 without an error envelope is still a missing resource, got %s", de.Kind)
	}
}

func TestClient_ReadsRetryTransientFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			errorBody(http.StatusInternalServerError, "api_error", "", "", "")(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"available":{"amount":900,"currency":"usd"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	reserve, err := c.GetIssuingBalance(context.Background(), "acct_1")
	if err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if reserve.Amount != 900 {
		t.Errorf("expected 900, got %d", reserve.Amount)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestClient_ReadsStopOnPermanentFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		errorBody(http.StatusNotFound, "invalid_request_error", "resource_missing", "", "")(w, r)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.GetAccount(context.Background(), "acct_1")
	de, _ := domain.AsDomainError(err)
	if de == nil || de.Kind != domain.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("permanent failures must not be retried, got %d attempts", got)
	}
}

func TestClient_MutationsAreNeverRetried(t *testing.T) {
	var hits atomic.Int32
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		gotKey = r.Header.Get("Idempotency-Key")
		errorBody(http.StatusInternalServerError, "api_error", "", "", "")(w, r)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.TopUpIssuing(context.Background(), "acct_1", 2500, "idem-key-1")
	de, _ := domain.AsDomainError(err)
	if de == nil || !de.Retryable() {
		t.Fatalf("expected transient error, got %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("expected a single attempt for a mutation, got %d", got)
	}
	if gotKey != "idem-key-1" {
		t.Errorf("expected idempotency key on the wire, got %q", gotKey)
	}
}

func TestClient_TimeoutMapsToTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := newTestClient(srv.URL)
	_, err := c.GetAccount(ctx, "acct_1")
	de, ok := domain.AsDomainError(err)
	if !ok || !de.Retryable() {
		t.Fatalf("expected retryable timeout error, got %v", err)
	}
}

func TestClient_UnreachableUpstreamMapsToTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening

	c := newTestClient(srv.URL)
	_, err := c.GetAccount(context.Background(), "acct_1")
	de, ok := domain.AsDomainError(err)
	if !ok || !de.Retryable() {
		t.Fatalf("expected retryable transport error, got %v", err)
	}
	if de.Code != "upstream_unreachable" {
		t.Errorf("expected upstream_unreachable, got %s", de.Code)
	}
}
