package handler

import (
	"net/http"
	"time"

	"github.com/eventpay/connect-go/internal/domain"
	"github.com/eventpay/connect-go/internal/infra/observability"
	"github.com/eventpay/connect-go/internal/port"
	"github.com/eventpay/connect-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// Every /v1/connect route requires a Bearer token; the owner ID is taken
// from the token subject, never from the URL or body.
func NewRouter(svc *service.ConnectService, repo port.AccountRepository, metrics *observability.Metrics, jwtSecret string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(repo, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/processor", processorMetricsHandler(metrics))

		r.Route("/connect", func(r chi.Router) {
			r.Use(JWTAuthMiddleware(jwtSecret, logger))
			r.Use(IdempotencyKeyMiddleware)

			// Account lifecycle
			r.Post("/account", createAccountHandler(svc, logger))
			r.Get("/account", getAccountDetailsHandler(svc, logger))
			r.Patch("/account", updateAccountInfoHandler(svc, logger))
			r.Get("/account/status", getAccountStatusHandler(svc, logger))
			r.Get("/account/phase", verificationPhaseHandler(svc, logger))
			r.Post("/account/onboarding-link", createOnboardingLinkHandler(svc, logger))
			r.Post("/account/capabilities", updateCapabilitiesHandler(svc, logger))
			r.Post("/account/terms", acceptTermsHandler(svc, logger))
			r.Post("/account/bank-accounts", addBankAccountHandler(svc, logger))

			// Ledgers
			r.Get("/balance", getBalanceHandler(svc, logger))
			r.Get("/balance/issuing", getIssuingBalanceHandler(svc, logger))
			r.Get("/balances", getBalancesHandler(svc, logger))
			r.Post("/balance/top-up", topUpIssuingHandler(svc, logger))
			r.Get("/transactions", listTransactionsHandler(svc, logger))

			// Cards
			r.Post("/cardholder", createCardholderHandler(svc, logger))
			r.Post("/card", createVirtualCardHandler(svc, logger))
			r.Get("/card", getCardDetailsHandler(svc, logger))

			// Payouts
			r.Post("/payouts", createPayoutHandler(svc, logger))
			r.Get("/payouts", listPayoutsHandler(svc, logger))
		})
	})

	return r
}

// ============================================================
// Health & metrics
// ============================================================

func healthzHandler(repo port.AccountRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := "healthy"
		status := "healthy"
		if repo != nil {
			if _, err := repo.GetAccountRecord(r.Context(), "health-check"); err != nil {
				logger.Warn("health: store check failed", zap.Error(err))
				store = "degraded"
				status = "degraded"
			}
		}
		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status: status,
			Store:  store,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "time": time.Now().Format(time.RFC3339)})
	}
}

func processorMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetProcessorSnapshot())
	}
}
