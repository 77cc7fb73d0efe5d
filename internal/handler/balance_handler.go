package handler

import (
	"encoding/json"
	"net/http"

	"github.com/eventpay/connect-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Ledgers: /v1/connect/balance*, /v1/connect/transactions
// ============================================================

func getBalanceHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/connect/balance")
		defer span.End()

		balance, err := svc.GetBalance(ctx, OwnerIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, balance)
	}
}

func getIssuingBalanceHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/connect/balance/issuing")
		defer span.End()

		balance, err := svc.GetIssuingBalance(ctx, OwnerIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, balance)
	}
}

func getBalancesHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/connect/balances")
		defer span.End()

		balances, err := svc.GetBalances(ctx, OwnerIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, balances)
	}
}

func topUpIssuingHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/connect/balance/top-up")
		defer span.End()

		var body struct {
			AmountCents int64 `json:"amountCents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		available, err := svc.TopUpIssuing(ctx, OwnerIDFromContext(ctx), body.AmountCents)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"available": available})
	}
}

func listTransactionsHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/connect/transactions")
		defer span.End()

		limit, cursor := parseListParams(r)
		page, err := svc.ListTransactions(ctx, OwnerIDFromContext(ctx), limit, cursor)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, page)
	}
}
