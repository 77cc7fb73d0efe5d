package handler

import (
	"encoding/json"
	"net/http"

	"github.com/eventpay/connect-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Payouts: /v1/connect/payouts
// ============================================================

func createPayoutHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/connect/payouts")
		defer span.End()

		// Amount is optional: omitted means the full available balance.
		var body struct {
			Amount   *int64 `json:"amount"`
			Currency string `json:"currency"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		payout, err := svc.CreatePayout(ctx, OwnerIDFromContext(ctx), body.Amount, body.Currency)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, payout)
	}
}

func listPayoutsHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/connect/payouts")
		defer span.End()

		limit, cursor := parseListParams(r)
		page, err := svc.ListPayouts(ctx, OwnerIDFromContext(ctx), limit, cursor)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, page)
	}
}
