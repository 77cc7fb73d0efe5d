package handler

import (
	"encoding/json"
	"net/http"

	"github.com/eventpay/connect-go/internal/domain"
	"github.com/eventpay/connect-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Cardholder & virtual card: /v1/connect/cardholder, /v1/connect/card
// ============================================================

func createCardholderHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/connect/cardholder")
		defer span.End()

		var profile domain.CardholderProfile
		if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		cardholderID, err := svc.CreateCardholder(ctx, OwnerIDFromContext(ctx), profile)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"cardholderId": cardholderID})
	}
}

func createVirtualCardHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/connect/card")
		defer span.End()

		var req domain.VirtualCardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		card, err := svc.CreateVirtualCard(ctx, OwnerIDFromContext(ctx), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{
			"cardId": card.ID,
			"last4":  card.Last4,
		})
	}
}

func getCardDetailsHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/connect/card")
		defer span.End()

		card, err := svc.GetCardDetails(ctx, OwnerIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, card)
	}
}
