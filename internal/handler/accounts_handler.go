package handler

import (
	"encoding/json"
	"net/http"

	"github.com/eventpay/connect-go/internal/domain"
	"github.com/eventpay/connect-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Account lifecycle: /v1/connect/account*
// ============================================================

func createAccountHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/connect/account")
		defer span.End()

		var profile domain.OnboardingProfile
		if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		accountID, err := svc.CreateAccount(ctx, OwnerIDFromContext(ctx), profile)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"processorAccountId": accountID})
	}
}

func createOnboardingLinkHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/connect/account/onboarding-link")
		defer span.End()

		link, err := svc.CreateOnboardingLink(ctx, OwnerIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, link)
	}
}

func getAccountStatusHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/connect/account/status")
		defer span.End()

		account, err := svc.GetAccountStatus(ctx, OwnerIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, account)
	}
}

func verificationPhaseHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/connect/account/phase")
		defer span.End()

		phase, err := svc.VerificationPhase(ctx, OwnerIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"phase": string(phase)})
	}
}

func updateCapabilitiesHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/connect/account/capabilities")
		defer span.End()

		account, err := svc.UpdateCapabilities(ctx, OwnerIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, account)
	}
}

func getAccountDetailsHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/connect/account")
		defer span.End()

		account, err := svc.GetAccountDetails(ctx, OwnerIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, account)
	}
}

func updateAccountInfoHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/connect/account")
		defer span.End()

		var patch domain.AccountInfoPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		account, err := svc.UpdateAccountInfo(ctx, OwnerIDFromContext(ctx), patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, account)
	}
}

func acceptTermsHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/connect/account/terms")
		defer span.End()

		var body struct {
			IP string `json:"ip"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.IP == "" {
			body.IP = r.RemoteAddr
		}

		if err := svc.AcceptTermsOfService(ctx, OwnerIDFromContext(ctx), body.IP); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"accepted": true})
	}
}

func addBankAccountHandler(svc *service.ConnectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/connect/account/bank-accounts")
		defer span.End()

		var req domain.AddBankAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		bankAccountID, err := svc.AddBankAccount(ctx, OwnerIDFromContext(ctx), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"bankAccountId": bankAccountID})
	}
}
