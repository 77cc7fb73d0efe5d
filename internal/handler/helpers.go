package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/eventpay/connect-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Param string `json:"param,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// parseListParams reads the cursor-based pagination query parameters.
func parseListParams(r *http.Request) (limit int, cursor string) {
	limit = 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	cursor = r.URL.Query().Get("cursor")
	return
}

// handleServiceError maps domain errors to HTTP responses. Every error
// reaching here is already a typed domain error; anything else is a bug
// and is answered as an opaque 500.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	de, ok := domain.AsDomainError(err)
	if !ok {
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch de.Kind {
	case domain.KindNotFound, domain.KindInvalidInput, domain.KindResourceConflict:
		logger.Debug("request rejected",
			zap.String("code", de.Code),
			zap.String("error", de.Message),
		)
	case domain.KindForbidden, domain.KindInsufficientFunds:
		logger.Warn("request refused",
			zap.String("code", de.Code),
			zap.String("error", de.Message),
		)
	default:
		logger.Error("upstream failure",
			zap.String("code", de.Code),
			zap.Error(de),
		)
	}

	writeJSON(w, de.HTTPStatus, errorResponse{
		Error: de.Message,
		Code:  de.Code,
		Param: de.Param,
	})
}
