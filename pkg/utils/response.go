package utils

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/triptalk/backend/pkg/log"
)

// RespondJSON writes payload as a JSON body with the given status.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.L().Error("failed to encode response", zap.Error(err))
	}
}

// RespondError writes a structured error body. The message never carries
// internal paths or stack traces.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// RespondErrorDetails adds an operator-facing diagnostic alongside the error.
func RespondErrorDetails(w http.ResponseWriter, status int, message, details string) {
	RespondJSON(w, status, map[string]string{"error": message, "details": details})
}
