// Package health reports service readiness without spending provider quota.
package health

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/triptalk/backend/pkg/utils"
)

// Handler answers readiness probes. It checks configuration only; no live
// provider call is made.
type Handler struct {
	llmConfigured bool
	model         string
}

// New creates the health handler.
func New(llmConfigured bool, model string) *Handler {
	return &Handler{llmConfigured: llmConfigured, model: model}
}

// RegisterRoutes mounts the health route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if !h.llmConfigured {
		utils.RespondJSON(w, http.StatusInternalServerError, map[string]string{
			"status":     "degraded",
			"llm_status": "error",
			"model":      h.model,
		})
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"llm_status": "ready",
		"model":      h.model,
	})
}
