// Package tts exposes the text-to-speech endpoint.
package tts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/triptalk/backend/internal/model/lang"
	ttsservice "github.com/triptalk/backend/internal/service/tts"
	"github.com/triptalk/backend/pkg/log"
	"github.com/triptalk/backend/pkg/utils"
)

// Handler serves synthesis requests across the configured backends.
type Handler struct {
	backends       map[string]ttsservice.Synthesizer
	defaultBackend string
}

// New creates the TTS handler. backends is keyed by the request's model
// value ("edge", "piper").
func New(backends map[string]ttsservice.Synthesizer, defaultBackend string) *Handler {
	return &Handler{backends: backends, defaultBackend: defaultBackend}
}

// RegisterRoutes mounts the synthesis route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/tts", h.handleSynthesize)
}

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text     string `json:"text"`
		Language string `json:"language"`
		Model    string `json:"model"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	backendName := payload.Model
	if backendName == "" {
		backendName = h.defaultBackend
	}
	synthesizer, ok := h.backends[backendName]
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "unknown synthesis model: "+backendName)
		return
	}

	language := lang.Normalize(payload.Language)

	audio, err := synthesizer.Synthesize(r.Context(), payload.Text, language)
	if err != nil {
		h.respondSynthesisError(w, err)
		return
	}

	format := synthesizer.Format()
	w.Header().Set("Content-Type", "audio/"+format)
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.Header().Set("Content-Disposition", "attachment; filename=speech."+format)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		log.L().Error("failed to write audio response", zap.Error(err))
	}
}

func (h *Handler) respondSynthesisError(w http.ResponseWriter, err error) {
	var missingErr *ttsservice.VoiceModelMissingError
	if errors.As(err, &missingErr) {
		utils.RespondErrorDetails(w, http.StatusInternalServerError, "voice model missing", missingErr.Error())
		return
	}

	log.L().Error("synthesis failed", zap.Error(err))
	utils.RespondErrorDetails(w, http.StatusInternalServerError, "speech synthesis failed", err.Error())
}
