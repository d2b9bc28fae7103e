// Package chat exposes the text and audio conversation endpoints.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	chatmodel "github.com/triptalk/backend/internal/model/chat"
	"github.com/triptalk/backend/internal/model/lang"
	chatservice "github.com/triptalk/backend/internal/service/chat"
	speechservice "github.com/triptalk/backend/internal/service/speech"
	"github.com/triptalk/backend/pkg/log"
	"github.com/triptalk/backend/pkg/utils"
)

// Pipeline abstracts the orchestrator for testing.
type Pipeline interface {
	TextChat(ctx context.Context, text string, language lang.Code, history []chatmodel.Turn) (string, error)
	AudioChat(ctx context.Context, audio []byte, language lang.Code, history []chatmodel.Turn) (chatservice.AudioChatResult, error)
}

// Handler serves the conversation endpoints.
type Handler struct {
	pipeline Pipeline
}

// New creates the chat handler.
func New(pipeline Pipeline) *Handler {
	return &Handler{pipeline: pipeline}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/text", h.handleText)
	r.Post("/chat/audio", h.handleAudio)
}

type textChatResponse struct {
	Response string  `json:"response"`
	Emotion  *string `json:"emotion_detected"`
}

type audioChatResponse struct {
	UserText string `json:"user_text"`
	Response string `json:"response"`
	Emotion  string `json:"emotion_detected"`
}

func (h *Handler) handleText(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text     string          `json:"text"`
		Language string          `json:"language"`
		History  json.RawMessage `json:"history"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	language := lang.Normalize(payload.Language)
	history := chatmodel.ParseHistory(payload.History)

	response, err := h.pipeline.TextChat(r.Context(), payload.Text, language, history)
	if err != nil {
		log.L().Error("text chat failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "chat failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, textChatResponse{Response: response, Emotion: nil})
}

func (h *Handler) handleAudio(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read audio file")
		return
	}
	if len(audio) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "audio file is empty")
		return
	}

	language := lang.Normalize(r.FormValue("language"))
	history := chatmodel.ParseHistory([]byte(r.FormValue("history")))

	result, err := h.pipeline.AudioChat(r.Context(), audio, language, history)
	if err != nil {
		h.respondAudioError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, audioChatResponse{
		UserText: result.UserText,
		Response: result.Response,
		Emotion:  result.Emotion,
	})
}

func (h *Handler) respondAudioError(w http.ResponseWriter, err error) {
	if errors.Is(err, chatservice.ErrEmptyAudio) {
		utils.RespondError(w, http.StatusBadRequest, "audio file is empty")
		return
	}

	var decodeErr *speechservice.DecodeError
	if errors.As(err, &decodeErr) {
		utils.RespondErrorDetails(w, http.StatusInternalServerError, "could not decode audio", decodeErr.Error())
		return
	}

	log.L().Error("audio chat failed", zap.Error(err))
	utils.RespondErrorDetails(w, http.StatusInternalServerError, "audio chat failed", err.Error())
}
