// Package chat orchestrates the conversation pipeline: audio normalization,
// transcription, emotion classification, prompt composition, generation and
// sanitization, together with the lifecycle of per-request temp artifacts.
package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	chatmodel "github.com/triptalk/backend/internal/model/chat"
	"github.com/triptalk/backend/internal/model/lang"
	speechmodel "github.com/triptalk/backend/internal/model/speech"
	"github.com/triptalk/backend/internal/service/ai"
	"github.com/triptalk/backend/pkg/log"
)

// ErrEmptyAudio rejects a missing or zero-byte upload before any pipeline
// stage runs.
var ErrEmptyAudio = errors.New("audio payload is empty")

// Generator produces model output for a composed prompt.
type Generator interface {
	Generate(ctx context.Context, systemText, inputText string) (string, error)
}

// Transcoder normalizes an uploaded file into a mono 16 kHz WAV artifact.
type Transcoder interface {
	ToWAV(ctx context.Context, inputPath string) (string, error)
}

// Transcriber converts a normalized waveform into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string, language lang.Code) (string, error)
}

// Classifier ranks emotion labels for a normalized waveform.
type Classifier interface {
	Classify(ctx context.Context, wavPath string) ([]speechmodel.EmotionScore, error)
}

// Service wires the pipeline stages into the user-facing chat operations.
type Service struct {
	generator  Generator
	transcoder Transcoder
	stt        Transcriber
	emotions   Classifier
	tempDir    string
}

// NewService builds the orchestrator. generator may be nil when the LLM
// credential is absent; chat then degrades to the localized apology.
func NewService(generator Generator, transcoder Transcoder, stt Transcriber, emotions Classifier, tempDir string) *Service {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Service{
		generator:  generator,
		transcoder: transcoder,
		stt:        stt,
		emotions:   emotions,
		tempDir:    tempDir,
	}
}

// AudioChatResult is the outcome of one audio-chat request.
type AudioChatResult struct {
	UserText string
	Response string
	Emotion  string
}

// TextChat runs the text-only path: composition, generation, sanitization.
func (s *Service) TextChat(ctx context.Context, text string, language lang.Code, history []chatmodel.Turn) (string, error) {
	system := ai.SystemInstruction(language, "")
	input := ai.ComposeInput(text, history)
	return s.respond(ctx, system, input, language), nil
}

// AudioChat runs the full pipeline. Both inference stages complete before
// composition; every temp artifact created here is removed on every exit
// path, including errors.
func (s *Service) AudioChat(ctx context.Context, audio []byte, language lang.Code, history []chatmodel.Turn) (AudioChatResult, error) {
	if len(audio) == 0 {
		return AudioChatResult{}, ErrEmptyAudio
	}

	uploadPath := filepath.Join(s.tempDir, "upload_"+uuid.NewString())
	if err := os.WriteFile(uploadPath, audio, 0o600); err != nil {
		return AudioChatResult{}, fmt.Errorf("storing upload: %w", err)
	}
	defer os.Remove(uploadPath)

	wavPath, err := s.transcoder.ToWAV(ctx, uploadPath)
	if err != nil {
		return AudioChatResult{}, err
	}
	defer os.Remove(wavPath)

	userText, err := s.stt.Transcribe(ctx, wavPath, language)
	if err != nil {
		return AudioChatResult{}, fmt.Errorf("transcription: %w", err)
	}

	emotion, err := s.topEmotion(ctx, wavPath)
	if err != nil {
		return AudioChatResult{}, fmt.Errorf("emotion classification: %w", err)
	}

	system := ai.SystemInstruction(language, emotion)
	input := ai.ComposeInput(userText, history)

	return AudioChatResult{
		UserText: userText,
		Response: s.respond(ctx, system, input, language),
		Emotion:  emotion,
	}, nil
}

// topEmotion takes the classifier's first-ranked label as returned; ties are
// the classifier's business.
func (s *Service) topEmotion(ctx context.Context, wavPath string) (string, error) {
	scores, err := s.emotions.Classify(ctx, wavPath)
	if err != nil {
		return "", err
	}
	if len(scores) == 0 || scores[0].Label == "" {
		return speechmodel.NeutralEmotion, nil
	}
	return scores[0].Label, nil
}

// respond generates and sanitizes the reply. Generation failures become the
// fixed localized apology so the conversation keeps flowing.
func (s *Service) respond(ctx context.Context, system, input string, language lang.Code) string {
	if s.generator == nil {
		log.L().Warn("chat model not configured, returning apology")
		return ai.Apology(language)
	}

	reply, err := s.generator.Generate(ctx, system, input)
	if err != nil {
		log.L().Warn("generation failed, returning apology", zap.Error(err))
		return ai.Apology(language)
	}

	return ai.Sanitize(reply)
}
