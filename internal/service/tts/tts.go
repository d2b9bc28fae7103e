// Package tts provides speech synthesis behind a single Synthesizer
// contract with two interchangeable backends: a streaming network service
// and a local piper binary.
package tts

import (
	"context"
	"fmt"

	"github.com/triptalk/backend/internal/model/lang"
)

// Synthesizer converts final response text into audio bytes.
type Synthesizer interface {
	// Synthesize renders text with the voice mapped to language.
	Synthesize(ctx context.Context, text string, language lang.Code) ([]byte, error)

	// Format names the audio container produced ("mp3" or "wav").
	Format() string
}

// SynthesisError carries the underlying process or transport diagnostic of a
// failed synthesis attempt.
type SynthesisError struct {
	Backend string
	Detail  string
	Err     error
}

func (e *SynthesisError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s synthesis failed: %s", e.Backend, e.Detail)
	}
	return fmt.Sprintf("%s synthesis failed: %v", e.Backend, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// VoiceModelMissingError signals that no voice model files exist for the
// requested language nor for the fallback language.
type VoiceModelMissingError struct {
	Language lang.Code
	Path     string
}

func (e *VoiceModelMissingError) Error() string {
	return fmt.Sprintf("voice model missing for language %q: %s", e.Language, e.Path)
}
