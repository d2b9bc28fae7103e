package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/triptalk/backend/internal/config"
	"github.com/triptalk/backend/internal/model/lang"
	"github.com/triptalk/backend/pkg/log"
)

// defaultPiperModels names the expected voice model file per language inside
// the model directory. Each model is an .onnx file with a sibling
// .onnx.json config.
var defaultPiperModels = map[lang.Code]string{
	lang.PL: "pl_PL-darkman-medium.onnx",
	lang.EN: "en_US-lessac-medium.onnx",
}

// PiperSynthesizer runs a local piper process writing to a uniquely named
// temporary WAV file, which is read into memory and removed before
// returning, success or not.
type PiperSynthesizer struct {
	bin      string
	modelDir string
	models   map[string]string
	tempDir  string
	timeout  time.Duration
}

// NewPiperSynthesizer builds the local-binary backend.
func NewPiperSynthesizer(cfg config.TTSConfig) *PiperSynthesizer {
	return &PiperSynthesizer{
		bin:      cfg.PiperBin,
		modelDir: cfg.PiperModelDir,
		models:   cfg.PiperModels,
		tempDir:  cfg.TempDir,
		timeout:  cfg.Timeout,
	}
}

// Format implements Synthesizer.
func (p *PiperSynthesizer) Format() string { return "wav" }

// Synthesize implements Synthesizer. A missing voice model for the requested
// language falls back to the default language's model; when that is missing
// too, the call fails with *VoiceModelMissingError.
func (p *PiperSynthesizer) Synthesize(ctx context.Context, text string, language lang.Code) ([]byte, error) {
	modelPath, err := p.resolveModel(language)
	if err != nil {
		return nil, err
	}

	outputPath := filepath.Join(p.tempDir, "piper_"+uuid.NewString()+".wav")
	defer os.Remove(outputPath)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.bin,
		"--model", modelPath,
		"--config", modelPath+".json",
		"--output_file", outputPath,
	)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		log.L().Warn("piper synthesis failed",
			zap.String("model", filepath.Base(modelPath)),
			zap.String("stderr", detail),
			zap.Error(err))
		return nil, &SynthesisError{Backend: "piper", Detail: detail, Err: err}
	}

	audio, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, &SynthesisError{Backend: "piper", Err: fmt.Errorf("reading output: %w", err)}
	}

	return audio, nil
}

// resolveModel picks the voice model for a language, preferring explicit
// per-language overrides over the default file layout.
func (p *PiperSynthesizer) resolveModel(language lang.Code) (string, error) {
	path := p.modelPathFor(language)
	if modelFilesExist(path) {
		return path, nil
	}

	if language != lang.Default {
		fallback := p.modelPathFor(lang.Default)
		if modelFilesExist(fallback) {
			log.L().Info("voice model missing, using default language model",
				zap.String("language", string(language)),
				zap.String("model", filepath.Base(fallback)))
			return fallback, nil
		}
	}

	return "", &VoiceModelMissingError{Language: language, Path: path}
}

func (p *PiperSynthesizer) modelPathFor(language lang.Code) string {
	if override, ok := p.models[string(language)]; ok {
		return override
	}
	return filepath.Join(p.modelDir, defaultPiperModels[language])
}

// modelFilesExist requires both the .onnx model and its .onnx.json config.
func modelFilesExist(modelPath string) bool {
	if modelPath == "" {
		return false
	}
	if _, err := os.Stat(modelPath); err != nil {
		return false
	}
	if _, err := os.Stat(modelPath + ".json"); err != nil {
		return false
	}
	return true
}
