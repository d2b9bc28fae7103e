// Package speech adapts the audio ingest pipeline: ffmpeg normalization and
// the STT / emotion inference sidecars that consume the normalized waveform.
package speech

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
	"github.com/triptalk/backend/pkg/log"
)

// DecodeError signals that an uploaded payload could not be decoded into a
// usable waveform.
type DecodeError struct {
	Detail string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("audio decode failed: %s", e.Detail)
	}
	return fmt.Sprintf("audio decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Transcoder converts arbitrary compressed uploads into mono 16 kHz WAV via
// an external ffmpeg process.
type Transcoder struct {
	bin     string
	tempDir string
	timeout time.Duration
}

// NewTranscoder builds a Transcoder from the speech configuration.
func NewTranscoder(cfg config.SpeechConfig) *Transcoder {
	return &Transcoder{
		bin:     cfg.FFmpegBin,
		tempDir: cfg.TempDir,
		timeout: cfg.Timeout,
	}
}

// ToWAV decodes inputPath into a freshly named WAV artifact in the temp dir
// and returns its path. The caller owns the artifact and must remove it.
// Undecodable input fails with *DecodeError and leaves nothing behind.
func (t *Transcoder) ToWAV(ctx context.Context, inputPath string) (string, error) {
	outputPath := filepath.Join(t.tempDir, "decoded_"+uuid.NewString()+".wav")

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", inputPath,
		"-ac", "1",
		"-ar", "16000",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, t.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// ffmpeg may leave a partial output file behind on failure.
		_ = os.Remove(outputPath)
		detail := strings.TrimSpace(stderr.String())
		log.L().Warn("ffmpeg transcode failed",
			zap.String("input", filepath.Base(inputPath)),
			zap.String("stderr", detail),
			zap.Error(err))
		return "", &DecodeError{Detail: detail, Err: err}
	}

	return outputPath, nil
}
