package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/triptalk/backend/internal/model/lang"
	speechmodel "github.com/triptalk/backend/internal/model/speech"
)

// WhisperClient transcribes normalized waveforms through a
// whisper-compatible HTTP endpoint.
type WhisperClient struct {
	endpoint string
	client   *http.Client
}

// NewWhisperClient builds an STT client for the given endpoint.
func NewWhisperClient(endpoint string, client *http.Client) *WhisperClient {
	if client == nil {
		client = &http.Client{}
	}
	return &WhisperClient{endpoint: endpoint, client: client}
}

// Transcribe uploads the WAV file with a language hint and returns the
// trimmed transcript. An empty transcript is legal; silence is the model's
// call, not ours.
func (c *WhisperClient) Transcribe(ctx context.Context, wavPath string, language lang.Code) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	file, err := os.Open(wavPath)
	if err != nil {
		return "", fmt.Errorf("opening waveform: %w", err)
	}
	defer file.Close()

	part, err := writer.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}

	_ = writer.WriteField("language", string(language))
	_ = writer.WriteField("response_format", "json")
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("stt request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("stt endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var payload speechmodel.Transcription
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding stt response: %w", err)
	}

	return strings.TrimSpace(payload.Text), nil
}
