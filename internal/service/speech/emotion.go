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

	speechmodel "github.com/triptalk/backend/internal/model/speech"
)

// EmotionClient classifies vocal affect through an inference sidecar that
// accepts the normalized waveform and returns ranked labels.
type EmotionClient struct {
	endpoint string
	client   *http.Client
}

// NewEmotionClient builds a classifier client for the given endpoint.
func NewEmotionClient(endpoint string, client *http.Client) *EmotionClient {
	if client == nil {
		client = &http.Client{}
	}
	return &EmotionClient{endpoint: endpoint, client: client}
}

// Classify uploads the WAV file and returns the classifier's ranking
// verbatim. The caller consumes only the top label; ties stay in the order
// the classifier chose.
func (c *EmotionClient) Classify(ctx context.Context, wavPath string) ([]speechmodel.EmotionScore, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	file, err := os.Open(wavPath)
	if err != nil {
		return nil, fmt.Errorf("opening waveform: %w", err)
	}
	defer file.Close()

	part, err := writer.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("writing audio: %w", err)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("emotion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("emotion endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var payload struct {
		Emotions []speechmodel.EmotionScore `json:"emotions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding emotion response: %w", err)
	}

	return payload.Emotions, nil
}
