package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/triptalk/backend/internal/model/lang"
	ttsservice "github.com/triptalk/backend/internal/service/tts"
)

type fakeSynthesizer struct {
	audio   []byte
	format  string
	err     error
	gotText string
	gotLang lang.Code
	calls   int
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, text string, language lang.Code) ([]byte, error) {
	f.calls++
	f.gotText = text
	f.gotLang = language
	return f.audio, f.err
}

func (f *fakeSynthesizer) Format() string { return f.format }

func newTestRouter(backends map[string]ttsservice.Synthesizer, defaultBackend string) http.Handler {
	r := chi.NewRouter()
	New(backends, defaultBackend).RegisterRoutes(r)
	return r
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/tts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestSynthesizeSuccess(t *testing.T) {
	edge := &fakeSynthesizer{audio: []byte("mp3-bytes"), format: "mp3"}
	h := newTestRouter(map[string]ttsservice.Synthesizer{"edge": edge}, "edge")

	rec := post(t, h, `{"text":"Dzień dobry","language":"pl","model":"edge"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/mp3" {
		t.Fatalf("content type: %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "9" {
		t.Fatalf("content length: %q", got)
	}
	if rec.Body.String() != "mp3-bytes" {
		t.Fatalf("body: %q", rec.Body.String())
	}
	if edge.gotText != "Dzień dobry" || edge.gotLang != lang.PL {
		t.Fatalf("synthesizer got %q %q", edge.gotText, edge.gotLang)
	}
}

func TestSynthesizeDefaultsBackend(t *testing.T) {
	edge := &fakeSynthesizer{audio: []byte("a"), format: "mp3"}
	piper := &fakeSynthesizer{audio: []byte("b"), format: "wav"}
	h := newTestRouter(map[string]ttsservice.Synthesizer{"edge": edge, "piper": piper}, "edge")

	rec := post(t, h, `{"text":"hello","language":"en"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if edge.calls != 1 || piper.calls != 0 {
		t.Fatalf("default backend not used: edge=%d piper=%d", edge.calls, piper.calls)
	}
}

func TestSynthesizeUnknownModel(t *testing.T) {
	h := newTestRouter(map[string]ttsservice.Synthesizer{"edge": &fakeSynthesizer{format: "mp3"}}, "edge")

	rec := post(t, h, `{"text":"hej","model":"festival"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	if got := decodeError(t, rec)["error"]; !strings.Contains(got, "festival") {
		t.Fatalf("error should name the model: %q", got)
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	edge := &fakeSynthesizer{format: "mp3"}
	h := newTestRouter(map[string]ttsservice.Synthesizer{"edge": edge}, "edge")

	rec := post(t, h, `{"text":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	if edge.calls != 0 {
		t.Fatal("synthesizer must not run for empty text")
	}
}

func TestSynthesizeUnsupportedLanguageFallsBack(t *testing.T) {
	edge := &fakeSynthesizer{audio: []byte("a"), format: "mp3"}
	h := newTestRouter(map[string]ttsservice.Synthesizer{"edge": edge}, "edge")

	rec := post(t, h, `{"text":"hej","language":"xx"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if edge.gotLang != lang.Default {
		t.Fatalf("language: %q", edge.gotLang)
	}
}

func TestSynthesizeVoiceModelMissing(t *testing.T) {
	piper := &fakeSynthesizer{format: "wav", err: &ttsservice.VoiceModelMissingError{
		Language: lang.PL,
		Path:     "models/pl_PL-darkman-medium.onnx",
	}}
	h := newTestRouter(map[string]ttsservice.Synthesizer{"piper": piper}, "piper")

	rec := post(t, h, `{"text":"hej","model":"piper"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeError(t, rec)
	if body["error"] != "voice model missing" {
		t.Fatalf("error: %q", body["error"])
	}
	if !strings.Contains(body["details"], "darkman") {
		t.Fatalf("details should name the model path: %q", body["details"])
	}
}

func TestSynthesizeBackendFailure(t *testing.T) {
	edge := &fakeSynthesizer{format: "mp3", err: &ttsservice.SynthesisError{Backend: "edge", Detail: "websocket closed"}}
	h := newTestRouter(map[string]ttsservice.Synthesizer{"edge": edge}, "edge")

	rec := post(t, h, `{"text":"hej"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeError(t, rec)
	if body["error"] != "speech synthesis failed" {
		t.Fatalf("error: %q", body["error"])
	}
	if !strings.Contains(body["details"], "websocket closed") {
		t.Fatalf("details: %q", body["details"])
	}
}
