package tts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/triptalk/backend/internal/config"
	"github.com/triptalk/backend/internal/model/lang"
)

func newEdge(url string) *EdgeSynthesizer {
	return NewEdgeSynthesizer(config.TTSConfig{EdgeURL: url, Timeout: 5 * time.Second})
}

// binaryAudioFrame builds a service frame: 2-byte big-endian header length,
// the text header, then the payload.
func binaryAudioFrame(header string, payload []byte) []byte {
	frame := make([]byte, 0, 2+len(header)+len(payload))
	frame = append(frame, byte(len(header)>>8), byte(len(header)))
	frame = append(frame, header...)
	frame = append(frame, payload...)
	return frame
}

// newEdgeServer upgrades the connection, consumes the speech config and SSML
// messages, then hands the connection to serve.
func newEdgeServer(t *testing.T, serve func(conn *websocket.Conn, ssml string)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrading: %v", err)
			return
		}
		defer conn.Close()

		msgType, configMsg, err := conn.ReadMessage()
		if err != nil || msgType != websocket.TextMessage {
			t.Errorf("speech config frame: type %d, %v", msgType, err)
			return
		}
		if !strings.Contains(string(configMsg), "Path:speech.config") {
			t.Errorf("first frame is not the speech config: %q", configMsg)
		}

		msgType, ssmlMsg, err := conn.ReadMessage()
		if err != nil || msgType != websocket.TextMessage {
			t.Errorf("ssml frame: type %d, %v", msgType, err)
			return
		}
		if !strings.Contains(string(ssmlMsg), "Path:ssml") {
			t.Errorf("second frame is not the ssml request: %q", ssmlMsg)
		}

		serve(conn, string(ssmlMsg))
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestEdgeSynthesizeCollectsAudioFrames(t *testing.T) {
	audioHeader := "X-RequestId:1\r\nContent-Type:audio/mpeg\r\nPath:audio\r\n\r\n"

	srv := newEdgeServer(t, func(conn *websocket.Conn, ssml string) {
		if !strings.Contains(ssml, "pl-PL-MarekNeural") {
			t.Errorf("ssml does not name the polish voice: %q", ssml)
		}
		for _, chunk := range []string{"MP3-one-", "MP3-two"} {
			if err := conn.WriteMessage(websocket.BinaryMessage, binaryAudioFrame(audioHeader, []byte(chunk))); err != nil {
				t.Errorf("writing audio frame: %v", err)
				return
			}
		}
		// Frames on other paths and truncated frames must be skipped.
		nonAudio := binaryAudioFrame("X-RequestId:1\r\nPath:turn.start\r\n\r\n", []byte("JUNK"))
		if err := conn.WriteMessage(websocket.BinaryMessage, nonAudio); err != nil {
			t.Errorf("writing non-audio frame: %v", err)
			return
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x00}); err != nil {
			t.Errorf("writing short frame: %v", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte("X-RequestId:1\r\nPath:turn.end\r\n\r\n")); err != nil {
			t.Errorf("writing turn.end: %v", err)
		}
	})
	defer srv.Close()

	got, err := newEdge(wsURL(srv)).Synthesize(context.Background(), "Dzień dobry", lang.PL)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(got) != "MP3-one-MP3-two" {
		t.Fatalf("collected audio: %q", got)
	}
}

func TestEdgeSynthesizeNoAudioBeforeTurnEnd(t *testing.T) {
	srv := newEdgeServer(t, func(conn *websocket.Conn, _ string) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("Path:turn.end\r\n\r\n")); err != nil {
			t.Errorf("writing turn.end: %v", err)
		}
	})
	defer srv.Close()

	_, err := newEdge(wsURL(srv)).Synthesize(context.Background(), "Dzień dobry", lang.PL)
	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("want *SynthesisError, got %T: %v", err, err)
	}
}

func TestEdgeSynthesizeConnectionFailure(t *testing.T) {
	_, err := newEdge("ws://127.0.0.1:0").Synthesize(context.Background(), "hej", lang.PL)
	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("want *SynthesisError, got %T: %v", err, err)
	}
	if synthErr.Backend != "edge" {
		t.Fatalf("backend: %q", synthErr.Backend)
	}
}

func TestEdgeFormat(t *testing.T) {
	if got := newEdge("ws://unused").Format(); got != "mp3" {
		t.Fatalf("format: %q", got)
	}
}

func TestEdgeRejectsEmptyText(t *testing.T) {
	_, err := newEdge("ws://unused").Synthesize(context.Background(), "   ", lang.PL)
	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("want *SynthesisError, got %T: %v", err, err)
	}
	if synthErr.Backend != "edge" {
		t.Fatalf("backend: %q", synthErr.Backend)
	}
}

func TestEdgeVoiceFallback(t *testing.T) {
	if _, ok := edgeVoices[lang.Code("xx")]; ok {
		t.Fatal("unexpected voice for unsupported language")
	}
	// Both supported languages must have a voice so the uniform fallback to
	// the default never dead-ends.
	for _, code := range []lang.Code{lang.PL, lang.EN} {
		voice, ok := edgeVoices[code]
		if !ok || voice.name == "" || voice.locale == "" {
			t.Fatalf("incomplete voice for %q: %+v", code, voice)
		}
	}
}

func TestEscapeXML(t *testing.T) {
	got := escapeXML(`Pokaż <b>plan</b> & "budżet"`)
	if strings.Contains(got, "<b>") || strings.Contains(got, " & ") {
		t.Fatalf("unescaped markup survived: %q", got)
	}
	if !strings.Contains(got, "&lt;b&gt;") {
		t.Fatalf("angle brackets not escaped: %q", got)
	}
	if !strings.Contains(got, "Pokaż") {
		t.Fatalf("non-ascii text mangled: %q", got)
	}
}
