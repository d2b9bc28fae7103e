package tts

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/triptalk/backend/internal/config"
	"github.com/triptalk/backend/internal/model/lang"
	"github.com/triptalk/backend/pkg/log"
)

const (
	edgeToken  = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	edgeFormat = "audio-24khz-48kbitrate-mono-mp3"
)

// edgeVoices maps supported languages to read-aloud neural voices.
var edgeVoices = map[lang.Code]struct {
	locale string
	name   string
}{
	lang.PL: {locale: "pl-PL", name: "pl-PL-MarekNeural"},
	lang.EN: {locale: "en-US", name: "en-US-GuyNeural"},
}

// EdgeSynthesizer streams MP3 audio from the Edge read-aloud websocket
// service, collecting chunks into memory. It creates no file artifacts.
type EdgeSynthesizer struct {
	endpoint string
	dialer   *websocket.Dialer
	timeout  time.Duration
}

// NewEdgeSynthesizer builds the streaming backend.
func NewEdgeSynthesizer(cfg config.TTSConfig) *EdgeSynthesizer {
	return &EdgeSynthesizer{
		endpoint: cfg.EdgeURL,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 30 * time.Second,
		},
		timeout: cfg.Timeout,
	}
}

// Format implements Synthesizer.
func (e *EdgeSynthesizer) Format() string { return "mp3" }

// Synthesize sends the speech config and an SSML request, then gathers
// Path:audio binary frames into a buffer until the service signals turn.end.
func (e *EdgeSynthesizer) Synthesize(ctx context.Context, text string, language lang.Code) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &SynthesisError{Backend: "edge", Detail: "empty text"}
	}

	voice, ok := edgeVoices[language]
	if !ok {
		voice = edgeVoices[lang.Default]
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	connectID := strings.ReplaceAll(uuid.NewString(), "-", "")
	url := fmt.Sprintf("%s?TrustedClientToken=%s&ConnectionId=%s", e.endpoint, edgeToken, connectID)

	conn, _, err := e.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, &SynthesisError{Backend: "edge", Err: fmt.Errorf("connecting: %w", err)}
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	timestamp := time.Now().UTC().Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")

	configMsg := fmt.Sprintf(
		"X-Timestamp:%s\r\nContent-Type:application/json; charset=utf-8\r\nPath:speech.config\r\n\r\n"+
			`{"context":{"synthesis":{"audio":{"metadataoptions":{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"false"},"outputFormat":%q}}}}`,
		timestamp, edgeFormat)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(configMsg)); err != nil {
		return nil, &SynthesisError{Backend: "edge", Err: fmt.Errorf("sending speech config: %w", err)}
	}

	requestID := strings.ReplaceAll(uuid.NewString(), "-", "")
	ssml := fmt.Sprintf(
		`<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='%s'><voice name='%s'>%s</voice></speak>`,
		voice.locale, voice.name, escapeXML(text))
	ssmlMsg := fmt.Sprintf(
		"X-RequestId:%s\r\nX-Timestamp:%s\r\nContent-Type:application/ssml+xml\r\nPath:ssml\r\n\r\n%s",
		requestID, timestamp, ssml)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ssmlMsg)); err != nil {
		return nil, &SynthesisError{Backend: "edge", Err: fmt.Errorf("sending ssml: %w", err)}
	}

	var audioBuffer bytes.Buffer

	for {
		select {
		case <-ctx.Done():
			return nil, &SynthesisError{Backend: "edge", Err: ctx.Err()}
		default:
		}

		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, &SynthesisError{Backend: "edge", Err: fmt.Errorf("reading frame: %w", err)}
		}

		switch msgType {
		case websocket.TextMessage:
			if strings.Contains(string(data), "Path:turn.end") {
				if audioBuffer.Len() == 0 {
					return nil, &SynthesisError{Backend: "edge", Detail: "service returned no audio"}
				}
				log.L().Debug("edge synthesis complete",
					zap.String("voice", voice.name),
					zap.Int("bytes", audioBuffer.Len()))
				return audioBuffer.Bytes(), nil
			}

		case websocket.BinaryMessage:
			// Binary frame: 2-byte big-endian header length, then the text
			// header, then the audio payload.
			if len(data) < 2 {
				continue
			}
			headerLen := int(binary.BigEndian.Uint16(data[:2]))
			if len(data) < 2+headerLen {
				continue
			}
			if strings.Contains(string(data[2:2+headerLen]), "Path:audio") {
				audioBuffer.Write(data[2+headerLen:])
			}
		}
	}
}

func escapeXML(text string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(text))
	return b.String()
}
