package transcriber

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/relaylabs/relay/internal/transcriber"
)

const (
	scribeEndpoint   = "wss://api.elevenlabs.io/v1/speech-to-text/realtime"
	scribeModelID    = "scribe_v2_realtime"
	audioSampleRate  = 16000
	audioFormatParam = "pcm_16000"
)

type ScribeConfig struct {
	APIKey   string
	Language string
}

// ScribeTransport streams raw PCM audio to the ElevenLabs Scribe realtime
// API over a websocket and decodes its transcript frames.
type ScribeTransport struct {
	apiKey   string
	language string
	dialer   *websocket.Dialer
}

func NewScribeTransport(cfg ScribeConfig) transcriber.Transport {
	return &ScribeTransport{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		language: cfg.Language,
		dialer:   websocket.DefaultDialer,
	}
}

func (t *ScribeTransport) Available() bool {
	return t.apiKey != ""
}

func (t *ScribeTransport) Connect(ctx context.Context) (transcriber.Conn, error) {
	query := url.Values{}
	query.Set("model_id", scribeModelID)
	query.Set("language_code", t.language)
	query.Set("commit_strategy", "vad")
	query.Set("audio_format", audioFormatParam)
	query.Set("include_timestamps", "false")

	header := http.Header{}
	header.Set("xi-api-key", t.apiKey)

	endpoint := scribeEndpoint + "?" + query.Encode()
	ws, resp, err := t.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial scribe websocket: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial scribe websocket: %w", err)
	}
	slog.Info("connected to scribe realtime api", "language", t.language)
	return &scribeConn{ws: ws}, nil
}

type scribeConn struct {
	writeMu sync.Mutex
	ws      *websocket.Conn
}

type audioChunkMessage struct {
	MessageType string `json:"message_type"`
	AudioBase64 string `json:"audio_base_64"`
	Commit      bool   `json:"commit"`
	SampleRate  int    `json:"sample_rate"`
}

func (c *scribeConn) SendAudio(chunk []byte) error {
	msg := audioChunkMessage{
		MessageType: "input_audio_chunk",
		AudioBase64: base64.StdEncoding.EncodeToString(chunk),
		Commit:      false,
		SampleRate:  audioSampleRate,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal audio chunk: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *scribeConn) ReadFrame() (transcriber.Frame, error) {
	_, payload, err := c.ws.ReadMessage()
	if err != nil {
		return transcriber.Frame{}, err
	}
	return decodeScribeMessage(payload), nil
}

func (c *scribeConn) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.ws.Close()
}

type scribeMessage struct {
	MessageType string `json:"message_type"`
	Text        string `json:"text"`
	SessionID   string `json:"session_id"`
	Error       string `json:"error"`
	Message     string `json:"message"`
}

// decodeScribeMessage maps a raw provider message onto a transport frame.
// Unknown message types come back with an empty frame type and are ignored
// upstream.
func decodeScribeMessage(payload []byte) transcriber.Frame {
	var msg scribeMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		slog.Warn("undecodable scribe message", "error", err)
		return transcriber.Frame{Type: transcriber.FrameError, Detail: "undecodable provider message"}
	}

	switch msg.MessageType {
	case "partial_transcript":
		return transcriber.Frame{Type: transcriber.FramePartial, Text: msg.Text}
	case "committed_transcript", "committed_transcript_with_timestamps":
		return transcriber.Frame{Type: transcriber.FrameCommitted, Text: msg.Text}
	case "session_started":
		return transcriber.Frame{Type: transcriber.FrameSessionStarted, SessionID: msg.SessionID}
	case "error", "auth_error", "quota_exceeded", "rate_limited":
		detail := msg.Error
		if detail == "" {
			detail = msg.Message
		}
		if detail == "" {
			detail = msg.MessageType
		}
		return transcriber.Frame{Type: transcriber.FrameError, Detail: detail}
	default:
		return transcriber.Frame{Type: transcriber.FrameType(msg.MessageType)}
	}
}
