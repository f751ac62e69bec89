package cartesia

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	voiceai "github.com/ahmadhuzaifa/voice-ai"
	"github.com/ahmadhuzaifa/voice-ai/internal/observability"
	"github.com/ahmadhuzaifa/voice-ai/stt"
)

const (
	defaultLiveModel      = "ink-whisper"
	defaultLiveLanguage   = "en"
	defaultLiveEncoding   = "pcm_s16le"
	defaultLiveSampleRate = 16000
)

var liveEncodings = map[string]bool{
	"pcm_s16le": true,
	"pcm_mulaw": true,
	"pcm_alaw":  true,
}

// LiveConfig configures an ink-whisper live transcription session.
type LiveConfig struct {
	// APIKey is the Cartesia credential. Required.
	APIKey string

	// Model and Language select the recognition model. Defaults: ink-whisper,
	// en.
	Model    string
	Language string

	// Encoding and SampleRate describe the audio the caller will send.
	// Defaults: pcm_s16le at 16000.
	Encoding   string
	SampleRate int

	// WSBaseURL overrides the API host.
	WSBaseURL string
}

func (c *LiveConfig) applyDefaults() {
	if c.Model == "" {
		c.Model = defaultLiveModel
	}
	if c.Language == "" {
		c.Language = defaultLiveLanguage
	}
	if c.Encoding == "" {
		c.Encoding = defaultLiveEncoding
	}
	if c.SampleRate == 0 {
		c.SampleRate = defaultLiveSampleRate
	}
	if c.WSBaseURL == "" {
		c.WSBaseURL = defaultWSBaseURL
	}
}

func (c *LiveConfig) validate() error {
	if c.APIKey == "" {
		return voiceai.NewConfigurationError("cartesia: APIKey is required", nil)
	}
	if c.Encoding != "" && !liveEncodings[c.Encoding] {
		return voiceai.NewConfigurationError(
			fmt.Sprintf("cartesia: unsupported live encoding %q", c.Encoding), nil)
	}
	if c.SampleRate < 0 {
		return voiceai.NewConfigurationError(
			fmt.Sprintf("cartesia: SampleRate %d is invalid", c.SampleRate), nil)
	}
	return nil
}

// LiveClient is the Cartesia live transcription adapter. Unlike Deepgram
// there is no vendor SDK: the adapter owns a raw WebSocket and a single
// reader goroutine. ink-whisper has no separate utterance-end signal, so
// every final transcript closes its utterance, and interim text surfaces
// through the bare utterance event.
type LiveClient struct {
	cfg     LiveConfig
	emitter *voiceai.Emitter
	session *stt.Session
	log     zerolog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	started bool

	// writeMu serializes Send and Close frames; the websocket allows one
	// concurrent writer.
	writeMu sync.Mutex
}

var _ stt.Client = (*LiveClient)(nil)

// NewLive validates the configuration and builds a client in the connecting
// state. No network traffic happens until Start.
func NewLive(cfg LiveConfig) (*LiveClient, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	em := voiceai.NewEmitter()
	return &LiveClient{
		cfg:     cfg,
		emitter: em,
		session: stt.NewSession(stt.SessionConfig{
			Provider:     providerName,
			InterimEvent: voiceai.EventUtterance,
		}, em),
		log: observability.ComponentLogger("stt", providerName),
	}, nil
}

// Start launches the transcription WebSocket. The dial happens in the
// background; the open event fires once the socket is up.
func (c *LiveClient) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return voiceai.NewValidationError("cartesia: session already started", nil)
	}
	if c.session.State() != stt.StateConnecting {
		return voiceai.NewValidationError("cartesia: session is closed", nil)
	}
	c.started = true
	go c.run(ctx)
	return nil
}

func (c *LiveClient) run(ctx context.Context) {
	url := fmt.Sprintf("%s/stt/websocket?api_key=%s&cartesia_version=%s&model=%s&language=%s&encoding=%s&sample_rate=%d",
		c.cfg.WSBaseURL, c.cfg.APIKey, apiVersion, c.cfg.Model, c.cfg.Language, c.cfg.Encoding, c.cfg.SampleRate)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		c.session.HandleError(voiceai.NewTransportError("dialing cartesia stt websocket", err))
		c.session.HandleClose()
		return
	}
	if !c.session.HandleOpen() {
		// Close was requested while dialing.
		conn.Close()
		return
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.readLoop(conn)
}

// liveFrame is one server message on the transcription socket.
type liveFrame struct {
	Type      string  `json:"type"`
	RequestID string  `json:"request_id"`
	Text      string  `json:"text"`
	IsFinal   bool    `json:"is_final"`
	Duration  float64 `json:"duration"`
	Language  string  `json:"language"`
	Message   string  `json:"message"`
}

func (c *LiveClient) readLoop(conn *websocket.Conn) {
	defer c.session.HandleClose()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				c.session.State() == stt.StateOpen {
				c.session.HandleError(voiceai.NewTransportError("reading cartesia stt frame", err))
			}
			return
		}
		var frame liveFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			c.log.Warn().Err(err).Msg("Dropping malformed Cartesia STT frame")
			continue
		}
		switch frame.Type {
		case "transcript":
			// ink-whisper finals are endpoint-delimited, so a final result is
			// also the end of its utterance.
			c.session.HandleResult(voiceai.TranscriptionResult{
				Text:        frame.Text,
				IsFinal:     frame.IsFinal,
				SpeechFinal: frame.IsFinal,
				Duration:    frame.Duration,
			})
		case "error":
			c.session.HandleError(voiceai.NewUpstreamError("cartesia: "+frame.Message, nil))
		case "done":
			return
		case "flush_done":
			// Acknowledgement of a finalize command; nothing to surface.
		default:
			c.log.Debug().Str("type", frame.Type).Msg("Unhandled Cartesia STT frame")
		}
	}
}

// Send forwards one binary audio frame. Outside the open state it is a silent
// no-op; write failures surface as error events.
func (c *LiveClient) Send(p []byte) {
	if !c.session.CanSend() {
		return
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}
	c.writeMu.Lock()
	err := conn.WriteMessage(websocket.BinaryMessage, p)
	c.writeMu.Unlock()
	if err != nil {
		c.session.HandleError(voiceai.NewTransportError("writing audio to cartesia", err))
	}
}

// ReadyState reports the session lifecycle state.
func (c *LiveClient) ReadyState() stt.ReadyState {
	return c.session.State()
}

// Close flushes the vendor session and settles it in the closed state. Safe
// to call from any state, any number of times.
func (c *LiveClient) Close() error {
	if !c.session.BeginClose() {
		return nil
	}
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		c.writeMu.Lock()
		// "done" asks the vendor to flush remaining transcripts and finish.
		_ = conn.WriteMessage(websocket.TextMessage, []byte("done"))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		_ = conn.Close()
	}
	c.session.HandleClose()
	return nil
}

func (c *LiveClient) On(t voiceai.EventType, fn voiceai.Handler) voiceai.Subscription {
	return c.emitter.On(t, fn)
}

func (c *LiveClient) Once(t voiceai.EventType, fn voiceai.Handler) voiceai.Subscription {
	return c.emitter.Once(t, fn)
}

func (c *LiveClient) Off(t voiceai.EventType, sub voiceai.Subscription) {
	c.emitter.Off(t, sub)
}
