// Package cartesia adapts the Cartesia voice API: sonic text-to-speech over
// REST and WebSocket, and ink-whisper live transcription over a raw
// WebSocket.
package cartesia

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	voiceai "github.com/ahmadhuzaifa/voice-ai"
	"github.com/ahmadhuzaifa/voice-ai/internal/observability"
	"github.com/ahmadhuzaifa/voice-ai/internal/restutil"
	"github.com/ahmadhuzaifa/voice-ai/tts"
)

const providerName = "cartesia"

const (
	apiVersion = "2024-06-10"

	defaultVoiceID     = "f786b574-daa5-4673-aa0c-cbe3e8534c02"
	defaultModelID     = "sonic-english"
	defaultContainer   = "raw"
	defaultEncoding    = "pcm_s16le"
	defaultSampleRate  = 44100
	defaultBaseURL     = "https://api.cartesia.ai"
	defaultWSBaseURL   = "wss://api.cartesia.ai"
	defaultHTTPTimeout = 30 * time.Second
)

var ttsEncodings = map[string]bool{
	"pcm_s16le": true,
	"pcm_f32le": true,
	"pcm_mulaw": true,
	"pcm_alaw":  true,
}

var ttsContainers = map[string]bool{
	"raw": true,
	"wav": true,
	"mp3": true,
}

// Config configures the Cartesia TTS client.
type Config struct {
	// APIKey is the Cartesia credential. Required.
	APIKey string

	// VoiceID selects the voice. Defaults to a public American English voice.
	VoiceID string

	// ModelID selects the sonic model generation.
	ModelID string

	// Container, Encoding, and SampleRate describe the requested output
	// audio. Defaults: raw pcm_s16le at 44100.
	Container  string
	Encoding   string
	SampleRate int

	// BaseURL and WSBaseURL override the API hosts.
	BaseURL   string
	WSBaseURL string

	// HTTPTimeout bounds the single-call synthesis request.
	HTTPTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.VoiceID == "" {
		c.VoiceID = defaultVoiceID
	}
	if c.ModelID == "" {
		c.ModelID = defaultModelID
	}
	if c.Container == "" {
		c.Container = defaultContainer
	}
	if c.Encoding == "" {
		c.Encoding = defaultEncoding
	}
	if c.SampleRate == 0 {
		c.SampleRate = defaultSampleRate
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.WSBaseURL == "" {
		c.WSBaseURL = defaultWSBaseURL
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaultHTTPTimeout
	}
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return voiceai.NewConfigurationError("cartesia: APIKey is required", nil)
	}
	if c.Encoding != "" && !ttsEncodings[c.Encoding] {
		return voiceai.NewConfigurationError(
			fmt.Sprintf("cartesia: unsupported encoding %q", c.Encoding), nil)
	}
	if c.Container != "" && !ttsContainers[c.Container] {
		return voiceai.NewConfigurationError(
			fmt.Sprintf("cartesia: unsupported container %q", c.Container), nil)
	}
	if c.SampleRate < 0 {
		return voiceai.NewConfigurationError(
			fmt.Sprintf("cartesia: SampleRate %d is invalid", c.SampleRate), nil)
	}
	return nil
}

// Client is the Cartesia TTS adapter.
type Client struct {
	cfg     Config
	emitter *voiceai.Emitter
	http    *http.Client
	dialer  *websocket.Dialer
	log     zerolog.Logger
}

var _ tts.Client = (*Client)(nil)

// New validates the configuration and builds a client. No network traffic
// happens here.
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &Client{
		cfg:     cfg,
		emitter: voiceai.NewEmitter(),
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		dialer:  websocket.DefaultDialer,
		log:     observability.ComponentLogger("tts", providerName),
	}, nil
}

// Capabilities reports what this vendor supports.
func (c *Client) Capabilities() tts.Capabilities {
	return tts.Capabilities{Streaming: true}
}

func (c *Client) On(t voiceai.EventType, fn voiceai.Handler) voiceai.Subscription {
	return c.emitter.On(t, fn)
}

func (c *Client) Once(t voiceai.EventType, fn voiceai.Handler) voiceai.Subscription {
	return c.emitter.Once(t, fn)
}

func (c *Client) Off(t voiceai.EventType, sub voiceai.Subscription) {
	c.emitter.Off(t, sub)
}

type ttsVoice struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type ttsOutputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

type ttsPayload struct {
	ContextID    string          `json:"context_id,omitempty"`
	ModelID      string          `json:"model_id"`
	Transcript   string          `json:"transcript"`
	Voice        ttsVoice        `json:"voice"`
	OutputFormat ttsOutputFormat `json:"output_format"`
}

// ttsFrame is one server message on the TTS WebSocket: a base64 audio chunk,
// the done marker, or an error.
type ttsFrame struct {
	Data      string `json:"data"`
	Done      bool   `json:"done"`
	Error     string `json:"error"`
	ContextID string `json:"context_id"`
}

func (c *Client) payload(text, contextID string) ttsPayload {
	return ttsPayload{
		ContextID:  contextID,
		ModelID:    c.cfg.ModelID,
		Transcript: text,
		Voice:      ttsVoice{Mode: "id", ID: c.cfg.VoiceID},
		OutputFormat: ttsOutputFormat{
			Container:  c.cfg.Container,
			Encoding:   c.cfg.Encoding,
			SampleRate: c.cfg.SampleRate,
		},
	}
}

// Generate synthesizes the request in a single call against /tts/bytes and
// returns the full audio buffer.
func (c *Client) Generate(ctx context.Context, req *voiceai.SpeechRequest) (*voiceai.SpeechResult, error) {
	return tts.Generate(ctx, providerName, c.emitter, req, func(ctx context.Context) (*voiceai.SpeechResult, error) {
		httpReq, err := restutil.NewJSONRequest(ctx, http.MethodPost, c.cfg.BaseURL+"/tts/bytes", c.payload(req.Text, ""))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("X-API-Key", c.cfg.APIKey)
		httpReq.Header.Set("Cartesia-Version", apiVersion)

		audio, err := restutil.DoBytes(c.http, httpReq)
		if err != nil {
			return nil, err
		}
		c.log.Debug().Int("bytes", len(audio)).Str("voice", c.cfg.VoiceID).Msg("Synthesis complete")
		return &voiceai.SpeechResult{
			AudioData: audio,
			Metadata: voiceai.SpeechMetadata{
				Format: c.cfg.Encoding,
			},
		}, nil
	})
}

// GenerateStream synthesizes the request over /tts/websocket and returns a
// pull stream of audio chunks.
func (c *Client) GenerateStream(ctx context.Context, req *voiceai.SpeechRequest) (*tts.Stream, error) {
	if err := req.Validate(); err != nil {
		tts.EmitError(providerName, c.emitter, err)
		return nil, err
	}

	url := fmt.Sprintf("%s/tts/websocket?api_key=%s&cartesia_version=%s", c.cfg.WSBaseURL, c.cfg.APIKey, apiVersion)
	conn, resp, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		werr := voiceai.NewTransportError("dialing cartesia tts websocket", err)
		tts.EmitError(providerName, c.emitter, werr)
		return nil, werr
	}

	contextID := uuid.New().String()
	if err := conn.WriteJSON(c.payload(req.Text, contextID)); err != nil {
		conn.Close()
		werr := voiceai.NewTransportError("writing cartesia tts request", err)
		tts.EmitError(providerName, c.emitter, werr)
		return nil, werr
	}

	pull := func() ([]byte, error) {
		for {
			var frame ttsFrame
			if err := conn.ReadJSON(&frame); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return nil, io.EOF
				}
				return nil, err
			}
			if frame.Error != "" {
				return nil, fmt.Errorf("cartesia: %s", frame.Error)
			}
			if frame.Data != "" {
				audio, err := base64.StdEncoding.DecodeString(frame.Data)
				if err != nil {
					return nil, fmt.Errorf("decoding audio frame: %w", err)
				}
				if len(audio) > 0 {
					return audio, nil
				}
			}
			if frame.Done {
				return nil, io.EOF
			}
		}
	}
	release := func() {
		conn.Close()
	}
	return tts.NewStream(providerName, c.emitter, req, pull, release), nil
}
