// Package elevenlabs adapts the ElevenLabs text-to-speech API: single-call
// synthesis over REST and chunked synthesis over the stream-input WebSocket.
package elevenlabs

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	voiceai "github.com/ahmadhuzaifa/voice-ai"
	"github.com/ahmadhuzaifa/voice-ai/internal/observability"
	"github.com/ahmadhuzaifa/voice-ai/internal/restutil"
	"github.com/ahmadhuzaifa/voice-ai/tts"
)

const providerName = "elevenlabs"

const (
	defaultVoiceID      = "21m00Tcm4TlvDq8ikWAM"
	defaultModelID      = "eleven_multilingual_v2"
	defaultOutputFormat = "mp3_44100_128"
	defaultBaseURL      = "https://api.elevenlabs.io"
	defaultWSBaseURL    = "wss://api.elevenlabs.io"
	defaultHTTPTimeout  = 30 * time.Second
)

// Config configures the ElevenLabs client. Zero values take the documented
// defaults; out-of-range values fail construction.
type Config struct {
	// APIKey is the xi-api-key credential. Required.
	APIKey string

	// VoiceID selects the voice. Defaults to the public "Rachel" voice.
	VoiceID string

	// ModelID selects the synthesis model.
	ModelID string

	// Stability and SimilarityBoost are voice settings in [0, 1]. Zero means
	// the default (0.5 and 0.75).
	Stability       float64
	SimilarityBoost float64

	// OptimizeStreamingLatency trades quality for latency on the streaming
	// endpoint, 0 (off) through 4 (max).
	OptimizeStreamingLatency int

	// OutputFormat is the vendor format string, e.g. mp3_44100_128 or
	// pcm_24000.
	OutputFormat string

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
	if c.Stability == 0 {
		c.Stability = 0.5
	}
	if c.SimilarityBoost == 0 {
		c.SimilarityBoost = 0.75
	}
	if c.OutputFormat == "" {
		c.OutputFormat = defaultOutputFormat
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
		return voiceai.NewConfigurationError("elevenlabs: APIKey is required", nil)
	}
	if c.Stability < 0 || c.Stability > 1 {
		return voiceai.NewConfigurationError(
			fmt.Sprintf("elevenlabs: Stability %v is outside [0, 1]", c.Stability), nil)
	}
	if c.SimilarityBoost < 0 || c.SimilarityBoost > 1 {
		return voiceai.NewConfigurationError(
			fmt.Sprintf("elevenlabs: SimilarityBoost %v is outside [0, 1]", c.SimilarityBoost), nil)
	}
	if c.OptimizeStreamingLatency < 0 || c.OptimizeStreamingLatency > 4 {
		return voiceai.NewConfigurationError(
			fmt.Sprintf("elevenlabs: OptimizeStreamingLatency %d is outside [0, 4]", c.OptimizeStreamingLatency), nil)
	}
	return nil
}

// Client is the ElevenLabs TTS adapter.
type Client struct {
	cfg     Config
	emitter *voiceai.Emitter
	http    *http.Client
	dialer  *websocket.Dialer
	log     zerolog.Logger
}

var _ tts.Client = (*Client)(nil)

// New validates the configuration and builds a client. No network traffic
// happens here; a bad configuration fails before any request is made.
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

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type speakPayload struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Generate synthesizes the request in a single call and returns the full
// audio buffer.
func (c *Client) Generate(ctx context.Context, req *voiceai.SpeechRequest) (*voiceai.SpeechResult, error) {
	return tts.Generate(ctx, providerName, c.emitter, req, func(ctx context.Context) (*voiceai.SpeechResult, error) {
		return c.synthesize(ctx, req)
	})
}

func (c *Client) synthesize(ctx context.Context, req *voiceai.SpeechRequest) (*voiceai.SpeechResult, error) {
	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", c.cfg.BaseURL, c.cfg.VoiceID, c.cfg.OutputFormat)
	payload := speakPayload{
		Text:    req.Text,
		ModelID: c.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       c.cfg.Stability,
			SimilarityBoost: c.cfg.SimilarityBoost,
		},
	}
	httpReq, err := restutil.NewJSONRequest(ctx, http.MethodPost, url, payload)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("xi-api-key", c.cfg.APIKey)

	audio, err := restutil.DoBytes(c.http, httpReq)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Int("bytes", len(audio)).Str("voice", c.cfg.VoiceID).Msg("Synthesis complete")
	return &voiceai.SpeechResult{
		AudioData: audio,
		Metadata: voiceai.SpeechMetadata{
			Format: c.cfg.OutputFormat,
		},
	}, nil
}
