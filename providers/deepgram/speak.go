package deepgram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	voiceai "github.com/ahmadhuzaifa/voice-ai"
	"github.com/ahmadhuzaifa/voice-ai/internal/observability"
	"github.com/ahmadhuzaifa/voice-ai/internal/restutil"
	"github.com/ahmadhuzaifa/voice-ai/tts"
)

const (
	defaultSpeakModel      = "aura-asteria-en"
	defaultSpeakEncoding   = "linear16"
	defaultSpeakSampleRate = 24000
	defaultSpeakBaseURL    = "https://api.deepgram.com"
	defaultSpeakTimeout    = 30 * time.Second

	// speakChunkSize is how much of the response body one stream pull drains.
	speakChunkSize = 8192
)

var speakEncodings = map[string]bool{
	"linear16": true,
	"mulaw":    true,
	"alaw":     true,
	"mp3":      true,
	"opus":     true,
	"flac":     true,
	"aac":      true,
}

// SpeakConfig configures the Aura TTS client.
type SpeakConfig struct {
	// APIKey is the Deepgram credential. Required.
	APIKey string

	// Model selects the Aura voice. Default aura-asteria-en.
	Model string

	// Encoding and SampleRate describe the requested output audio. Defaults:
	// linear16 at 24000.
	Encoding   string
	SampleRate int

	// BaseURL overrides the API host.
	BaseURL string

	// HTTPTimeout bounds each synthesis request.
	HTTPTimeout time.Duration
}

func (c *SpeakConfig) applyDefaults() {
	if c.Model == "" {
		c.Model = defaultSpeakModel
	}
	if c.Encoding == "" {
		c.Encoding = defaultSpeakEncoding
	}
	if c.SampleRate == 0 {
		c.SampleRate = defaultSpeakSampleRate
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultSpeakBaseURL
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaultSpeakTimeout
	}
}

func (c *SpeakConfig) validate() error {
	if c.APIKey == "" {
		return voiceai.NewConfigurationError("deepgram: APIKey is required", nil)
	}
	if c.Encoding != "" && !speakEncodings[c.Encoding] {
		return voiceai.NewConfigurationError(
			fmt.Sprintf("deepgram: unsupported speak encoding %q", c.Encoding), nil)
	}
	if c.SampleRate < 0 {
		return voiceai.NewConfigurationError(
			fmt.Sprintf("deepgram: SampleRate %d is invalid", c.SampleRate), nil)
	}
	return nil
}

// SpeakClient is the Deepgram Aura TTS adapter. Aura serves one HTTP endpoint
// for both shapes: Generate buffers the response, GenerateStream hands the
// chunked body out pull by pull.
type SpeakClient struct {
	cfg     SpeakConfig
	emitter *voiceai.Emitter
	http    *http.Client
	log     zerolog.Logger
}

var _ tts.Client = (*SpeakClient)(nil)

// NewSpeak validates the configuration and builds a client. No network
// traffic happens here.
func NewSpeak(cfg SpeakConfig) (*SpeakClient, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &SpeakClient{
		cfg:     cfg,
		emitter: voiceai.NewEmitter(),
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		log:     observability.ComponentLogger("tts", providerName),
	}, nil
}

// Capabilities reports what this vendor supports.
func (c *SpeakClient) Capabilities() tts.Capabilities {
	return tts.Capabilities{Streaming: true}
}

func (c *SpeakClient) On(t voiceai.EventType, fn voiceai.Handler) voiceai.Subscription {
	return c.emitter.On(t, fn)
}

func (c *SpeakClient) Once(t voiceai.EventType, fn voiceai.Handler) voiceai.Subscription {
	return c.emitter.Once(t, fn)
}

func (c *SpeakClient) Off(t voiceai.EventType, sub voiceai.Subscription) {
	c.emitter.Off(t, sub)
}

type speakRequest struct {
	Text string `json:"text"`
}

func (c *SpeakClient) speakURL() string {
	return fmt.Sprintf("%s/v1/speak?model=%s&encoding=%s&sample_rate=%d",
		c.cfg.BaseURL, c.cfg.Model, c.cfg.Encoding, c.cfg.SampleRate)
}

func (c *SpeakClient) newSpeakRequest(ctx context.Context, text string) (*http.Request, error) {
	httpReq, err := restutil.NewJSONRequest(ctx, http.MethodPost, c.speakURL(), speakRequest{Text: text})
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Token "+c.cfg.APIKey)
	return httpReq, nil
}

// Generate synthesizes the request in a single call and returns the full
// audio buffer.
func (c *SpeakClient) Generate(ctx context.Context, req *voiceai.SpeechRequest) (*voiceai.SpeechResult, error) {
	return tts.Generate(ctx, providerName, c.emitter, req, func(ctx context.Context) (*voiceai.SpeechResult, error) {
		httpReq, err := c.newSpeakRequest(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		audio, err := restutil.DoBytes(c.http, httpReq)
		if err != nil {
			return nil, err
		}
		c.log.Debug().Int("bytes", len(audio)).Str("model", c.cfg.Model).Msg("Synthesis complete")
		return &voiceai.SpeechResult{
			AudioData: audio,
			Metadata: voiceai.SpeechMetadata{
				Format: c.cfg.Encoding,
			},
		}, nil
	})
}

// GenerateStream synthesizes the request and returns a pull stream that
// drains the chunked response body.
func (c *SpeakClient) GenerateStream(ctx context.Context, req *voiceai.SpeechRequest) (*tts.Stream, error) {
	if err := req.Validate(); err != nil {
		tts.EmitError(providerName, c.emitter, err)
		return nil, err
	}
	httpReq, err := c.newSpeakRequest(ctx, req.Text)
	if err != nil {
		tts.EmitError(providerName, c.emitter, err)
		return nil, err
	}
	resp, err := restutil.Do(c.http, httpReq)
	if err != nil {
		tts.EmitError(providerName, c.emitter, err)
		return nil, err
	}

	buf := make([]byte, speakChunkSize)
	pull := func() ([]byte, error) {
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				return chunk, nil
			}
			if err != nil {
				return nil, err
			}
		}
	}
	release := func() {
		resp.Body.Close()
	}
	return tts.NewStream(providerName, c.emitter, req, pull, release), nil
}
