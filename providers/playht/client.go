// Package playht adapts the PlayHT conversion API. PlayHT is the job-shaped
// vendor: synthesis submits a conversion, polls until it completes, then
// downloads the finished audio. There is no streaming surface.
package playht

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	voiceai "github.com/ahmadhuzaifa/voice-ai"
	"github.com/ahmadhuzaifa/voice-ai/internal/observability"
	"github.com/ahmadhuzaifa/voice-ai/internal/restutil"
	"github.com/ahmadhuzaifa/voice-ai/tts"
)

const providerName = "playht"

const (
	defaultVoice           = "en-US-JennyNeural"
	defaultBaseURL         = "https://api.play.ht"
	defaultPollInterval    = 500 * time.Millisecond
	defaultMaxPollAttempts = 40
	defaultHTTPTimeout     = 30 * time.Second
)

// Config configures the PlayHT client.
type Config struct {
	// APIKey and UserID are the Authorization and X-User-ID credentials.
	// Both required.
	APIKey string
	UserID string

	// Voice selects the synthesis voice.
	Voice string

	// PollInterval and MaxPollAttempts bound the conversion wait. A job still
	// unfinished after the last attempt fails with a timeout error.
	PollInterval    time.Duration
	MaxPollAttempts int

	// BaseURL overrides the API host.
	BaseURL string

	// HTTPTimeout bounds each individual request.
	HTTPTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Voice == "" {
		c.Voice = defaultVoice
	}
	if c.PollInterval == 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.MaxPollAttempts == 0 {
		c.MaxPollAttempts = defaultMaxPollAttempts
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaultHTTPTimeout
	}
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return voiceai.NewConfigurationError("playht: APIKey is required", nil)
	}
	if c.UserID == "" {
		return voiceai.NewConfigurationError("playht: UserID is required", nil)
	}
	if c.PollInterval < 0 {
		return voiceai.NewConfigurationError(
			fmt.Sprintf("playht: PollInterval %v cannot be negative", c.PollInterval), nil)
	}
	if c.MaxPollAttempts < 0 {
		return voiceai.NewConfigurationError(
			fmt.Sprintf("playht: MaxPollAttempts %d cannot be negative", c.MaxPollAttempts), nil)
	}
	return nil
}

// Client is the PlayHT TTS adapter.
type Client struct {
	cfg     Config
	emitter *voiceai.Emitter
	http    *http.Client
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
		log:     observability.ComponentLogger("tts", providerName),
	}, nil
}

// Capabilities reports what this vendor supports. PlayHT cannot stream.
func (c *Client) Capabilities() tts.Capabilities {
	return tts.Capabilities{Streaming: false}
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

type convertRequest struct {
	Content []string `json:"content"`
	Voice   string   `json:"voice"`
}

type convertResponse struct {
	TranscriptionID string `json:"transcriptionId"`
}

type statusResponse struct {
	Converted     bool    `json:"converted"`
	AudioURL      string  `json:"audioUrl"`
	AudioDuration float64 `json:"audioDuration"`
	Error         bool    `json:"error"`
	ErrorMessage  string  `json:"errorMessage"`
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", c.cfg.APIKey)
	req.Header.Set("X-User-ID", c.cfg.UserID)
}

// Generate submits the conversion, polls it to completion, and downloads the
// finished audio.
func (c *Client) Generate(ctx context.Context, req *voiceai.SpeechRequest) (*voiceai.SpeechResult, error) {
	return tts.Generate(ctx, providerName, c.emitter, req, func(ctx context.Context) (*voiceai.SpeechResult, error) {
		jobID, err := c.submit(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		c.log.Debug().Str("job", jobID).Msg("Conversion submitted")

		var status statusResponse
		pollCfg := tts.PollConfig{
			Interval:    c.cfg.PollInterval,
			MaxAttempts: c.cfg.MaxPollAttempts,
		}
		err = tts.Poll(ctx, providerName, pollCfg, func(ctx context.Context) (bool, error) {
			s, err := c.status(ctx, jobID)
			if err != nil {
				return false, err
			}
			if s.Error {
				return false, voiceai.NewUpstreamError("playht: conversion failed: "+s.ErrorMessage, nil)
			}
			if !s.Converted {
				return false, nil
			}
			status = s
			return true, nil
		})
		if err != nil {
			return nil, err
		}

		audio, err := c.download(ctx, status.AudioURL)
		if err != nil {
			return nil, err
		}
		return &voiceai.SpeechResult{
			AudioData: audio,
			Metadata: voiceai.SpeechMetadata{
				Format:   "mp3",
				Duration: status.AudioDuration,
			},
		}, nil
	})
}

// GenerateStream is not supported: PlayHT only serves finished conversions.
func (c *Client) GenerateStream(ctx context.Context, req *voiceai.SpeechRequest) (*tts.Stream, error) {
	err := voiceai.NewValidationError("playht: streaming synthesis is not supported", nil)
	tts.EmitError(providerName, c.emitter, err)
	return nil, err
}

func (c *Client) submit(ctx context.Context, text string) (string, error) {
	httpReq, err := restutil.NewJSONRequest(ctx, http.MethodPost, c.cfg.BaseURL+"/api/v1/convert",
		convertRequest{Content: []string{text}, Voice: c.cfg.Voice})
	if err != nil {
		return "", err
	}
	c.authorize(httpReq)

	var out convertResponse
	if err := restutil.DoJSON(c.http, httpReq, &out); err != nil {
		return "", err
	}
	if out.TranscriptionID == "" {
		return "", voiceai.NewUpstreamError("playht: conversion response had no transcriptionId", nil)
	}
	return out.TranscriptionID, nil
}

func (c *Client) status(ctx context.Context, jobID string) (statusResponse, error) {
	statusURL := fmt.Sprintf("%s/api/v1/articleStatus?transcriptionId=%s", c.cfg.BaseURL, url.QueryEscape(jobID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return statusResponse{}, voiceai.NewValidationError("building status request", err)
	}
	c.authorize(httpReq)

	var out statusResponse
	if err := restutil.DoJSON(c.http, httpReq, &out); err != nil {
		return statusResponse{}, err
	}
	return out, nil
}

func (c *Client) download(ctx context.Context, audioURL string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, voiceai.NewValidationError("building download request", err)
	}
	return restutil.DoBytes(c.http, httpReq)
}
