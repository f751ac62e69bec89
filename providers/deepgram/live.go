// Package deepgram adapts Deepgram's voice APIs: live transcription over the
// official SDK's listen WebSocket and Aura text-to-speech over REST.
package deepgram

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	websocketv1api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket"
	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	"github.com/rs/zerolog"

	voiceai "github.com/ahmadhuzaifa/voice-ai"
	"github.com/ahmadhuzaifa/voice-ai/internal/observability"
	"github.com/ahmadhuzaifa/voice-ai/stt"
)

const providerName = "deepgram"

var liveEncodings = map[string]bool{
	"linear16": true,
	"mulaw":    true,
	"alaw":     true,
	"flac":     true,
	"opus":     true,
	"speex":    true,
}

// LiveConfig configures a live transcription session. Zero values take the
// documented defaults; unsupported combinations fail construction.
type LiveConfig struct {
	// APIKey is the Deepgram credential. Required.
	APIKey string

	// Model and Language select the recognition model. Defaults: nova-2, en.
	Model    string
	Language string

	// Punctuate and SmartFormat toggle vendor-side text formatting.
	Punctuate   bool
	SmartFormat bool

	// Encoding, SampleRate, and Channels describe the audio the caller will
	// send. Defaults: linear16, 16000, 1.
	Encoding   string
	SampleRate int
	Channels   int

	// UtteranceEndMs is the silence window, in milliseconds, after which the
	// vendor fires an utterance-end signal. Default 1000.
	UtteranceEndMs int

	// VadEvents enables speech-started signals.
	VadEvents bool
}

func (c *LiveConfig) applyDefaults() {
	if c.Model == "" {
		c.Model = "nova-2"
	}
	if c.Language == "" {
		c.Language = "en"
	}
	if c.Encoding == "" {
		c.Encoding = "linear16"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 16000
	}
	if c.Channels == 0 {
		c.Channels = 1
	}
	if c.UtteranceEndMs == 0 {
		c.UtteranceEndMs = 1000
	}
}

func (c *LiveConfig) validate() error {
	if c.APIKey == "" {
		return voiceai.NewConfigurationError("deepgram: APIKey is required", nil)
	}
	if c.Encoding != "" && !liveEncodings[c.Encoding] {
		return voiceai.NewConfigurationError(
			fmt.Sprintf("deepgram: unsupported encoding %q", c.Encoding), nil)
	}
	if c.SampleRate < 0 {
		return voiceai.NewConfigurationError(
			fmt.Sprintf("deepgram: SampleRate %d is invalid", c.SampleRate), nil)
	}
	if c.Channels < 0 || c.Channels > 2 {
		return voiceai.NewConfigurationError(
			fmt.Sprintf("deepgram: Channels %d is outside [1, 2]", c.Channels), nil)
	}
	if c.UtteranceEndMs < 0 {
		return voiceai.NewConfigurationError(
			fmt.Sprintf("deepgram: UtteranceEndMs %d must be positive", c.UtteranceEndMs), nil)
	}
	return nil
}

// LiveClient is the Deepgram live transcription adapter.
type LiveClient struct {
	cfg     LiveConfig
	emitter *voiceai.Emitter
	session *stt.Session
	log     zerolog.Logger

	mu sync.Mutex
	ws *listenClient.WSCallback
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
		session: stt.NewSession(stt.SessionConfig{Provider: providerName}, em),
		log:     observability.ComponentLogger("stt", providerName),
	}, nil
}

// Start launches the listen WebSocket. The dial happens in the background;
// the open event fires once the socket is up.
func (c *LiveClient) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws != nil {
		return voiceai.NewValidationError("deepgram: session already started", nil)
	}
	if c.session.State() != stt.StateConnecting {
		return voiceai.NewValidationError("deepgram: session is closed", nil)
	}

	tOptions := &interfaces.LiveTranscriptionOptions{
		Model:          c.cfg.Model,
		Language:       c.cfg.Language,
		Punctuate:      c.cfg.Punctuate,
		SmartFormat:    c.cfg.SmartFormat,
		InterimResults: true,
		UtteranceEndMs: strconv.Itoa(c.cfg.UtteranceEndMs),
		VadEvents:      c.cfg.VadEvents,
		Encoding:       c.cfg.Encoding,
		SampleRate:     c.cfg.SampleRate,
		Channels:       c.cfg.Channels,
	}

	ws, err := listenClient.NewWSUsingCallback(ctx, c.cfg.APIKey, nil, tOptions, newLiveHandler(c.session))
	if err != nil {
		return voiceai.NewTransportError("creating deepgram listen client", err)
	}
	c.ws = ws

	go func() {
		if !ws.Connect() {
			c.session.HandleError(voiceai.NewTransportError("deepgram connection failed", nil))
			c.session.HandleClose()
		}
	}()
	return nil
}

// Send forwards one audio frame. Outside the open state it is a silent no-op;
// write failures surface as error events.
func (c *LiveClient) Send(p []byte) {
	if !c.session.CanSend() {
		return
	}
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return
	}
	if _, err := ws.Write(p); err != nil {
		c.session.HandleError(voiceai.NewTransportError("writing audio to deepgram", err))
	}
}

// ReadyState reports the session lifecycle state.
func (c *LiveClient) ReadyState() stt.ReadyState {
	return c.session.State()
}

// Close drains the vendor connection and settles the session in the closed
// state. Safe to call from any state, any number of times.
func (c *LiveClient) Close() error {
	if !c.session.BeginClose() {
		return nil
	}
	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()
	if ws != nil {
		ws.Finish()
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

// liveHandler adapts the SDK callback interface onto the session state
// machine. It embeds the default handler so SDK interface growth does not
// break the build, and overrides every message kind the session consumes.
type liveHandler struct {
	*websocketv1api.DefaultCallbackHandler
	session *stt.Session
	log     zerolog.Logger
}

func newLiveHandler(session *stt.Session) *liveHandler {
	return &liveHandler{
		DefaultCallbackHandler: websocketv1api.NewDefaultCallbackHandler(),
		session:                session,
		log:                    observability.ComponentLogger("stt", providerName),
	}
}

func (h *liveHandler) Open(or *msginterfaces.OpenResponse) error {
	h.session.HandleOpen()
	return nil
}

func (h *liveHandler) Message(mr *msginterfaces.MessageResponse) error {
	if mr == nil || len(mr.Channel.Alternatives) == 0 {
		return nil
	}
	h.session.HandleResult(toResult(mr))
	return nil
}

func (h *liveHandler) Metadata(md *msginterfaces.MetadataResponse) error {
	if md == nil {
		return nil
	}
	h.session.HandleMetadata(voiceai.SessionMetadata{
		RequestID: md.RequestID,
		Created:   md.Created,
		Duration:  md.Duration,
		Channels:  md.Channels,
		Models:    md.Models,
	})
	return nil
}

func (h *liveHandler) SpeechStarted(ss *msginterfaces.SpeechStartedResponse) error {
	if ss == nil {
		return nil
	}
	h.session.HandleSpeechStarted(voiceai.SpeechStartedResult{
		Timestamp: ss.Timestamp,
		Channel:   ss.Channel,
	})
	return nil
}

func (h *liveHandler) UtteranceEnd(ue *msginterfaces.UtteranceEndResponse) error {
	if ue == nil {
		return nil
	}
	h.session.HandleUtteranceEnd(voiceai.UtteranceEndResult{
		LastWordEnd: ue.LastWordEnd,
		Channel:     ue.Channel,
	})
	return nil
}

func (h *liveHandler) Close(cr *msginterfaces.CloseResponse) error {
	h.session.HandleClose()
	return nil
}

func (h *liveHandler) Error(er *msginterfaces.ErrorResponse) error {
	if er == nil {
		return nil
	}
	msg := er.Description
	if msg == "" {
		msg = er.ErrMsg
	}
	h.session.HandleError(voiceai.NewUpstreamError(fmt.Sprintf("deepgram: %s", msg), nil))
	return nil
}

func (h *liveHandler) UnhandledEvent(raw []byte) error {
	h.log.Debug().Int("bytes", len(raw)).Msg("Unhandled Deepgram event")
	return nil
}

func toResult(mr *msginterfaces.MessageResponse) voiceai.TranscriptionResult {
	alt := mr.Channel.Alternatives[0]
	var words []voiceai.TranscriptionWord
	if len(alt.Words) > 0 {
		words = make([]voiceai.TranscriptionWord, 0, len(alt.Words))
		for _, w := range alt.Words {
			words = append(words, voiceai.TranscriptionWord{
				Word:           w.Word,
				Start:          w.Start,
				End:            w.End,
				Confidence:     w.Confidence,
				PunctuatedWord: w.PunctuatedWord,
			})
		}
	}
	return voiceai.TranscriptionResult{
		Text:        alt.Transcript,
		IsFinal:     mr.IsFinal,
		SpeechFinal: mr.SpeechFinal,
		Confidence:  alt.Confidence,
		Start:       mr.Start,
		Duration:    mr.Duration,
		Words:       words,
	}
}
