package stt

import (
	"strings"
	"sync"
	"sync/atomic"

	voiceai "github.com/ahmadhuzaifa/voice-ai"
	"github.com/ahmadhuzaifa/voice-ai/internal/observability"
)

// SessionConfig configures the vendor-neutral session core.
type SessionConfig struct {
	// Provider names the vendor for logs and metrics.
	Provider string

	// InterimEvent selects the surface for interim (non-final) results.
	// Vendors whose protocol distinguishes interim from final transcriptions
	// use voiceai.EventTranscription (the default); vendors that only stream
	// rolling partial text use voiceai.EventUtterance, which carries the bare
	// string. One surface per adapter, fixed at construction.
	InterimEvent voiceai.EventType
}

// Session is the state machine behind every live transcription adapter. The
// adapter owns the transport and feeds inbound vendor messages through the
// Handle methods from its single reader goroutine; the session tracks the
// ready state, applies the utterance accumulation policy, and emits canonical
// events in arrival order.
type Session struct {
	provider     string
	interimEvent voiceai.EventType
	emitter      *voiceai.Emitter

	state  atomic.Int32
	opened atomic.Bool

	mu sync.Mutex
	// parts holds the finalized segments of the utterance in progress. It is
	// joined into the terminal transcription and destroyed on close.
	parts []string
	// utteranceClosed is set once a terminal transcription has been emitted
	// and cleared when the next non-empty result arrives. While set, vendor
	// utterance-end signals are suppressed entirely.
	utteranceClosed bool
}

// NewSession creates a session in StateConnecting.
func NewSession(cfg SessionConfig, em *voiceai.Emitter) *Session {
	if cfg.InterimEvent == "" {
		cfg.InterimEvent = voiceai.EventTranscription
	}
	s := &Session{
		provider:     cfg.Provider,
		interimEvent: cfg.InterimEvent,
		emitter:      em,
	}
	s.state.Store(int32(StateConnecting))
	return s
}

// State returns the current ready state.
func (s *Session) State() ReadyState {
	return ReadyState(s.state.Load())
}

// CanSend reports whether audio writes are allowed right now.
func (s *Session) CanSend() bool {
	return s.State() == StateOpen
}

// HandleOpen moves connecting to open and emits the open event. It reports
// whether the transition happened: false means close was requested while the
// transport was still dialing, and the adapter should tear the connection
// down instead of serving it.
func (s *Session) HandleOpen() bool {
	if !s.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen)) {
		return false
	}
	s.opened.Store(true)
	observability.RecordSessionOpen(s.provider)
	s.emit(voiceai.Event{Type: voiceai.EventOpen})
	return true
}

// BeginClose moves the session toward closing and reports whether the caller
// should proceed with transport teardown: false means a close is already in
// progress or done, and the caller must not tear down twice.
func (s *Session) BeginClose() bool {
	for {
		cur := s.state.Load()
		if cur == int32(StateClosing) || cur == int32(StateClosed) {
			return false
		}
		if s.state.CompareAndSwap(cur, int32(StateClosing)) {
			return true
		}
	}
}

// HandleClose moves the session to closed from any state, destroys the
// accumulation buffer, and emits the close event. Repeat calls are no-ops, so
// the close event fires exactly once per session.
func (s *Session) HandleClose() {
	prev := s.state.Swap(int32(StateClosed))
	if prev == int32(StateClosed) {
		return
	}
	s.mu.Lock()
	s.parts = nil
	s.utteranceClosed = false
	s.mu.Unlock()
	if s.opened.Load() {
		observability.RecordSessionClose(s.provider)
	}
	s.emit(voiceai.Event{Type: voiceai.EventClose})
}

// HandleResult applies the normalization policy to one vendor transcription
// result.
//
// Interim results surface through the configured interim event and never
// touch the buffer. Final results append their text to the utterance buffer
// and are emitted as-is; a final result that also carries the speech-final
// flag closes the utterance, and the transcription it emits carries the full
// accumulated text rather than just its own segment. Results with empty text
// are vendor keep-alive noise and are dropped, except that an empty
// speech-final still closes an utterance with buffered text.
func (s *Session) HandleResult(r voiceai.TranscriptionResult) {
	if s.State() == StateClosed {
		return
	}
	text := strings.TrimSpace(r.Text)

	if !r.IsFinal {
		if text == "" {
			return
		}
		s.mu.Lock()
		s.utteranceClosed = false
		s.mu.Unlock()
		if s.interimEvent == voiceai.EventUtterance {
			s.emit(voiceai.Event{Type: voiceai.EventUtterance, Utterance: text})
			return
		}
		r.SpeechFinal = false
		s.emit(voiceai.Event{Type: voiceai.EventTranscription, Transcription: &r})
		return
	}

	s.mu.Lock()
	hadPrior := len(s.parts) > 0
	if text != "" {
		s.utteranceClosed = false
		s.parts = append(s.parts, text)
	}
	if !r.SpeechFinal {
		s.mu.Unlock()
		if text == "" {
			return
		}
		s.emit(voiceai.Event{Type: voiceai.EventTranscription, Transcription: &r})
		return
	}
	if len(s.parts) == 0 {
		// Speech-final with nothing accumulated and nothing new: noise.
		s.mu.Unlock()
		return
	}
	full := strings.Join(s.parts, " ")
	s.parts = nil
	s.utteranceClosed = true
	s.mu.Unlock()

	r.Text = full
	if hadPrior {
		// Word timings from one segment cannot describe a stitched utterance.
		r.Words = nil
	}
	s.emit(voiceai.Event{Type: voiceai.EventTranscription, Transcription: &r})
}

// HandleUtteranceEnd applies the idempotence rule for vendor utterance-end
// signals. If the utterance was already closed by a speech-final result the
// signal is suppressed entirely. Otherwise any buffered text is promoted to
// the terminal transcription first, and the utterance-end event passes
// through after it.
func (s *Session) HandleUtteranceEnd(ue voiceai.UtteranceEndResult) {
	if s.State() == StateClosed {
		return
	}
	s.mu.Lock()
	if s.utteranceClosed {
		s.mu.Unlock()
		return
	}
	var full string
	if len(s.parts) > 0 {
		full = strings.Join(s.parts, " ")
		s.parts = nil
		s.utteranceClosed = true
	}
	s.mu.Unlock()

	if full != "" {
		s.emit(voiceai.Event{Type: voiceai.EventTranscription, Transcription: &voiceai.TranscriptionResult{
			Text:        full,
			IsFinal:     true,
			SpeechFinal: true,
		}})
	}
	s.emit(voiceai.Event{Type: voiceai.EventUtteranceEnd, UtteranceEnd: &ue})
}

// HandleSpeechStarted passes the voice-activity signal through. It has no
// effect on the utterance buffer.
func (s *Session) HandleSpeechStarted(ss voiceai.SpeechStartedResult) {
	if s.State() == StateClosed {
		return
	}
	s.emit(voiceai.Event{Type: voiceai.EventSpeechStarted, SpeechStarted: &ss})
}

// HandleMetadata passes vendor session metadata through.
func (s *Session) HandleMetadata(md voiceai.SessionMetadata) {
	if s.State() == StateClosed {
		return
	}
	s.emit(voiceai.Event{Type: voiceai.EventMetadata, Metadata: &md})
}

// HandleWarning passes a non-fatal vendor notice through.
func (s *Session) HandleWarning(w voiceai.Warning) {
	if s.State() == StateClosed {
		return
	}
	s.emit(voiceai.Event{Type: voiceai.EventWarning, Warning: &w})
}

// HandleError emits a transport or vendor error. Errors do not move the state
// machine; if the transport drops, a close follows on its own.
func (s *Session) HandleError(err error) {
	if s.State() == StateClosed {
		return
	}
	observability.RecordError(s.provider, string(voiceai.CodeOf(err)))
	s.emit(voiceai.Event{Type: voiceai.EventError, Err: err})
}

func (s *Session) emit(evt voiceai.Event) {
	observability.RecordSTTEvent(s.provider, string(evt.Type))
	s.emitter.Emit(evt)
}
