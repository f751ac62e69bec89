package voiceai

// EventType identifies one kind of adapter event.
type EventType string

// TTS events.
const (
	// EventSpeech carries synthesized audio: one event per Generate result and
	// one per stream chunk.
	EventSpeech EventType = "speech"
)

// STT session events. EventError is shared by both engines.
const (
	// EventOpen fires once when the live session transitions to the open state.
	EventOpen EventType = "open"
	// EventTranscription carries a structured interim, final, or terminal
	// transcription result.
	EventTranscription EventType = "transcription"
	// EventUtterance carries bare interim text for adapters that separate
	// interim text from the structured result.
	EventUtterance EventType = "utterance"
	// EventUtteranceEnd signals vendor-detected end of an utterance.
	EventUtteranceEnd EventType = "utterance_end"
	// EventSpeechStarted signals vendor-detected start of speech activity.
	EventSpeechStarted EventType = "speech_started"
	// EventMetadata carries vendor session bookkeeping.
	EventMetadata EventType = "metadata"
	// EventWarning carries non-fatal adapter diagnostics.
	EventWarning EventType = "warning"
	// EventError carries a failure. For TTS it mirrors the returned error; for
	// STT sessions transport errors are emitted here rather than returned.
	EventError EventType = "error"
	// EventClose fires exactly once when the live session reaches the closed
	// state.
	EventClose EventType = "close"
)

// SpeechEvent is the payload of EventSpeech. Audio is base64-encoded; the raw
// bytes are returned through SpeechResult or the stream chunk instead.
type SpeechEvent struct {
	ResponseIndex    int    `json:"response_index"`
	Audio            string `json:"audio"`
	Text             string `json:"text"`
	InteractionCount int    `json:"interaction_count,omitempty"`
}

// Warning is the payload of EventWarning.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SessionMetadata is the payload of EventMetadata.
type SessionMetadata struct {
	RequestID string   `json:"request_id,omitempty"`
	Created   string   `json:"created,omitempty"`
	Duration  float64  `json:"duration,omitempty"`
	Channels  int      `json:"channels,omitempty"`
	Models    []string `json:"models,omitempty"`
}

// Event is the single message type delivered to registered handlers. Type
// selects which payload field is set; all others are zero.
type Event struct {
	Type EventType

	Speech        *SpeechEvent
	Transcription *TranscriptionResult
	Utterance     string
	UtteranceEnd  *UtteranceEndResult
	SpeechStarted *SpeechStartedResult
	Metadata      *SessionMetadata
	Warning       *Warning
	Err           error
}
