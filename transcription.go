package voiceai

// TranscriptionWord is one recognized word with vendor timing.
type TranscriptionWord struct {
	Word string `json:"word"`
	// Start and End are offsets in seconds from the session start.
	// Start <= End when both are reported.
	Start      float64 `json:"start"`
	End        float64 `json:"end,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	// PunctuatedWord is the formatted form when the vendor provides one.
	PunctuatedWord string `json:"punctuated_word,omitempty"`
}

// TranscriptionMetadata is per-result vendor bookkeeping.
type TranscriptionMetadata struct {
	RequestID    string `json:"request_id,omitempty"`
	ModelVersion string `json:"model_version,omitempty"`
	Created      string `json:"created,omitempty"`
}

// TranscriptionResult is one canonical transcription event payload.
//
// IsFinal means this particular result will not be revised. SpeechFinal means
// the whole utterance has ended; per utterance at most one result carries
// SpeechFinal=true, and every interim or non-final result for that utterance
// is emitted strictly before it. The terminal result's Text is the full
// accumulated utterance text.
type TranscriptionResult struct {
	Text        string                 `json:"text"`
	IsFinal     bool                   `json:"is_final"`
	SpeechFinal bool                   `json:"speech_final,omitempty"`
	Confidence  float64                `json:"confidence,omitempty"`
	Start       float64                `json:"start,omitempty"`
	Duration    float64                `json:"duration,omitempty"`
	Words       []TranscriptionWord    `json:"words,omitempty"`
	Metadata    *TranscriptionMetadata `json:"metadata,omitempty"`
}

// UtteranceEndResult is the payload of EventUtteranceEnd.
type UtteranceEndResult struct {
	// LastWordEnd is the end offset in seconds of the last word heard before
	// the silence that closed the utterance.
	LastWordEnd float64 `json:"last_word_end"`
	Channel     []int   `json:"channel,omitempty"`
}

// SpeechStartedResult is the payload of EventSpeechStarted.
type SpeechStartedResult struct {
	Timestamp float64 `json:"timestamp,omitempty"`
	Channel   []int   `json:"channel,omitempty"`
}
