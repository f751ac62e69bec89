package voiceai

import "strings"

// SpeechRequest asks a TTS adapter to synthesize one piece of text.
type SpeechRequest struct {
	// Text to synthesize. Required, non-empty.
	Text string `json:"text"`
	// ResponseIndex is an optional non-negative ordering tag for
	// multi-utterance pipelines. It tags the whole request; stream chunks
	// number themselves independently.
	ResponseIndex *int `json:"response_index,omitempty"`
	// InteractionCount is an opaque caller counter, passed through unchanged.
	InteractionCount int `json:"interaction_count,omitempty"`
}

// Validate checks the request preconditions. It returns a ValidationError
// before any I/O is attempted.
func (r *SpeechRequest) Validate() error {
	if r == nil || strings.TrimSpace(r.Text) == "" {
		return NewValidationError("speech request requires non-empty text", nil)
	}
	if r.ResponseIndex != nil && *r.ResponseIndex < 0 {
		return NewValidationError("speech request response index must be non-negative", nil)
	}
	return nil
}

// SpeechMetadata describes a synthesis result.
type SpeechMetadata struct {
	// Text echoes the request text.
	Text string `json:"text"`
	// Format is a MIME-like description of the audio payload.
	Format string `json:"format"`
	// Duration of the audio in seconds, 0 when the vendor does not report it.
	Duration float64 `json:"duration,omitempty"`
	// ResponseIndex echoes the request's tag when present.
	ResponseIndex *int `json:"response_index,omitempty"`
}

// SpeechResult is the whole-file synthesis outcome. AudioData is owned by the
// caller on return; the adapter keeps no reference.
type SpeechResult struct {
	AudioData []byte         `json:"audio_data"`
	Metadata  SpeechMetadata `json:"metadata"`
}

// AudioChunk is one unit of streamed audio, sized by the transport boundary.
// ResponseIndex is zero-based and increments by exactly one per chunk within
// a single stream handle.
type AudioChunk struct {
	AudioData     []byte `json:"audio_data"`
	ResponseIndex int    `json:"response_index"`
}
