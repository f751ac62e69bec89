// Package tts defines the synthesis side of the provider contract and the
// engine plumbing every vendor adapter shares: request validation, event
// emission, the bounded poll loop for job-style vendors, and the pull-based
// stream handle.
package tts

import (
	"context"

	voiceai "github.com/ahmadhuzaifa/voice-ai"
)

// Capabilities reports what a constructed adapter instance supports, so
// callers fail fast instead of discovering a missing capability on first use.
type Capabilities struct {
	// Streaming is true when GenerateStream is backed by a vendor stream.
	Streaming bool
}

// Client is the synthesis contract implemented by every TTS vendor adapter.
// Implementations are safe for concurrent calls; independent operations on
// one adapter carry no ordering guarantee relative to each other.
type Client interface {
	// Generate performs exactly one logical whole-file synthesis operation,
	// regardless of how many vendor round trips that takes. It emits one
	// speech event on success or one error event on failure, never both, and
	// the returned error always matches the emitted one.
	Generate(ctx context.Context, req *voiceai.SpeechRequest) (*voiceai.SpeechResult, error)

	// GenerateStream starts a streaming synthesis operation and returns its
	// handle. Vendors without streaming support (Capabilities().Streaming ==
	// false) fail with a ValidationError and perform no I/O.
	GenerateStream(ctx context.Context, req *voiceai.SpeechRequest) (*Stream, error)

	// Capabilities is fixed at construction for the adapter instance.
	Capabilities() Capabilities

	// On registers a handler for every occurrence of t.
	On(t voiceai.EventType, fn voiceai.Handler) voiceai.Subscription
	// Once registers a one-shot handler for t.
	Once(t voiceai.EventType, fn voiceai.Handler) voiceai.Subscription
	// Off removes a previously registered handler.
	Off(t voiceai.EventType, sub voiceai.Subscription)
}
