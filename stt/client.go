// Package stt defines the live-transcription side of the provider contract
// and the session state machine every vendor adapter drives: ready-state
// tracking, the per-utterance accumulation buffer, and canonical event
// emission.
package stt

import (
	"context"

	voiceai "github.com/ahmadhuzaifa/voice-ai"
)

// ReadyState is the session lifecycle code: 0=connecting, 1=open, 2=closing,
// 3=closed. Closed is terminal.
type ReadyState int32

const (
	StateConnecting ReadyState = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s ReadyState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Client is the live transcription contract implemented by every STT vendor
// adapter.
type Client interface {
	// Start launches the vendor transport without blocking. The session is in
	// StateConnecting from construction; the open event fires once the
	// transport is established.
	Start(ctx context.Context) error

	// Send forwards one binary audio frame to the vendor. It is valid only
	// while the session is open; in any other state the call is a silent
	// no-op, so callers can stream without checking state on every frame.
	// Transport write failures are emitted as error events, not returned.
	Send(p []byte)

	// ReadyState reports the current lifecycle state.
	ReadyState() ReadyState

	// Close is valid from any state and idempotent: however many times it is
	// called and from whatever state, the session reaches StateClosed and
	// emits the close event exactly once.
	Close() error

	// On registers a handler for every occurrence of t.
	On(t voiceai.EventType, fn voiceai.Handler) voiceai.Subscription
	// Once registers a one-shot handler for t.
	Once(t voiceai.EventType, fn voiceai.Handler) voiceai.Subscription
	// Off removes a previously registered handler.
	Off(t voiceai.EventType, sub voiceai.Subscription)
}
