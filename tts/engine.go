package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	voiceai "github.com/ahmadhuzaifa/voice-ai"
	"github.com/ahmadhuzaifa/voice-ai/internal/observability"
)

// Generate runs one whole-file synthesis operation with the shared contract
// semantics: validate the request, run the vendor operation, emit exactly one
// speech event on success or one error event on failure, and return. The
// emitted error and the returned error are the same value.
//
// The result's Metadata.Text and Metadata.ResponseIndex are stamped from the
// request so every adapter upholds the echo invariant.
func Generate(ctx context.Context, provider string, em *voiceai.Emitter, req *voiceai.SpeechRequest, op func(context.Context) (*voiceai.SpeechResult, error)) (*voiceai.SpeechResult, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		EmitError(provider, em, err)
		observability.RecordTTSRequest(provider, "error", time.Since(start))
		return nil, err
	}

	res, err := op(ctx)
	if err != nil {
		EmitError(provider, em, err)
		observability.RecordTTSRequest(provider, "error", time.Since(start))
		return nil, err
	}

	res.Metadata.Text = req.Text
	res.Metadata.ResponseIndex = req.ResponseIndex

	idx := 0
	if req.ResponseIndex != nil {
		idx = *req.ResponseIndex
	}
	em.Emit(voiceai.Event{Type: voiceai.EventSpeech, Speech: &voiceai.SpeechEvent{
		ResponseIndex:    idx,
		Audio:            base64.StdEncoding.EncodeToString(res.AudioData),
		Text:             req.Text,
		InteractionCount: req.InteractionCount,
	}})
	observability.RecordTTSRequest(provider, "success", time.Since(start))
	return res, nil
}

// EmitError emits err as an error event and counts it. Adapters call this for
// stream-start failures; Generate and Stream call it internally.
func EmitError(provider string, em *voiceai.Emitter, err error) {
	em.Emit(voiceai.Event{Type: voiceai.EventError, Err: err})
	observability.RecordError(provider, string(voiceai.CodeOf(err)))
}

// PollConfig bounds the job-status loop for poll-and-download vendors.
type PollConfig struct {
	// Interval is the fixed delay between consecutive polls.
	Interval time.Duration
	// MaxAttempts caps how many times check runs before the loop gives up.
	MaxAttempts int
}

// Poll invokes check at a fixed interval until it reports done, fails, the
// attempt bound is exhausted, or ctx is canceled. Bound exhaustion maps to a
// TimeoutError; after it no further poll is issued. This is the only retry
// loop in the library; every other failure surfaces immediately.
func Poll(ctx context.Context, provider string, cfg PollConfig, check func(context.Context) (bool, error)) error {
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		observability.RecordPollAttempt(provider)
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if attempt == cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return voiceai.NewTransportError(provider+": synthesis poll canceled", ctx.Err())
		case <-time.After(cfg.Interval):
		}
	}
	return voiceai.NewTimeoutError(fmt.Sprintf("%s: job did not complete within %d poll attempts", provider, cfg.MaxAttempts), nil)
}
