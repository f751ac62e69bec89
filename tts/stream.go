package tts

import (
	"encoding/base64"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	voiceai "github.com/ahmadhuzaifa/voice-ai"
	"github.com/ahmadhuzaifa/voice-ai/internal/observability"
)

// Stream is the handle for one streaming synthesis operation: a lazy, finite,
// forward-only chunk sequence with an idempotent cancel. Chunks are sized by
// the transport boundary; the handle performs no re-chunking.
//
// Next is meant for a single consumer. Cancel may be called from any
// goroutine at any time, including concurrently with a pending Next and after
// the sequence has already ended.
type Stream struct {
	provider string
	emitter  *voiceai.Emitter
	req      *voiceai.SpeechRequest

	pull    func() ([]byte, error)
	release func()

	canceled    atomic.Bool
	releaseOnce sync.Once

	mu   sync.Mutex
	next int
	done bool
	err  error
}

// NewStream wires a vendor pull source into a canonical stream handle. pull
// returns one non-empty transport-sized chunk per call and io.EOF at the
// natural end of the stream, never both together. release frees the transport
// resource; it runs exactly once and must tolerate being the cause of a
// pending pull's failure.
func NewStream(provider string, em *voiceai.Emitter, req *voiceai.SpeechRequest, pull func() ([]byte, error), release func()) *Stream {
	return &Stream{
		provider: provider,
		emitter:  em,
		req:      req,
		pull:     pull,
		release:  release,
	}
}

// Next pulls one chunk and emits the matching speech event before returning
// it. It returns io.EOF after the natural end of the sequence and after
// Cancel. Once a transport failure terminates the stream, every later call
// returns that same error.
func (s *Stream) Next() (*voiceai.AudioChunk, error) {
	s.mu.Lock()
	if s.done {
		err := s.err
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	s.mu.Unlock()

	data, err := s.pull()
	if err != nil {
		if s.canceled.Load() || errors.Is(err, io.EOF) {
			s.finish(nil)
			return nil, io.EOF
		}
		terr := voiceai.NewTransportError(s.provider+": stream read failed", err)
		s.finish(terr)
		EmitError(s.provider, s.emitter, terr)
		return nil, terr
	}

	s.mu.Lock()
	if s.done {
		// Canceled while the pull was in flight; the chunk is dropped.
		err := s.err
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	idx := s.next
	s.next++
	s.mu.Unlock()

	s.emitter.Emit(voiceai.Event{Type: voiceai.EventSpeech, Speech: &voiceai.SpeechEvent{
		ResponseIndex:    idx,
		Audio:            base64.StdEncoding.EncodeToString(data),
		Text:             s.req.Text,
		InteractionCount: s.req.InteractionCount,
	}})
	observability.RecordStreamChunk(s.provider)
	return &voiceai.AudioChunk{AudioData: data, ResponseIndex: idx}, nil
}

// Cancel stops further pulls and releases the transport resource. The release
// runs at most once across Cancel calls and natural termination, and it has
// completed by the time Cancel returns. A pull blocked on the transport is
// abandoned: its read fails, and the sequence ends cleanly with io.EOF
// instead of surfacing that failure.
func (s *Stream) Cancel() {
	s.canceled.Store(true)
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	s.releaseOnce.Do(s.release)
}

func (s *Stream) finish(err error) {
	s.mu.Lock()
	s.done = true
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	s.releaseOnce.Do(s.release)
}
