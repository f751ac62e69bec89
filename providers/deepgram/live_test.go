package deepgram

import (
	"context"
	"encoding/json"
	"testing"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"

	voiceai "github.com/ahmadhuzaifa/voice-ai"
	"github.com/ahmadhuzaifa/voice-ai/stt"
)

func TestNewLive_ConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LiveConfig
		wantErr bool
	}{
		{"valid", LiveConfig{APIKey: "key"}, false},
		{"missing api key", LiveConfig{}, true},
		{"unsupported encoding", LiveConfig{APIKey: "key", Encoding: "vorbis"}, true},
		{"negative sample rate", LiveConfig{APIKey: "key", SampleRate: -1}, true},
		{"too many channels", LiveConfig{APIKey: "key", Channels: 3}, true},
		{"negative utterance end", LiveConfig{APIKey: "key", UtteranceEndMs: -5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewLive(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected configuration error, got nil")
				}
				if !voiceai.IsCode(err, voiceai.ErrCodeConfiguration) {
					t.Errorf("Expected configuration code, got %q", voiceai.CodeOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if c.cfg.Model != "nova-2" || c.cfg.Encoding != "linear16" {
				t.Errorf("Expected defaults, got model %q encoding %q", c.cfg.Model, c.cfg.Encoding)
			}
			if c.cfg.SampleRate != 16000 || c.cfg.Channels != 1 || c.cfg.UtteranceEndMs != 1000 {
				t.Errorf("Expected audio defaults, got %d/%d/%d", c.cfg.SampleRate, c.cfg.Channels, c.cfg.UtteranceEndMs)
			}
			if c.ReadyState() != stt.StateConnecting {
				t.Errorf("Expected connecting state, got %v", c.ReadyState())
			}
		})
	}
}

func newHandlerFixture() (*liveHandler, *[]voiceai.Event) {
	em := voiceai.NewEmitter()
	var events []voiceai.Event
	for _, typ := range []voiceai.EventType{
		voiceai.EventOpen, voiceai.EventTranscription, voiceai.EventUtteranceEnd,
		voiceai.EventSpeechStarted, voiceai.EventMetadata, voiceai.EventError,
		voiceai.EventClose,
	} {
		em.On(typ, func(evt voiceai.Event) { events = append(events, evt) })
	}
	session := stt.NewSession(stt.SessionConfig{Provider: providerName}, em)
	return newLiveHandler(session), &events
}

func mustUnmarshal(t *testing.T, data string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(data), v); err != nil {
		t.Fatalf("Expected valid fixture, got %v", err)
	}
}

func TestLiveHandler_MessageMapping(t *testing.T) {
	h, events := newHandlerFixture()
	if err := h.Open(&msginterfaces.OpenResponse{}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var mr msginterfaces.MessageResponse
	mustUnmarshal(t, `{
		"type": "Results",
		"start": 0.5,
		"duration": 1.25,
		"is_final": true,
		"speech_final": true,
		"channel": {
			"alternatives": [{
				"transcript": "hello world",
				"confidence": 0.99,
				"words": [
					{"word": "hello", "start": 0.5, "end": 0.9, "confidence": 0.98, "punctuated_word": "Hello"},
					{"word": "world", "start": 1.0, "end": 1.6, "confidence": 0.97, "punctuated_word": "world."}
				]
			}]
		}
	}`, &mr)
	if err := h.Message(&mr); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := *events
	if len(got) != 2 {
		t.Fatalf("Expected open and transcription events, got %d", len(got))
	}
	if got[0].Type != voiceai.EventOpen {
		t.Errorf("Expected open first, got %q", got[0].Type)
	}
	r := got[1].Transcription
	if r == nil {
		t.Fatal("Expected transcription payload")
	}
	if r.Text != "hello world" {
		t.Errorf("Expected transcript %q, got %q", "hello world", r.Text)
	}
	if !r.IsFinal || !r.SpeechFinal {
		t.Error("Expected final flags to carry through")
	}
	if r.Confidence != 0.99 || r.Start != 0.5 || r.Duration != 1.25 {
		t.Errorf("Expected timing fields to carry through, got %+v", r)
	}
	if len(r.Words) != 2 {
		t.Fatalf("Expected 2 words, got %d", len(r.Words))
	}
	if r.Words[0].Word != "hello" || r.Words[0].PunctuatedWord != "Hello" {
		t.Errorf("Expected word mapping, got %+v", r.Words[0])
	}
	if r.Words[1].Start != 1.0 || r.Words[1].End != 1.6 {
		t.Errorf("Expected word timing mapping, got %+v", r.Words[1])
	}
}

func TestLiveHandler_EmptyMessageIgnored(t *testing.T) {
	h, events := newHandlerFixture()
	h.Open(&msginterfaces.OpenResponse{})
	before := len(*events)

	if err := h.Message(nil); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := h.Message(&msginterfaces.MessageResponse{}); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if len(*events) != before {
		t.Errorf("Expected empty results to be ignored, got %d new events", len(*events)-before)
	}
}

func TestLiveHandler_UtteranceEnd(t *testing.T) {
	h, events := newHandlerFixture()
	h.Open(&msginterfaces.OpenResponse{})

	var ue msginterfaces.UtteranceEndResponse
	mustUnmarshal(t, `{"type": "UtteranceEnd", "channel": [0], "last_word_end": 2.5}`, &ue)
	if err := h.UtteranceEnd(&ue); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := *events
	last := got[len(got)-1]
	if last.Type != voiceai.EventUtteranceEnd {
		t.Fatalf("Expected utterance end event, got %q", last.Type)
	}
	if last.UtteranceEnd.LastWordEnd != 2.5 {
		t.Errorf("Expected last word end 2.5, got %v", last.UtteranceEnd.LastWordEnd)
	}
}

func TestLiveHandler_SpeechStartedAndMetadata(t *testing.T) {
	h, events := newHandlerFixture()
	h.Open(&msginterfaces.OpenResponse{})

	var ss msginterfaces.SpeechStartedResponse
	mustUnmarshal(t, `{"type": "SpeechStarted", "channel": [0], "timestamp": 1.25}`, &ss)
	if err := h.SpeechStarted(&ss); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var md msginterfaces.MetadataResponse
	mustUnmarshal(t, `{"type": "Metadata", "request_id": "req-42", "created": "2024-01-01T00:00:00Z", "duration": 3.5, "channels": 1}`, &md)
	if err := h.Metadata(&md); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := *events
	if len(got) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(got))
	}
	if got[1].Type != voiceai.EventSpeechStarted || got[1].SpeechStarted.Timestamp != 1.25 {
		t.Errorf("Expected speech started mapping, got %+v", got[1])
	}
	if got[2].Type != voiceai.EventMetadata || got[2].Metadata.RequestID != "req-42" {
		t.Errorf("Expected metadata mapping, got %+v", got[2])
	}
	if got[2].Metadata.Duration != 3.5 || got[2].Metadata.Channels != 1 {
		t.Errorf("Expected metadata numbers, got %+v", got[2].Metadata)
	}
}

func TestLiveHandler_ErrorMapping(t *testing.T) {
	h, events := newHandlerFixture()
	h.Open(&msginterfaces.OpenResponse{})

	if err := h.Error(&msginterfaces.ErrorResponse{Description: "bad audio"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := h.Error(&msginterfaces.ErrorResponse{ErrMsg: "rate limited"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := *events
	if len(got) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(got))
	}
	first := got[1]
	if first.Type != voiceai.EventError || !voiceai.IsCode(first.Err, voiceai.ErrCodeUpstream) {
		t.Errorf("Expected upstream error event, got %+v", first)
	}
	if first.Err.Error() != "deepgram: bad audio" {
		t.Errorf("Expected description to win, got %q", first.Err.Error())
	}
	if got[2].Err.Error() != "deepgram: rate limited" {
		t.Errorf("Expected err_msg fallback, got %q", got[2].Err.Error())
	}
}

func TestLiveHandler_CloseEvent(t *testing.T) {
	h, events := newHandlerFixture()
	h.Open(&msginterfaces.OpenResponse{})

	h.Close(&msginterfaces.CloseResponse{})
	h.Close(&msginterfaces.CloseResponse{})

	closes := 0
	for _, evt := range *events {
		if evt.Type == voiceai.EventClose {
			closes++
		}
	}
	if closes != 1 {
		t.Errorf("Expected 1 close event, got %d", closes)
	}
}

func TestLiveClient_SendBeforeOpenIsNoOp(t *testing.T) {
	c, err := NewLive(LiveConfig{APIKey: "key"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	var errs []error
	c.On(voiceai.EventError, func(evt voiceai.Event) { errs = append(errs, evt.Err) })

	c.Send([]byte{0x00, 0x01})

	if len(errs) != 0 {
		t.Errorf("Expected silent no-op before open, got %d error events", len(errs))
	}
	if c.ReadyState() != stt.StateConnecting {
		t.Errorf("Expected connecting state, got %v", c.ReadyState())
	}
}

func TestLiveClient_CloseBeforeStart(t *testing.T) {
	c, err := NewLive(LiveConfig{APIKey: "key"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	closes := 0
	c.On(voiceai.EventClose, func(voiceai.Event) { closes++ })

	if err := c.Close(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Expected repeat close to be a no-op, got %v", err)
	}
	if closes != 1 {
		t.Errorf("Expected 1 close event, got %d", closes)
	}
	if c.ReadyState() != stt.StateClosed {
		t.Errorf("Expected closed state, got %v", c.ReadyState())
	}
}

func TestLiveClient_StartAfterCloseRefused(t *testing.T) {
	c, err := NewLive(LiveConfig{APIKey: "key"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	c.Close()

	err = c.Start(context.Background())
	if err == nil {
		t.Fatal("Expected validation error, got nil")
	}
	if !voiceai.IsCode(err, voiceai.ErrCodeValidation) {
		t.Errorf("Expected validation code, got %q", voiceai.CodeOf(err))
	}
}
