package tts

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	voiceai "github.com/ahmadhuzaifa/voice-ai"
)

func TestStream_ChunksNumberFromZero(t *testing.T) {
	em := voiceai.NewEmitter()
	var events []*voiceai.SpeechEvent
	em.On(voiceai.EventSpeech, func(evt voiceai.Event) { events = append(events, evt.Speech) })

	chunks := [][]byte{[]byte("aa"), []byte("bb"), []byte("cc")}
	i := 0
	released := 0
	s := NewStream("test", em, &voiceai.SpeechRequest{Text: "hi"}, func() ([]byte, error) {
		if i >= len(chunks) {
			return nil, io.EOF
		}
		c := chunks[i]
		i++
		return c, nil
	}, func() { released++ })

	for want := 0; want < len(chunks); want++ {
		chunk, err := s.Next()
		if err != nil {
			t.Fatalf("Expected chunk %d, got error %v", want, err)
		}
		if chunk.ResponseIndex != want {
			t.Errorf("Expected index %d, got %d", want, chunk.ResponseIndex)
		}
		if string(chunk.AudioData) != string(chunks[want]) {
			t.Errorf("Expected chunk payload %q, got %q", chunks[want], chunk.AudioData)
		}
		if len(events) != want+1 {
			t.Errorf("Expected speech event before chunk %d was returned, got %d events", want, len(events))
		}
	}

	if _, err := s.Next(); err != io.EOF {
		t.Fatalf("Expected io.EOF at end of stream, got %v", err)
	}
	if _, err := s.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF to persist, got %v", err)
	}
	if released != 1 {
		t.Errorf("Expected release to run once, got %d", released)
	}
	for i, evt := range events {
		if evt.ResponseIndex != i {
			t.Errorf("Expected event index %d, got %d", i, evt.ResponseIndex)
		}
	}
}

func TestStream_TransportErrorPersists(t *testing.T) {
	em := voiceai.NewEmitter()
	var errs []error
	em.On(voiceai.EventError, func(evt voiceai.Event) { errs = append(errs, evt.Err) })

	boom := errors.New("connection reset")
	calls := 0
	released := 0
	s := NewStream("test", em, &voiceai.SpeechRequest{Text: "hi"}, func() ([]byte, error) {
		calls++
		if calls == 1 {
			return []byte("aa"), nil
		}
		return nil, boom
	}, func() { released++ })

	if _, err := s.Next(); err != nil {
		t.Fatalf("Expected first chunk, got error %v", err)
	}

	_, err := s.Next()
	if err == nil {
		t.Fatal("Expected transport error, got nil")
	}
	if !voiceai.IsCode(err, voiceai.ErrCodeTransport) {
		t.Errorf("Expected transport code, got %q", voiceai.CodeOf(err))
	}
	if !errors.Is(err, boom) {
		t.Error("Expected cause to be preserved")
	}

	_, again := s.Next()
	if again != err {
		t.Errorf("Expected the same error on later calls, got %v", again)
	}
	if len(errs) != 1 {
		t.Fatalf("Expected 1 error event, got %d", len(errs))
	}
	if errs[0] != err {
		t.Error("Expected emitted and returned errors to be the same value")
	}
	if released != 1 {
		t.Errorf("Expected release to run once, got %d", released)
	}
	if calls != 2 {
		t.Errorf("Expected no pulls after failure, got %d", calls)
	}
}

func TestStream_CancelEndsWithEOF(t *testing.T) {
	em := voiceai.NewEmitter()
	released := 0
	s := NewStream("test", em, &voiceai.SpeechRequest{Text: "hi"}, func() ([]byte, error) {
		return []byte("aa"), nil
	}, func() { released++ })

	if _, err := s.Next(); err != nil {
		t.Fatalf("Expected first chunk, got error %v", err)
	}

	s.Cancel()
	if released != 1 {
		t.Errorf("Expected release to have run by Cancel return, got %d", released)
	}
	if _, err := s.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF after cancel, got %v", err)
	}

	s.Cancel()
	if released != 1 {
		t.Errorf("Expected repeat cancel not to release again, got %d", released)
	}
}

func TestStream_CancelConcurrent(t *testing.T) {
	em := voiceai.NewEmitter()
	released := 0
	s := NewStream("test", em, &voiceai.SpeechRequest{Text: "hi"}, func() ([]byte, error) {
		return nil, io.EOF
	}, func() { released++ })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Cancel()
		}()
	}
	wg.Wait()

	if released != 1 {
		t.Errorf("Expected release to run once across concurrent cancels, got %d", released)
	}
}

func TestStream_CancelAbandonsPendingPull(t *testing.T) {
	em := voiceai.NewEmitter()
	var errs []error
	em.On(voiceai.EventError, func(evt voiceai.Event) { errs = append(errs, evt.Err) })

	unblock := make(chan struct{})
	s := NewStream("test", em, &voiceai.SpeechRequest{Text: "hi"}, func() ([]byte, error) {
		<-unblock
		return nil, errors.New("use of closed network connection")
	}, func() { close(unblock) })

	done := make(chan error, 1)
	go func() {
		_, err := s.Next()
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	s.Cancel()

	if err := <-done; err != io.EOF {
		t.Errorf("Expected io.EOF for pull failed by cancel, got %v", err)
	}
	if len(errs) != 0 {
		t.Errorf("Expected no error events, got %d", len(errs))
	}
}

func TestStream_CancelInFlightDropsChunk(t *testing.T) {
	em := voiceai.NewEmitter()
	var speech []*voiceai.SpeechEvent
	em.On(voiceai.EventSpeech, func(evt voiceai.Event) { speech = append(speech, evt.Speech) })

	entered := make(chan struct{})
	proceed := make(chan struct{})
	s := NewStream("test", em, &voiceai.SpeechRequest{Text: "hi"}, func() ([]byte, error) {
		close(entered)
		<-proceed
		return []byte("late"), nil
	}, func() {})

	var chunk *voiceai.AudioChunk
	var err error
	done := make(chan struct{})
	go func() {
		chunk, err = s.Next()
		close(done)
	}()

	<-entered
	s.Cancel()
	close(proceed)
	<-done

	if err != io.EOF {
		t.Errorf("Expected io.EOF for chunk pulled after cancel, got %v", err)
	}
	if chunk != nil {
		t.Errorf("Expected canceled chunk to be dropped, got %+v", chunk)
	}
	if len(speech) != 0 {
		t.Errorf("Expected no speech events, got %d", len(speech))
	}
}
