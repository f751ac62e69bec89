package restutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	voiceai "github.com/ahmadhuzaifa/voice-ai"
)

func TestNewJSONRequest(t *testing.T) {
	req, err := NewJSONRequest(context.Background(), http.MethodPost, "http://example.com/v1/x",
		map[string]string{"text": "hello"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Expected JSON content type, got %q", got)
	}
	body, _ := io.ReadAll(req.Body)
	if string(body) != `{"text":"hello"}` {
		t.Errorf("Expected encoded payload, got %q", body)
	}
}

func TestNewJSONRequest_UnencodablePayload(t *testing.T) {
	_, err := NewJSONRequest(context.Background(), http.MethodPost, "http://example.com", make(chan int))
	if err == nil {
		t.Fatal("Expected validation error, got nil")
	}
	if !voiceai.IsCode(err, voiceai.ErrCodeValidation) {
		t.Errorf("Expected validation code, got %q", voiceai.CodeOf(err))
	}
}

func TestDo_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"voice not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	_, err := Do(srv.Client(), req)
	if err == nil {
		t.Fatal("Expected upstream error, got nil")
	}
	if !voiceai.IsCode(err, voiceai.ErrCodeUpstream) {
		t.Errorf("Expected upstream code, got %q", voiceai.CodeOf(err))
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected status in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "voice not found") {
		t.Errorf("Expected body snippet in message, got %q", err.Error())
	}
}

func TestDo_DeadlineMapsToTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)

	_, err := Do(srv.Client(), req)
	if err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
	if !voiceai.IsCode(err, voiceai.ErrCodeTimeout) {
		t.Errorf("Expected timeout code, got %q", voiceai.CodeOf(err))
	}
}

func TestDo_ConnectFailureMapsToTransport(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://127.0.0.1:1", nil)
	_, err := Do(http.DefaultClient, req)
	if err == nil {
		t.Fatal("Expected transport error, got nil")
	}
	if !voiceai.IsCode(err, voiceai.ErrCodeTransport) {
		t.Errorf("Expected transport code, got %q", voiceai.CodeOf(err))
	}
}

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id": "abc", "count": 2}`)
	}))
	defer srv.Close()

	var out struct {
		ID    string `json:"id"`
		Count int    `json:"count"`
	}
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err := DoJSON(srv.Client(), req, &out); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if out.ID != "abc" || out.Count != 2 {
		t.Errorf("Expected decoded response, got %+v", out)
	}
}

func TestDoJSON_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id": `)
	}))
	defer srv.Close()

	var out map[string]string
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	err := DoJSON(srv.Client(), req, &out)
	if err == nil {
		t.Fatal("Expected upstream error, got nil")
	}
	if !voiceai.IsCode(err, voiceai.ErrCodeUpstream) {
		t.Errorf("Expected upstream code, got %q", voiceai.CodeOf(err))
	}
}

func TestDoBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0x01, 0x02, 0x03})
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	data, err := DoBytes(srv.Client(), req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(data) != 3 || data[0] != 0x01 {
		t.Errorf("Expected body bytes, got %v", data)
	}
}
