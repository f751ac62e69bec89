// Package restutil carries the HTTP plumbing shared by the REST-based vendor
// adapters: JSON request construction, response decoding, and the mapping
// from HTTP failures onto the library error taxonomy.
package restutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	voiceai "github.com/ahmadhuzaifa/voice-ai"
)

// maxErrorBody bounds how much of a failed response body is captured into the
// error message.
const maxErrorBody = 2048

// NewJSONRequest builds a request carrying a JSON-encoded payload.
func NewJSONRequest(ctx context.Context, method, url string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, voiceai.NewValidationError("encoding request payload", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, voiceai.NewValidationError("building request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Do issues the request and enforces a 2xx response. On success the response
// body is open and owned by the caller; on failure the body is consumed into
// the error and closed.
func Do(client *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, voiceai.NewTimeoutError("request timed out", err)
		}
		return nil, voiceai.NewTransportError("request failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp, nil
}

// DoJSON issues the request and decodes the JSON response into out.
func DoJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := Do(client, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return voiceai.NewUpstreamError("decoding response", err)
	}
	return nil
}

// DoBytes issues the request and drains the response body.
func DoBytes(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := Do(client, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, voiceai.NewTransportError("reading response body", err)
	}
	return data, nil
}

func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := fmt.Sprintf("upstream returned status %d", resp.StatusCode)
	if s := strings.TrimSpace(string(snippet)); s != "" {
		msg = fmt.Sprintf("%s: %s", msg, s)
	}
	return voiceai.NewUpstreamError(msg, nil)
}
