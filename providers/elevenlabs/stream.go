package elevenlabs

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/websocket"

	voiceai "github.com/ahmadhuzaifa/voice-ai"
	"github.com/ahmadhuzaifa/voice-ai/tts"
)

// streamInput frames are what the client writes to the stream-input socket.
// The opening frame carries a single space plus voice settings, the text
// frame carries the request, and an empty text frame marks end of input.
type streamInput struct {
	Text                 string         `json:"text"`
	VoiceSettings        *voiceSettings `json:"voice_settings,omitempty"`
	TryTriggerGeneration bool           `json:"try_trigger_generation,omitempty"`
}

// streamOutput frames are what the server sends back: base64 audio until the
// final frame.
type streamOutput struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
}

// GenerateStream synthesizes the request over the stream-input WebSocket and
// returns a pull stream of audio chunks.
func (c *Client) GenerateStream(ctx context.Context, req *voiceai.SpeechRequest) (*tts.Stream, error) {
	if err := req.Validate(); err != nil {
		tts.EmitError(providerName, c.emitter, err)
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s/stream-input?model_id=%s&output_format=%s&optimize_streaming_latency=%d",
		c.cfg.WSBaseURL, c.cfg.VoiceID, c.cfg.ModelID, c.cfg.OutputFormat, c.cfg.OptimizeStreamingLatency)

	header := http.Header{}
	header.Set("xi-api-key", c.cfg.APIKey)
	conn, resp, err := c.dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		werr := voiceai.NewTransportError("dialing elevenlabs stream-input", err)
		tts.EmitError(providerName, c.emitter, werr)
		return nil, werr
	}

	// Prime the socket: settings, the full text, then end of input.
	frames := []streamInput{
		{Text: " ", VoiceSettings: &voiceSettings{Stability: c.cfg.Stability, SimilarityBoost: c.cfg.SimilarityBoost}},
		{Text: req.Text, TryTriggerGeneration: true},
		{Text: ""},
	}
	for _, frame := range frames {
		if err := conn.WriteJSON(frame); err != nil {
			conn.Close()
			werr := voiceai.NewTransportError("writing elevenlabs stream-input frame", err)
			tts.EmitError(providerName, c.emitter, werr)
			return nil, werr
		}
	}

	pull := func() ([]byte, error) {
		for {
			var frame streamOutput
			if err := conn.ReadJSON(&frame); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return nil, io.EOF
				}
				return nil, err
			}
			if frame.Audio != "" {
				audio, err := base64.StdEncoding.DecodeString(frame.Audio)
				if err != nil {
					return nil, fmt.Errorf("decoding audio frame: %w", err)
				}
				if len(audio) > 0 {
					return audio, nil
				}
			}
			if frame.IsFinal {
				return nil, io.EOF
			}
		}
	}
	release := func() {
		conn.Close()
	}
	return tts.NewStream(providerName, c.emitter, req, pull, release), nil
}
