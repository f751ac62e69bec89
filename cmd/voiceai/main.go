// Command voiceai exercises the library against live vendors: synthesize to a
// file, stream synthesis chunk by chunk, or pipe raw audio through a live
// transcription session.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	voiceai "github.com/ahmadhuzaifa/voice-ai"
	"github.com/ahmadhuzaifa/voice-ai/config"
	"github.com/ahmadhuzaifa/voice-ai/internal/observability"
	"github.com/ahmadhuzaifa/voice-ai/providers/cartesia"
	"github.com/ahmadhuzaifa/voice-ai/providers/deepgram"
	"github.com/ahmadhuzaifa/voice-ai/providers/elevenlabs"
	"github.com/ahmadhuzaifa/voice-ai/providers/playht"
	"github.com/ahmadhuzaifa/voice-ai/stt"
	"github.com/ahmadhuzaifa/voice-ai/tts"
)

const usage = `Usage: voiceai <command> [flags]

Commands:
  speak       synthesize text to an audio file in a single call
  stream      synthesize text to an audio file chunk by chunk
  transcribe  pipe a raw audio file through a live transcription session

Vendor credentials are read from the environment (see config package).
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before the logger is initialized.
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "speak":
		err = runSpeak(cfg, logger, os.Args[2:])
	case "stream":
		err = runStream(cfg, logger, os.Args[2:])
	case "transcribe":
		err = runTranscribe(cfg, logger, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("command", os.Args[1]).Msg("Command failed")
	}
}

func ttsClientFor(provider string, cfg *config.Config) (tts.Client, error) {
	switch provider {
	case "elevenlabs":
		return elevenlabs.New(cfg.ElevenLabs())
	case "deepgram":
		return deepgram.NewSpeak(cfg.DeepgramSpeak())
	case "cartesia":
		return cartesia.New(cfg.Cartesia())
	case "playht":
		return playht.New(cfg.PlayHT())
	default:
		return nil, fmt.Errorf("unknown tts provider %q", provider)
	}
}

func sttClientFor(provider string, cfg *config.Config) (stt.Client, error) {
	switch provider {
	case "deepgram":
		return deepgram.NewLive(cfg.DeepgramLive())
	case "cartesia":
		return cartesia.NewLive(cfg.CartesiaLive())
	default:
		return nil, fmt.Errorf("unknown stt provider %q", provider)
	}
}

func runSpeak(cfg *config.Config, logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("speak", flag.ExitOnError)
	provider := fs.String("provider", "elevenlabs", "tts vendor: elevenlabs, deepgram, cartesia, playht")
	text := fs.String("text", "", "text to synthesize")
	out := fs.String("out", "speech.audio", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := ttsClientFor(*provider, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := client.Generate(ctx, &voiceai.SpeechRequest{Text: *text})
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, res.AudioData, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	logger.Info().
		Str("provider", *provider).
		Str("format", res.Metadata.Format).
		Int("bytes", len(res.AudioData)).
		Str("file", *out).
		Msg("Synthesis complete")
	return nil
}

func runStream(cfg *config.Config, logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("stream", flag.ExitOnError)
	provider := fs.String("provider", "elevenlabs", "tts vendor: elevenlabs, deepgram, cartesia")
	text := fs.String("text", "", "text to synthesize")
	out := fs.String("out", "speech.audio", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := ttsClientFor(*provider, cfg)
	if err != nil {
		return err
	}
	if !client.Capabilities().Streaming {
		return fmt.Errorf("provider %q does not support streaming synthesis", *provider)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	stream, err := client.GenerateStream(ctx, &voiceai.SpeechRequest{Text: *text})
	if err != nil {
		return err
	}
	defer stream.Cancel()

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *out, err)
	}
	defer f.Close()

	var chunks, total int
	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if _, err := f.Write(chunk.AudioData); err != nil {
			return fmt.Errorf("writing %s: %w", *out, err)
		}
		chunks++
		total += len(chunk.AudioData)
	}
	logger.Info().
		Str("provider", *provider).
		Int("chunks", chunks).
		Int("bytes", total).
		Str("file", *out).
		Msg("Streaming synthesis complete")
	return nil
}

func runTranscribe(cfg *config.Config, logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("transcribe", flag.ExitOnError)
	provider := fs.String("provider", "deepgram", "stt vendor: deepgram, cartesia")
	in := fs.String("in", "-", "raw audio file, or - for stdin")
	frameBytes := fs.Int("frame-bytes", 3200, "audio bytes per frame")
	frameInterval := fs.Duration("frame-interval", 100*time.Millisecond, "delay between frames")
	drain := fs.Duration("drain", 3*time.Second, "wait for trailing results before closing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := sttClientFor(*provider, cfg)
	if err != nil {
		return err
	}

	var input io.Reader = os.Stdin
	if *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			return fmt.Errorf("opening %s: %w", *in, err)
		}
		defer f.Close()
		input = f
	}

	opened := make(chan struct{})
	closed := make(chan struct{})
	client.Once(voiceai.EventOpen, func(voiceai.Event) { close(opened) })
	client.Once(voiceai.EventClose, func(voiceai.Event) { close(closed) })
	client.On(voiceai.EventTranscription, func(e voiceai.Event) {
		tr := e.Transcription
		switch {
		case tr.SpeechFinal:
			fmt.Printf("utterance: %s\n", tr.Text)
		case tr.IsFinal:
			fmt.Printf("final:     %s\n", tr.Text)
		default:
			fmt.Printf("interim:   %s\n", tr.Text)
		}
	})
	client.On(voiceai.EventUtterance, func(e voiceai.Event) {
		fmt.Printf("interim:   %s\n", e.Utterance)
	})
	client.On(voiceai.EventUtteranceEnd, func(voiceai.Event) {
		fmt.Println("-- utterance end --")
	})
	client.On(voiceai.EventError, func(e voiceai.Event) {
		logger.Error().Err(e.Err).Msg("Session error")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := client.Start(ctx); err != nil {
		return err
	}

	select {
	case <-opened:
	case <-closed:
		return fmt.Errorf("session closed before opening")
	case <-time.After(10 * time.Second):
		_ = client.Close()
		return fmt.Errorf("timed out waiting for session open")
	}
	logger.Info().Str("provider", *provider).Msg("Session open, sending audio")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	buf := make([]byte, *frameBytes)
send:
	for {
		select {
		case <-quit:
			logger.Info().Msg("Interrupted, closing session")
			break send
		case <-closed:
			break send
		default:
		}
		n, err := input.Read(buf)
		if n > 0 {
			frame := make([]byte, n)
			copy(frame, buf[:n])
			client.Send(frame)
			time.Sleep(*frameInterval)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Error().Err(err).Msg("Reading input failed")
			}
			break send
		}
	}

	// Give the vendor a moment to flush trailing results.
	select {
	case <-closed:
	case <-time.After(*drain):
	}
	if err := client.Close(); err != nil {
		return err
	}
	logger.Info().Msg("Session closed")
	return nil
}
