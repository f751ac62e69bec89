// Package config loads library configuration from the environment and builds
// vendor adapter configs from it. Credentials stay in env vars; a .env file
// is honored when present.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/ahmadhuzaifa/voice-ai/providers/cartesia"
	"github.com/ahmadhuzaifa/voice-ai/providers/deepgram"
	"github.com/ahmadhuzaifa/voice-ai/providers/elevenlabs"
	"github.com/ahmadhuzaifa/voice-ai/providers/playht"
)

// Config holds every tunable the library reads from the environment. Vendor
// keys are optional here: each adapter enforces its own required credentials
// at construction, so a deployment only sets the vendors it uses.
type Config struct {
	// Observability configuration
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`   // Log level: debug, info, warn, error
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"false"` // Pretty print logs (for development)

	// ElevenLabs TTS configuration
	ElevenLabsAPIKey          string  `envconfig:"ELEVENLABS_API_KEY"`
	ElevenLabsVoiceID         string  `envconfig:"ELEVENLABS_VOICE_ID" default:""`
	ElevenLabsModelID         string  `envconfig:"ELEVENLABS_MODEL_ID" default:""`
	ElevenLabsStability       float64 `envconfig:"ELEVENLABS_STABILITY" default:"0"`
	ElevenLabsSimilarityBoost float64 `envconfig:"ELEVENLABS_SIMILARITY_BOOST" default:"0"`
	ElevenLabsOutputFormat    string  `envconfig:"ELEVENLABS_OUTPUT_FORMAT" default:""`

	// Deepgram STT + Aura TTS configuration
	DeepgramAPIKey         string `envconfig:"DEEPGRAM_API_KEY"`
	DeepgramModel          string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"` // nova-2, enhanced, base
	DeepgramLanguage       string `envconfig:"DEEPGRAM_LANGUAGE" default:"en"`  // Language code (en, es, fr, etc.)
	DeepgramEncoding       string `envconfig:"DEEPGRAM_ENCODING" default:"linear16"`
	DeepgramSampleRate     int    `envconfig:"DEEPGRAM_SAMPLE_RATE" default:"16000"`
	DeepgramChannels       int    `envconfig:"DEEPGRAM_CHANNELS" default:"1"`
	DeepgramUtteranceEndMs int    `envconfig:"DEEPGRAM_UTTERANCE_END_MS" default:"1000"` // Silence before UtteranceEnd fires
	DeepgramPunctuate      bool   `envconfig:"DEEPGRAM_PUNCTUATE" default:"true"`
	DeepgramSmartFormat    bool   `envconfig:"DEEPGRAM_SMART_FORMAT" default:"false"`
	DeepgramVadEvents      bool   `envconfig:"DEEPGRAM_VAD_EVENTS" default:"true"`
	DeepgramSpeakModel     string `envconfig:"DEEPGRAM_SPEAK_MODEL" default:"aura-asteria-en"`

	// Cartesia TTS + STT configuration
	CartesiaAPIKey     string `envconfig:"CARTESIA_API_KEY"`
	CartesiaVoiceID    string `envconfig:"CARTESIA_VOICE_ID" default:""`
	CartesiaModelID    string `envconfig:"CARTESIA_MODEL_ID" default:""` // sonic-english, sonic-multilingual
	CartesiaSampleRate int    `envconfig:"CARTESIA_SAMPLE_RATE" default:"44100"`
	CartesiaLiveModel  string `envconfig:"CARTESIA_LIVE_MODEL" default:"ink-whisper"`

	// PlayHT TTS configuration
	PlayHTAPIKey          string `envconfig:"PLAYHT_API_KEY"`
	PlayHTUserID          string `envconfig:"PLAYHT_USER_ID"`
	PlayHTVoice           string `envconfig:"PLAYHT_VOICE" default:""`
	PlayHTPollIntervalMs  int    `envconfig:"PLAYHT_POLL_INTERVAL_MS" default:"500"`
	PlayHTMaxPollAttempts int    `envconfig:"PLAYHT_MAX_POLL_ATTEMPTS" default:"40"`
}

// Load reads configuration from environment variables. It first attempts to
// load a .env file if one exists, then reads the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration directly from environment variables without
// attempting to load a .env file (useful for containerized deployments).
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// ElevenLabs builds the ElevenLabs adapter config.
func (c *Config) ElevenLabs() elevenlabs.Config {
	return elevenlabs.Config{
		APIKey:          c.ElevenLabsAPIKey,
		VoiceID:         c.ElevenLabsVoiceID,
		ModelID:         c.ElevenLabsModelID,
		Stability:       c.ElevenLabsStability,
		SimilarityBoost: c.ElevenLabsSimilarityBoost,
		OutputFormat:    c.ElevenLabsOutputFormat,
	}
}

// DeepgramLive builds the Deepgram live transcription config.
func (c *Config) DeepgramLive() deepgram.LiveConfig {
	return deepgram.LiveConfig{
		APIKey:         c.DeepgramAPIKey,
		Model:          c.DeepgramModel,
		Language:       c.DeepgramLanguage,
		Punctuate:      c.DeepgramPunctuate,
		SmartFormat:    c.DeepgramSmartFormat,
		Encoding:       c.DeepgramEncoding,
		SampleRate:     c.DeepgramSampleRate,
		Channels:       c.DeepgramChannels,
		UtteranceEndMs: c.DeepgramUtteranceEndMs,
		VadEvents:      c.DeepgramVadEvents,
	}
}

// DeepgramSpeak builds the Deepgram Aura TTS config.
func (c *Config) DeepgramSpeak() deepgram.SpeakConfig {
	return deepgram.SpeakConfig{
		APIKey: c.DeepgramAPIKey,
		Model:  c.DeepgramSpeakModel,
	}
}

// Cartesia builds the Cartesia TTS config.
func (c *Config) Cartesia() cartesia.Config {
	return cartesia.Config{
		APIKey:     c.CartesiaAPIKey,
		VoiceID:    c.CartesiaVoiceID,
		ModelID:    c.CartesiaModelID,
		SampleRate: c.CartesiaSampleRate,
	}
}

// CartesiaLive builds the Cartesia live transcription config.
func (c *Config) CartesiaLive() cartesia.LiveConfig {
	return cartesia.LiveConfig{
		APIKey: c.CartesiaAPIKey,
		Model:  c.CartesiaLiveModel,
	}
}

// PlayHT builds the PlayHT TTS config.
func (c *Config) PlayHT() playht.Config {
	return playht.Config{
		APIKey:          c.PlayHTAPIKey,
		UserID:          c.PlayHTUserID,
		Voice:           c.PlayHTVoice,
		PollInterval:    time.Duration(c.PlayHTPollIntervalMs) * time.Millisecond,
		MaxPollAttempts: c.PlayHTMaxPollAttempts,
	}
}
