// Package voiceai defines the vendor-neutral contract shared by all voice AI
// provider adapters: the event taxonomy, the canonical request/result records,
// the typed error codes, and the per-adapter observer registry.
//
// Synthesis and transcription engines live in the tts and stt packages; vendor
// adapters live under providers. Everything they emit or return is expressed in
// the types of this package, so callers can swap vendors without touching their
// event handling.
package voiceai
