package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TTS metrics
	ttsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voiceai_tts_requests_total",
		Help: "Total number of synthesis requests",
	}, []string{"provider", "status"})

	ttsLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voiceai_tts_request_duration_seconds",
		Help:    "Whole-file synthesis latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	}, []string{"provider"})

	ttsStreamChunks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voiceai_tts_stream_chunks_total",
		Help: "Total audio chunks delivered by streaming synthesis",
	}, []string{"provider"})

	ttsPollAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voiceai_tts_poll_attempts_total",
		Help: "Total job-status poll attempts",
	}, []string{"provider"})

	// STT metrics
	sttSessionsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "voiceai_stt_sessions_active",
		Help: "Number of open live transcription sessions",
	}, []string{"provider"})

	sttSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voiceai_stt_sessions_total",
		Help: "Total live transcription sessions opened",
	}, []string{"provider"})

	sttEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voiceai_stt_events_total",
		Help: "Total canonical events emitted by live sessions",
	}, []string{"provider", "event"})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voiceai_errors_total",
		Help: "Total adapter errors by taxonomy code",
	}, []string{"provider", "code"})
)

// RecordTTSRequest records one synthesis request outcome and its latency.
func RecordTTSRequest(provider, status string, duration time.Duration) {
	ttsRequests.WithLabelValues(provider, status).Inc()
	ttsLatency.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordStreamChunk counts one delivered stream chunk.
func RecordStreamChunk(provider string) {
	ttsStreamChunks.WithLabelValues(provider).Inc()
}

// RecordPollAttempt counts one job-status poll.
func RecordPollAttempt(provider string) {
	ttsPollAttempts.WithLabelValues(provider).Inc()
}

// RecordSessionOpen marks a live session as open.
func RecordSessionOpen(provider string) {
	sttSessionsActive.WithLabelValues(provider).Inc()
	sttSessionsTotal.WithLabelValues(provider).Inc()
}

// RecordSessionClose marks a live session as closed.
func RecordSessionClose(provider string) {
	sttSessionsActive.WithLabelValues(provider).Dec()
}

// RecordSTTEvent counts one emitted canonical session event.
func RecordSTTEvent(provider, event string) {
	sttEvents.WithLabelValues(provider, event).Inc()
}

// RecordError counts one taxonomy error.
func RecordError(provider, code string) {
	errorsTotal.WithLabelValues(provider, code).Inc()
}
