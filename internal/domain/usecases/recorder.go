package usecases

import "time"

// Ingest results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Ask outcomes.
const (
	OutcomeAnswered       = "answered"
	OutcomeFallback       = "fallback"
	OutcomeNotInitialized = "not_initialized"
	OutcomeError          = "error"
)

// Recorder receives usecase measurements.
type Recorder interface {
	ObserveIngest(result string, chunks int)
	ObserveAsk(outcome string, took time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveIngest(string, int) {}
func (nopRecorder) ObserveAsk(string, time.Duration) {}
