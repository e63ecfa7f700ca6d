package site

import (
	"time"

	"github.com/google/uuid"
)

// Outcome labels for the build report and state store.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Report summarizes one build run.
type Report struct {
	BuildID    string
	StartedAt  time.Time
	Duration   time.Duration
	FinalState State
	Outcome    string
	Signature  string

	Documents int // parsed content documents (including assets)
	Assets    int
	Emitted   int // files in the output tree
	Timings   map[string]time.Duration
}

func newReport() *Report {
	return &Report{
		BuildID:   uuid.NewString(),
		StartedAt: time.Now(),
		Timings:   make(map[string]time.Duration),
	}
}

func (r *Report) finish(state State, outcome string) {
	r.FinalState = state
	r.Outcome = outcome
	r.Duration = time.Since(r.StartedAt)
}
