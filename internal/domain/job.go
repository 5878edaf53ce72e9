package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions are permitted out of s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job encapsulates the lifecycle of one generation request.
type Job struct {
	ID             string
	UserID         string
	Prompt         string
	EnrichedPrompt string
	Params         GenerationParams
	ExternalID     string
	Status         JobStatus
	ResultURL      string
	ErrorMessage   string
	// ProcessingTimeMS is the provider-reported predict time, present only
	// when the provider exposed it on a terminal observation.
	ProcessingTimeMS *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TerminalUpdate carries the fields a reconciler may write when moving a job
// out of processing. Status must be terminal.
type TerminalUpdate struct {
	Status           JobStatus
	ResultURL        string
	ErrorMessage     string
	ProcessingTimeMS *int64
}
