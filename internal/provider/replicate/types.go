package replicate

import "studio/internal/domain"

// Prediction statuses reported by the Replicate API.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// PredictionInput is the fixed hyperparameter set sent with every
// generation. Only the prompt varies per job.
type PredictionInput struct {
	Prompt            string  `json:"prompt"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	NumOutputs        int     `json:"num_outputs"`
	Scheduler         string  `json:"scheduler"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
	PromptStrength    float64 `json:"prompt_strength"`
}

// Prediction is the provider's view of a generation: returned on creation
// with an id and a non-terminal status, and on status checks with output or
// error populated once settled.
type Prediction struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Output []string `json:"output"`
	Error  string   `json:"error"`
	Metrics struct {
		PredictTime float64 `json:"predict_time"`
	} `json:"metrics"`
}

// PredictTimeMS converts the provider's predict-time metric (seconds) to
// rounded milliseconds, nil when the provider did not report one.
func (p Prediction) PredictTimeMS() *int64 {
	if p.Metrics.PredictTime <= 0 {
		return nil
	}
	ms := int64(p.Metrics.PredictTime*1000 + 0.5)
	return &ms
}

// MapStatus translates the provider vocabulary into the job state machine's.
// Unrecognized values map to processing so a new provider state can never
// push a job into a wrong terminal state; callers log the raw value.
func MapStatus(providerStatus string) domain.JobStatus {
	switch providerStatus {
	case StatusSucceeded:
		return domain.JobStatusCompleted
	case StatusFailed, StatusCanceled:
		return domain.JobStatusFailed
	default:
		return domain.JobStatusProcessing
	}
}

// Recognized reports whether the provider status is part of the known
// vocabulary, letting callers flag drift without changing mapping behavior.
func Recognized(providerStatus string) bool {
	switch providerStatus {
	case StatusStarting, StatusProcessing, StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}
