package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/metrics"
	"studio/internal/provider/replicate"
)

// Reconciler refreshes a job's stored state from the provider's current
// status. It is safe to invoke concurrently for the same job: the job
// store's guarded update serializes terminal transitions.
type Reconciler struct {
	jobs    domain.JobRepository
	gateway Gateway
	logger  zerolog.Logger
}

// NewReconciler wires a Reconciler.
func NewReconciler(jobs domain.JobRepository, gateway Gateway, logger zerolog.Logger) *Reconciler {
	return &Reconciler{jobs: jobs, gateway: gateway, logger: logger}
}

// Reconcile returns the job's current state, advancing it from the provider
// when still in flight. Terminal jobs are returned as stored without a
// provider call. Transient provider failures propagate without mutating the
// job; the caller retries.
func (r *Reconciler) Reconcile(ctx context.Context, jobID, userID string) (*domain.Job, error) {
	job, err := r.jobs.GetByOwner(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return job, nil
	}
	if job.ExternalID == "" {
		// Accepted but the provider reference never landed; nothing to
		// poll yet.
		return job, nil
	}

	pred, err := r.gateway.GetPrediction(ctx, job.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("poll prediction %s: %w", job.ExternalID, err)
	}
	metrics.ReconcilePolls.Inc()

	if !replicate.Recognized(pred.Status) {
		r.logger.Warn().
			Str("job_id", job.ID).
			Str("provider_status", pred.Status).
			Msg("unrecognized provider status, treating as processing")
	}

	switch replicate.MapStatus(pred.Status) {
	case domain.JobStatusCompleted:
		if len(pred.Output) == 0 || pred.Output[0] == "" {
			// Succeeded without output cannot satisfy the completed
			// invariant; keep polling until the provider reports it.
			r.logger.Warn().Str("job_id", job.ID).Msg("provider succeeded without output")
			return job, nil
		}
		return r.finalize(ctx, job.ID, domain.TerminalUpdate{
			Status:           domain.JobStatusCompleted,
			ResultURL:        pred.Output[0],
			ProcessingTimeMS: pred.PredictTimeMS(),
		})
	case domain.JobStatusFailed:
		msg := pred.Error
		if msg == "" {
			msg = "Generation failed"
		}
		return r.finalize(ctx, job.ID, domain.TerminalUpdate{
			Status:           domain.JobStatusFailed,
			ErrorMessage:     msg,
			ProcessingTimeMS: pred.PredictTimeMS(),
		})
	default:
		return job, nil
	}
}

func (r *Reconciler) finalize(ctx context.Context, jobID string, update domain.TerminalUpdate) (*domain.Job, error) {
	job, won, err := r.jobs.Finalize(ctx, jobID, update)
	if err != nil {
		return nil, fmt.Errorf("finalize job %s: %w", jobID, err)
	}
	if won {
		metrics.JobsFinalized.WithLabelValues(string(update.Status)).Inc()
	} else {
		// A concurrent reconciliation got there first; its stored result
		// wins and ours is discarded.
		r.logger.Debug().Str("job_id", jobID).Msg("job already finalized by concurrent reconciliation")
	}
	return job, nil
}
