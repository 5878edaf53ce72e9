package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/metrics"
	"studio/internal/provider/replicate"
)

// DefaultJobCost is the fixed per-job price in credits.
const DefaultJobCost = 5

// Gateway is the slice of the provider the services depend on.
type Gateway interface {
	CreatePrediction(ctx context.Context, prompt string) (*replicate.Prediction, error)
	GetPrediction(ctx context.Context, id string) (*replicate.Prediction, error)
}

// SubmitRequest carries one generation request from an authenticated user.
type SubmitRequest struct {
	UserID string
	Prompt string
	Params domain.GenerationParams
}

// SubmitResult is returned on an accepted (or provider-rejected) submission.
type SubmitResult struct {
	JobID      string
	ExternalID string
	Status     domain.JobStatus
}

// Submission validates a request, persists the job, invokes the provider and
// debits the job cost from the ledger.
type Submission struct {
	jobs    domain.JobRepository
	ledger  domain.LedgerRepository
	gateway Gateway
	logger  zerolog.Logger
	jobCost int64
}

// NewSubmission wires a Submission. A non-positive jobCost falls back to
// DefaultJobCost.
func NewSubmission(jobs domain.JobRepository, ledger domain.LedgerRepository, gateway Gateway, logger zerolog.Logger, jobCost int64) *Submission {
	if jobCost <= 0 {
		jobCost = DefaultJobCost
	}
	return &Submission{jobs: jobs, ledger: ledger, gateway: gateway, logger: logger, jobCost: jobCost}
}

// Submit accepts a generation request. On provider rejection the job is
// finalized as failed and no debit occurs; the caller still receives the job
// id with the failed status. A ledger failure after provider acceptance is
// logged and does not roll the job back.
func (s *Submission) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt must not be empty", domain.ErrValidation)
	}
	req.Params.Normalize()
	if err := req.Params.Validate(); err != nil {
		return nil, err
	}

	// Reject up front when the balance cannot cover the job. The ledger
	// re-checks under its per-user lock at debit time, so a concurrent
	// submission cannot slip the balance negative through this read.
	balance, err := s.ledger.Balance(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}
	if balance < s.jobCost {
		return nil, fmt.Errorf("%w: balance %d below job cost %d", domain.ErrInsufficientCredits, balance, s.jobCost)
	}

	job := &domain.Job{
		ID:             uuid.NewString(),
		UserID:         req.UserID,
		Prompt:         req.Prompt,
		EnrichedPrompt: domain.EnrichPrompt(req.Prompt, req.Params),
		Params:         req.Params,
		Status:         domain.JobStatusProcessing,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	metrics.JobsSubmitted.Inc()

	pred, err := s.gateway.CreatePrediction(ctx, job.EnrichedPrompt)
	if err != nil {
		// A job that never reached the provider is free: finalize as
		// failed, skip the debit.
		_, _, finErr := s.jobs.Finalize(ctx, job.ID, domain.TerminalUpdate{
			Status:       domain.JobStatusFailed,
			ErrorMessage: err.Error(),
		})
		if finErr != nil {
			s.logger.Error().Err(finErr).Str("job_id", job.ID).Msg("failed to finalize rejected job")
		}
		metrics.JobsFinalized.WithLabelValues(string(domain.JobStatusFailed)).Inc()
		return &SubmitResult{JobID: job.ID, Status: domain.JobStatusFailed}, nil
	}

	if err := s.jobs.SetExternalID(ctx, job.ID, pred.ID); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Str("prediction_id", pred.ID).
			Msg("failed to record provider reference")
	}

	if err := s.ledger.Debit(ctx, req.UserID, s.jobCost, job.ID, "Image generation"); err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			// A concurrent submission won the remaining balance. The
			// serialized debit is the authoritative check, so this
			// submission fails; the job is closed out as unpaid.
			_, _, finErr := s.jobs.Finalize(ctx, job.ID, domain.TerminalUpdate{
				Status:       domain.JobStatusFailed,
				ErrorMessage: "insufficient credits",
			})
			if finErr != nil {
				s.logger.Error().Err(finErr).Str("job_id", job.ID).Msg("failed to finalize unpaid job")
			}
			metrics.JobsFinalized.WithLabelValues(string(domain.JobStatusFailed)).Inc()
			return nil, err
		}
		// Known gap: the provider already accepted, so the job stands and
		// the ledger inconsistency is reconciled out-of-band.
		s.logger.Error().Err(err).
			Str("job_id", job.ID).
			Str("user_id", req.UserID).
			Msg("credit debit failed after provider acceptance")
	} else {
		metrics.CreditsDebited.Add(float64(s.jobCost))
	}

	return &SubmitResult{JobID: job.ID, ExternalID: pred.ID, Status: domain.JobStatusProcessing}, nil
}
