package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studio/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository backed by PostgreSQL.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

const jobColumns = `id, user_id, prompt, enriched_prompt, style_preset, lighting_preset, composition_guide,
artistic_style, creativity, mood, external_id, status, result_url, error_message, processing_time_ms,
created_at, updated_at`

// Create inserts a new job record in state processing.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	query := `
INSERT INTO jobs (id, user_id, prompt, enriched_prompt, style_preset, lighting_preset, composition_guide,
                  artistic_style, creativity, mood, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.UserID,
		job.Prompt,
		job.EnrichedPrompt,
		job.Params.StylePreset,
		job.Params.LightingPreset,
		job.Params.CompositionGuide,
		job.Params.ArtisticStyle,
		job.Params.Creativity,
		job.Params.Mood,
		job.Status,
	)
	return err
}

// GetByOwner fetches a job scoped to its owning user.
func (r *JobRepositoryPG) GetByOwner(ctx context.Context, jobID, userID string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1 AND user_id = $2;`
	return scanJob(r.pool.QueryRow(ctx, query, jobID, userID))
}

// SetExternalID records the provider reference. COALESCE keeps an already
// assigned reference immutable even under concurrent writers.
func (r *JobRepositoryPG) SetExternalID(ctx context.Context, jobID, externalID string) error {
	query := `
UPDATE jobs
SET external_id = COALESCE(external_id, $2),
    updated_at = NOW()
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, jobID, externalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Finalize applies a terminal update guarded on the processing state, which
// serializes concurrent terminal transitions: the losing writer affects zero
// rows and gets the stored row back with won=false.
func (r *JobRepositoryPG) Finalize(ctx context.Context, jobID string, update domain.TerminalUpdate) (*domain.Job, bool, error) {
	if !update.Status.Terminal() {
		return nil, false, fmt.Errorf("finalize with non-terminal status %q", update.Status)
	}
	query := `
UPDATE jobs
SET status = $2,
    result_url = NULLIF($3, ''),
    error_message = NULLIF($4, ''),
    processing_time_ms = $5,
    updated_at = NOW()
WHERE id = $1 AND status = 'processing'
RETURNING ` + jobColumns + `;`
	job, err := scanJob(r.pool.QueryRow(ctx, query, jobID,
		update.Status, update.ResultURL, update.ErrorMessage, update.ProcessingTimeMS))
	if err == nil {
		return job, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	// Lost the race or unknown id; re-read without the status guard.
	job, err = scanJob(r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1;`, jobID))
	if err != nil {
		return nil, false, err
	}
	return job, false, nil
}

// ListRecentByOwner returns the user's newest jobs first.
func (r *JobRepositoryPG) ListRecentByOwner(ctx context.Context, userID string, limit int) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2;`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// ListStaleProcessing returns processing jobs untouched for at least the
// given number of seconds, oldest first.
func (r *JobRepositoryPG) ListStaleProcessing(ctx context.Context, olderThanSeconds, limit int) ([]domain.Job, error) {
	query := `
SELECT ` + jobColumns + `
FROM jobs
WHERE status = 'processing'
  AND updated_at < NOW() - make_interval(secs => $1)
ORDER BY updated_at ASC
LIMIT $2;
`
	rows, err := r.pool.Query(ctx, query, olderThanSeconds, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

func collectJobs(rows pgx.Rows) ([]domain.Job, error) {
	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		job        domain.Job
		externalID *string
		resultURL  *string
		errMsg     *string
	)
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.Prompt,
		&job.EnrichedPrompt,
		&job.Params.StylePreset,
		&job.Params.LightingPreset,
		&job.Params.CompositionGuide,
		&job.Params.ArtisticStyle,
		&job.Params.Creativity,
		&job.Params.Mood,
		&externalID,
		&job.Status,
		&resultURL,
		&errMsg,
		&job.ProcessingTimeMS,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if externalID != nil {
		job.ExternalID = *externalID
	}
	if resultURL != nil {
		job.ResultURL = *resultURL
	}
	if errMsg != nil {
		job.ErrorMessage = *errMsg
	}
	return &job, nil
}
