package domain

import "context"

// JobRepository defines persistence for job entities.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	// GetByOwner fetches a job scoped to its owning user, returning
	// ErrNotFound when the id is unknown or owned by someone else.
	GetByOwner(ctx context.Context, jobID, userID string) (*Job, error)
	// SetExternalID records the provider reference once; an already-set
	// reference is never overwritten.
	SetExternalID(ctx context.Context, jobID, externalID string) error
	// Finalize applies a terminal update iff the job is still processing.
	// It returns the job as stored afterwards and whether this call won
	// the transition; a losing call leaves the row untouched.
	Finalize(ctx context.Context, jobID string, update TerminalUpdate) (*Job, bool, error)
	// ListRecentByOwner returns the user's newest jobs first.
	ListRecentByOwner(ctx context.Context, userID string, limit int) ([]Job, error)
	// ListStaleProcessing returns processing jobs untouched for at least
	// the given number of seconds, oldest first.
	ListStaleProcessing(ctx context.Context, olderThanSeconds, limit int) ([]Job, error)
}

// LedgerRepository defines persistence for the credit ledger.
type LedgerRepository interface {
	// Debit appends a negative entry of the given amount referencing jobID,
	// serialized per user. It fails with ErrDuplicateReference when a debit
	// for (userID, jobID) already exists and ErrInsufficientCredits when
	// the resulting balance would go negative.
	Debit(ctx context.Context, userID string, amount int64, jobID, description string) error
	// Credit appends a positive entry with no job linkage.
	Credit(ctx context.Context, userID string, amount int64, description string) error
	// Balance returns the signed sum of the user's entries.
	Balance(ctx context.Context, userID string) (int64, error)
}
