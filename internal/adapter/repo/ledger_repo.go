package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"studio/internal/domain"
)

// LedgerRepositoryPG implements domain.LedgerRepository backed by
// PostgreSQL. Entries are append-only; the balance is always computed as the
// signed sum, never stored.
type LedgerRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new ledger repository backed by PostgreSQL.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepositoryPG {
	return &LedgerRepositoryPG{pool: pool}
}

// uniqueViolation is the PostgreSQL error code raised by the partial unique
// index on (user_id, job_id) debit rows.
const uniqueViolation = "23505"

// Debit appends a negative entry for the user inside a transaction that
// holds a per-user advisory lock, so the balance check and the insert are
// atomic with respect to other debits by the same user.
func (r *LedgerRepositoryPG) Debit(ctx context.Context, userID string, amount int64, jobID, description string) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	if jobID == "" {
		return fmt.Errorf("debit requires a job reference")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0));`, userID); err != nil {
		return err
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ledger_entries WHERE user_id = $1 AND job_id = $2 AND amount < 0);`,
		userID, jobID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateReference
	}

	var balance int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE user_id = $1;`,
		userID).Scan(&balance)
	if err != nil {
		return err
	}
	if balance < amount {
		return domain.ErrInsufficientCredits
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO ledger_entries (id, user_id, amount, job_id, description) VALUES ($1, $2, $3, $4, $5);`,
		uuid.NewString(), userID, -amount, jobID, description)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateReference
		}
		return err
	}
	return tx.Commit(ctx)
}

// Credit appends a positive entry with no job linkage.
func (r *LedgerRepositoryPG) Credit(ctx context.Context, userID string, amount int64, description string) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO ledger_entries (id, user_id, amount, description) VALUES ($1, $2, $3, $4);`,
		uuid.NewString(), userID, amount, description)
	return err
}

// Balance returns the signed sum of the user's entries.
func (r *LedgerRepositoryPG) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE user_id = $1;`,
		userID).Scan(&balance)
	if err != nil {
		return 0, err
	}
	return balance, nil
}
