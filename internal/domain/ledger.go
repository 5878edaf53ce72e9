package domain

import "time"

// LedgerEntry records one balance-affecting event. Entries are append-only;
// a user's balance is the signed sum of their entries.
type LedgerEntry struct {
	ID     string
	UserID string
	// Amount is signed: debits negative, credits positive.
	Amount int64
	// JobID references the job that caused the entry, empty for entries
	// with no job linkage (operator grants). At most one debit entry may
	// exist per (UserID, JobID) pair.
	JobID       string
	Description string
	CreatedAt   time.Time
}
