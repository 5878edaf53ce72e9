package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("invalid request")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrDuplicateReference  = errors.New("duplicate ledger reference")
	// ErrProviderUnavailable marks a transient provider failure: the caller
	// may retry and no job state has changed.
	ErrProviderUnavailable = errors.New("provider unavailable")
)
