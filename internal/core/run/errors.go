// Package run defines domain-specific errors
package run

import "errors"

// Domain errors - DRY principle: defined once, used everywhere
var (
	// Record validation errors
	ErrInvalidRecordID     = errors.New("invalid run record ID")
	ErrInvalidGraphID      = errors.New("invalid graph ID")
	ErrInvalidStatus       = errors.New("invalid run status")
	ErrMissingErrorMessage = errors.New("failed run requires an error message")
	ErrRecordNotFound      = errors.New("run record not found")

	// Filter validation errors
	ErrInvalidLimit     = errors.New("limit cannot be negative")
	ErrInvalidOffset    = errors.New("offset cannot be negative")
	ErrInvalidTimeRange = errors.New("invalid time range")

	// Persistence errors
	ErrSaveFailed   = errors.New("failed to save run record")
	ErrLoadFailed   = errors.New("failed to load run record")
	ErrDeleteFailed = errors.New("failed to delete run record")
)
