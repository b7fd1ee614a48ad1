// Package storage defines the append-only stores behind the mint service:
// attempt event history and polled supply snapshots.
package storage

import "errors"

// Store errors shared by the memory, postgres and clickhouse implementations.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned for an existing (attempt_id, seq) or
	// snapshot timestamp. Records are never updated.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
