package mint

import (
	"errors"
	"fmt"

	"where-money-moves/internal/domain"
)

// Controller errors. Every one of them has already been surfaced to the user
// as a notification when returned from Mint.
var (
	// ErrNotConnected is returned when no wallet is connected.
	ErrNotConnected = errors.New("wallet not connected")

	// ErrWrongNetwork is returned after a network switch was requested.
	// The user must invoke Mint again once on the target network.
	ErrWrongNetwork = errors.New("wrong network: switch requested, retry mint")

	// ErrSwitchRejected is returned when the wallet declined the switch.
	ErrSwitchRejected = errors.New("network switch rejected")

	// ErrQuotaExceeded is returned when the request would exceed the per-wallet limit.
	ErrQuotaExceeded = errors.New("mint limit reached")

	// ErrInvalidQuantity is returned for quantities outside [1, 5].
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrAttemptInFlight is returned when an attempt is submitting or confirming.
	ErrAttemptInFlight = errors.New("mint attempt already in flight")

	// ErrSuperseded is returned when the attempt was replaced or the dialog
	// closed while preconditions were being checked.
	ErrSuperseded = errors.New("mint attempt superseded")

	// ErrClosed is returned after Shutdown.
	ErrClosed = errors.New("controller closed")
)

// TransitionError reports an operation invalid in the current state.
type TransitionError struct {
	From domain.MintState
	To   domain.MintState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid mint transition %s -> %s", e.From, e.To)
}
