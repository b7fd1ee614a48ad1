package contract

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"where-money-moves/internal/domain"
)

// ErrNotConnected is returned by writes when no wallet account is bound.
var ErrNotConnected = errors.New("wallet not connected")

// ProviderError wraps a wallet rejection of a mint submission. Message is the
// provider's text, shown to the user unchanged. User decline, insufficient
// balance and RPC failures are not distinguished.
type ProviderError struct {
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ConfirmationError reports a transaction that reverted, or a confirmation
// lookup that failed. Receipt is set only for a mined, reverted transaction.
type ConfirmationError struct {
	TxHash  common.Hash
	Receipt *domain.Receipt
	Err     error
}

func (e *ConfirmationError) Error() string {
	if e.Reverted() {
		return fmt.Sprintf("transaction %s reverted in block %d", e.TxHash.Hex(), e.Receipt.BlockNumber)
	}
	return fmt.Sprintf("confirmation of %s failed: %v", e.TxHash.Hex(), e.Err)
}

func (e *ConfirmationError) Unwrap() error {
	return e.Err
}

// Reverted reports whether the transaction was mined with a failure status.
func (e *ConfirmationError) Reverted() bool {
	return e.Receipt != nil && !e.Receipt.Success
}
