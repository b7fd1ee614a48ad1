package domain

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Quantity bounds for a single mint request.
const (
	MinMintQuantity = 1
	MaxMintQuantity = 5
)

// MintRequest is what the user asks for when confirming a mint.
type MintRequest struct {
	Quantity  int
	UnitPrice decimal.Decimal // zero when minting is free or priced on-chain
}

// Validate checks the quantity bounds.
func (r MintRequest) Validate() error {
	if r.Quantity < MinMintQuantity || r.Quantity > MaxMintQuantity {
		return fmt.Errorf("quantity %d out of range [%d, %d]", r.Quantity, MinMintQuantity, MaxMintQuantity)
	}
	return nil
}

// TotalCost returns UnitPrice × Quantity.
func (r MintRequest) TotalCost() decimal.Decimal {
	return r.UnitPrice.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// MintState is a state of the mint lifecycle.
type MintState string

const (
	MintIdle           MintState = "IDLE"
	MintSelecting      MintState = "SELECTING"
	MintAwaitingWallet MintState = "AWAITING_WALLET"
	MintSubmitting     MintState = "SUBMITTING"
	MintConfirming     MintState = "CONFIRMING"
	MintSucceeded      MintState = "SUCCEEDED"
	MintFailed         MintState = "FAILED"
	MintTimedOut       MintState = "TIMED_OUT"
)

// String returns the string representation of MintState.
func (s MintState) String() string {
	return string(s)
}

// IsValid checks if the state is a known value.
func (s MintState) IsValid() bool {
	switch s {
	case MintIdle, MintSelecting, MintAwaitingWallet, MintSubmitting,
		MintConfirming, MintSucceeded, MintFailed, MintTimedOut:
		return true
	}
	return false
}

// IsTerminal reports whether the state settles an attempt.
func (s MintState) IsTerminal() bool {
	return s == MintSucceeded || s == MintFailed || s == MintTimedOut
}

// InFlight reports whether an attempt is between submission and settlement.
func (s MintState) InFlight() bool {
	return s == MintSubmitting || s == MintConfirming
}

// MintAttempt is the transient record of one mint.
type MintAttempt struct {
	ID                  string          `json:"id"`
	Account             common.Address  `json:"account"`
	Quantity            int             `json:"quantity"`
	TotalCost           decimal.Decimal `json:"total_cost"`
	TxHash              *common.Hash    `json:"tx_hash,omitempty"` // nil until submitted
	SubmittedAt         time.Time       `json:"submitted_at"`
	BaselineMintedCount uint64          `json:"baseline_minted_count"`
	State               MintState       `json:"state"`
	Message             string          `json:"message,omitempty"`
	Inferred            bool            `json:"inferred,omitempty"` // success inferred from count increase
	SettledAt           *time.Time      `json:"settled_at,omitempty"`
}

// AttemptEvent is one append-only record of an attempt state transition.
// Corresponds to the mint_attempt_events table in PostgreSQL.
type AttemptEvent struct {
	AttemptID string
	Seq       int // 0-based, per attempt
	Account   string
	State     MintState
	Quantity  int
	TxHash    *string
	Message   string
	CreatedAt int64 // ms
}
