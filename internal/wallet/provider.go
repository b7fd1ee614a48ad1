// Package wallet adapts wallet backends to the session model the mint flow reads.
package wallet

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"where-money-moves/internal/domain"
)

// Wallet errors.
var (
	// ErrNotConnected is returned by operations that need a bound account.
	ErrNotConnected = errors.New("wallet not connected")

	// ErrNoAccounts is returned when the wallet exposes no account on connect.
	ErrNoAccounts = errors.New("wallet exposed no accounts")

	// ErrUnknownChain is returned when no endpoint is configured for a chain.
	ErrUnknownChain = errors.New("unknown chain")
)

// Provider is the wallet-connection boundary.
// Session is a cheap snapshot; every other method may block on the wallet.
type Provider interface {
	// Session returns the current connection snapshot.
	Session() domain.WalletSession

	// Connect binds an account. Connecting while connected returns the current session.
	Connect(ctx context.Context) (domain.WalletSession, error)

	// Disconnect releases the bound account.
	Disconnect(ctx context.Context) error

	// SwitchChain asks the wallet to move to chainID.
	SwitchChain(ctx context.Context, chainID uint64) error

	// SendTransaction signs and broadcasts tx from the bound account.
	SendTransaction(ctx context.Context, tx domain.TxRequest) (common.Hash, error)
}
