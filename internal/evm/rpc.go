package evm

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"where-money-moves/internal/domain"
)

// RPCClient defines the read side of an EVM JSON-RPC node.
type RPCClient interface {
	// ChainID returns the chain id reported by the node.
	ChainID(ctx context.Context) (uint64, error)

	// BlockNumber returns the latest block number.
	BlockNumber(ctx context.Context) (uint64, error)

	// Call executes a read-only contract call against the latest block.
	Call(ctx context.Context, msg CallMsg) ([]byte, error)

	// GetTransactionReceipt returns the receipt of a mined transaction.
	// Returns nil, nil while the transaction is pending or unknown.
	GetTransactionReceipt(ctx context.Context, hash common.Hash) (*domain.Receipt, error)
}

// WalletRPC defines the EIP-1193 methods a wallet exposes over JSON-RPC.
type WalletRPC interface {
	ChainID(ctx context.Context) (uint64, error)
	Accounts(ctx context.Context) ([]common.Address, error)
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	SwitchChain(ctx context.Context, chainID uint64) error
	AddChain(ctx context.Context, network domain.TargetNetwork) error
	SendTransaction(ctx context.Context, tx domain.TxRequest) (common.Hash, error)
}

// Compile-time interface checks.
var (
	_ RPCClient = (*HTTPClient)(nil)
	_ WalletRPC = (*HTTPClient)(nil)
)
