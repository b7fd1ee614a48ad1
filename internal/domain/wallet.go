package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// WalletStatus is the connection status of a wallet session.
type WalletStatus string

const (
	WalletDisconnected WalletStatus = "disconnected"
	WalletConnecting   WalletStatus = "connecting"
	WalletConnected    WalletStatus = "connected"
)

// String returns the string representation of WalletStatus.
func (s WalletStatus) String() string {
	return string(s)
}

// WalletSession is a snapshot of the wallet provider's state.
// Account and ChainID are set iff Status is WalletConnected.
type WalletSession struct {
	Status  WalletStatus    `json:"status"`
	Account *common.Address `json:"account,omitempty"`
	ChainID *uint64         `json:"chain_id,omitempty"`
}

// IsConnected reports whether the session has a bound account.
func (s WalletSession) IsConnected() bool {
	return s.Status == WalletConnected && s.Account != nil
}

// Disconnected returns an empty session.
func Disconnected() WalletSession {
	return WalletSession{Status: WalletDisconnected}
}

// Connected returns a connected session for account on chainID.
func Connected(account common.Address, chainID uint64) WalletSession {
	return WalletSession{
		Status:  WalletConnected,
		Account: &account,
		ChainID: &chainID,
	}
}

// TxRequest is an unsigned contract call submitted through a wallet.
type TxRequest struct {
	From  common.Address
	To    common.Address
	Data  []byte
	Value *big.Int // nil means zero
	Gas   uint64   // 0 means estimate
}

// Receipt is the subset of a transaction receipt the service relies on.
type Receipt struct {
	TxHash      common.Hash `json:"tx_hash"`
	BlockNumber uint64      `json:"block_number"`
	GasUsed     uint64      `json:"gas_used"`
	Success     bool        `json:"success"`
}
