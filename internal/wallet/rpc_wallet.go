package wallet

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"where-money-moves/internal/domain"
	"where-money-moves/internal/evm"
)

// RPCWallet is a Provider backed by an EIP-1193 wallet reachable over JSON-RPC,
// such as a desktop wallet's local RPC port.
type RPCWallet struct {
	rpc     evm.WalletRPC
	network domain.TargetNetwork
	logger  *log.Logger

	mu      sync.RWMutex
	session domain.WalletSession
}

// NewRPCWallet creates a disconnected RPC wallet. network is registered with the
// wallet when it does not know the chain on switch.
func NewRPCWallet(rpc evm.WalletRPC, network domain.TargetNetwork, logger *log.Logger) *RPCWallet {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &RPCWallet{
		rpc:     rpc,
		network: network,
		logger:  logger,
		session: domain.Disconnected(),
	}
}

// Session returns the current connection snapshot.
func (w *RPCWallet) Session() domain.WalletSession {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.session
}

// Connect requests accounts from the wallet and reads its chain id.
func (w *RPCWallet) Connect(ctx context.Context) (domain.WalletSession, error) {
	w.mu.Lock()
	if w.session.IsConnected() {
		s := w.session
		w.mu.Unlock()
		return s, nil
	}
	w.session = domain.WalletSession{Status: domain.WalletConnecting}
	w.mu.Unlock()

	session, err := w.connect(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.session = domain.Disconnected()
		return w.session, err
	}
	w.session = session
	w.logger.Printf("Wallet connected: account=%s chain=%d", session.Account.Hex(), *session.ChainID)
	return session, nil
}

func (w *RPCWallet) connect(ctx context.Context) (domain.WalletSession, error) {
	accounts, err := w.rpc.RequestAccounts(ctx)
	if err != nil {
		return domain.WalletSession{}, fmt.Errorf("request accounts: %w", err)
	}
	if len(accounts) == 0 {
		return domain.WalletSession{}, ErrNoAccounts
	}

	chainID, err := w.rpc.ChainID(ctx)
	if err != nil {
		return domain.WalletSession{}, fmt.Errorf("read chain id: %w", err)
	}

	return domain.Connected(accounts[0], chainID), nil
}

// Disconnect forgets the bound account. EIP-1193 has no revoke call, so the
// wallet itself keeps its permission.
func (w *RPCWallet) Disconnect(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.session = domain.Disconnected()
	return nil
}

// Sync re-reads accounts and chain id so changes made in the wallet UI show up.
func (w *RPCWallet) Sync(ctx context.Context) error {
	if !w.Session().IsConnected() {
		return nil
	}

	accounts, err := w.rpc.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("read accounts: %w", err)
	}
	chainID, err := w.rpc.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("read chain id: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.session.IsConnected() {
		return nil
	}
	if len(accounts) == 0 {
		w.logger.Println("Wallet revoked account access, disconnecting")
		w.session = domain.Disconnected()
		return nil
	}
	w.session = domain.Connected(accounts[0], chainID)
	return nil
}

// SwitchChain asks the wallet to switch networks, registering the target
// network first if the wallet does not know it.
func (w *RPCWallet) SwitchChain(ctx context.Context, chainID uint64) error {
	if !w.Session().IsConnected() {
		return ErrNotConnected
	}

	err := w.rpc.SwitchChain(ctx, chainID)
	if err != nil && evm.IsUnknownChain(err) && chainID == w.network.ChainID {
		w.logger.Printf("Wallet does not know chain %d, adding %s", chainID, w.network.Name)
		if addErr := w.rpc.AddChain(ctx, w.network); addErr != nil {
			return addErr
		}
		err = w.rpc.SwitchChain(ctx, chainID)
	}
	if err != nil {
		return err
	}

	current, err := w.rpc.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("read chain id: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session.IsConnected() {
		w.session = domain.Connected(*w.session.Account, current)
	}
	return nil
}

// SendTransaction submits tx through the wallet, which signs and broadcasts it.
func (w *RPCWallet) SendTransaction(ctx context.Context, tx domain.TxRequest) (common.Hash, error) {
	session := w.Session()
	if !session.IsConnected() {
		return common.Hash{}, ErrNotConnected
	}
	tx.From = *session.Account
	return w.rpc.SendTransaction(ctx, tx)
}

var _ Provider = (*RPCWallet)(nil)
