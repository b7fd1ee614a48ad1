package wallet

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"where-money-moves/internal/domain"
)

// ChainClient is the subset of ethclient.Client the keystore wallet needs.
type ChainClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	Close()
}

// DialFunc opens a ChainClient for an RPC URL.
type DialFunc func(ctx context.Context, url string) (ChainClient, error)

// DialEthclient dials url with go-ethereum's ethclient.
func DialEthclient(ctx context.Context, url string) (ChainClient, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// KeystoreOptions configures a KeystoreWallet.
type KeystoreOptions struct {
	// Dir is the keystore directory (ignored when KeyStore is set).
	Dir string

	// KeyStore overrides the keystore opened from Dir.
	KeyStore *keystore.KeyStore

	// Account selects the key to use. Zero means the first key in the keystore.
	Account common.Address

	// Passphrase unlocks the key on Connect.
	Passphrase string

	// Endpoints maps chain id to RPC URL. SwitchChain only accepts these chains.
	Endpoints map[uint64]string

	// InitialChain is the chain connected to on Connect.
	InitialChain uint64

	// Dial opens chain clients. Defaults to DialEthclient.
	Dial DialFunc

	Logger *log.Logger
}

// KeystoreWallet is a Provider that signs locally with an encrypted
// go-ethereum keystore key and broadcasts through a node.
type KeystoreWallet struct {
	ks         *keystore.KeyStore
	want       common.Address
	passphrase string
	endpoints  map[uint64]string
	initial    uint64
	dial       DialFunc
	logger     *log.Logger

	mu      sync.RWMutex
	account accounts.Account
	client  ChainClient
	chainID uint64
	session domain.WalletSession
}

// NewKeystoreWallet creates a disconnected keystore wallet.
func NewKeystoreWallet(opts KeystoreOptions) (*KeystoreWallet, error) {
	ks := opts.KeyStore
	if ks == nil {
		if opts.Dir == "" {
			return nil, fmt.Errorf("keystore dir is required")
		}
		ks = keystore.NewKeyStore(opts.Dir, keystore.StandardScryptN, keystore.StandardScryptP)
	}
	if _, ok := opts.Endpoints[opts.InitialChain]; !ok {
		return nil, fmt.Errorf("%w: no endpoint for initial chain %d", ErrUnknownChain, opts.InitialChain)
	}

	dial := opts.Dial
	if dial == nil {
		dial = DialEthclient
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	endpoints := make(map[uint64]string, len(opts.Endpoints))
	for id, url := range opts.Endpoints {
		endpoints[id] = url
	}

	return &KeystoreWallet{
		ks:         ks,
		want:       opts.Account,
		passphrase: opts.Passphrase,
		endpoints:  endpoints,
		initial:    opts.InitialChain,
		dial:       dial,
		logger:     logger,
		session:    domain.Disconnected(),
	}, nil
}

// Session returns the current connection snapshot.
func (w *KeystoreWallet) Session() domain.WalletSession {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.session
}

// Connect unlocks the key and dials the initial chain.
func (w *KeystoreWallet) Connect(ctx context.Context) (domain.WalletSession, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.session.IsConnected() {
		return w.session, nil
	}

	account, err := w.findAccount()
	if err != nil {
		return w.session, err
	}
	if err := w.ks.Unlock(account, w.passphrase); err != nil {
		return w.session, fmt.Errorf("unlock %s: %w", account.Address.Hex(), err)
	}

	client, chainID, err := w.open(ctx, w.initial)
	if err != nil {
		_ = w.ks.Lock(account.Address)
		return w.session, err
	}

	w.account = account
	w.client = client
	w.chainID = chainID
	w.session = domain.Connected(account.Address, chainID)
	w.logger.Printf("Keystore wallet connected: account=%s chain=%d", account.Address.Hex(), chainID)
	return w.session, nil
}

func (w *KeystoreWallet) findAccount() (accounts.Account, error) {
	all := w.ks.Accounts()
	if len(all) == 0 {
		return accounts.Account{}, ErrNoAccounts
	}
	if w.want == (common.Address{}) {
		return all[0], nil
	}
	for _, a := range all {
		if a.Address == w.want {
			return a, nil
		}
	}
	return accounts.Account{}, fmt.Errorf("%w: %s not in keystore", ErrNoAccounts, w.want.Hex())
}

// open dials the endpoint for chainID and checks the node agrees on the id.
func (w *KeystoreWallet) open(ctx context.Context, chainID uint64) (ChainClient, uint64, error) {
	url, ok := w.endpoints[chainID]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownChain, chainID)
	}

	client, err := w.dial(ctx, url)
	if err != nil {
		return nil, 0, fmt.Errorf("dial chain %d: %w", chainID, err)
	}

	reported, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, 0, fmt.Errorf("read chain id: %w", err)
	}
	if !reported.IsUint64() || reported.Uint64() != chainID {
		client.Close()
		return nil, 0, fmt.Errorf("endpoint for chain %d reports chain %s", chainID, reported)
	}
	return client, chainID, nil
}

// Disconnect locks the key and closes the node connection.
func (w *KeystoreWallet) Disconnect(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.session.IsConnected() {
		return nil
	}
	if w.client != nil {
		w.client.Close()
		w.client = nil
	}
	err := w.ks.Lock(w.account.Address)
	w.session = domain.Disconnected()
	return err
}

// SwitchChain reconnects to the configured endpoint for chainID.
func (w *KeystoreWallet) SwitchChain(ctx context.Context, chainID uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.session.IsConnected() {
		return ErrNotConnected
	}
	if w.chainID == chainID {
		return nil
	}

	client, id, err := w.open(ctx, chainID)
	if err != nil {
		return err
	}

	w.client.Close()
	w.client = client
	w.chainID = id
	w.session = domain.Connected(w.account.Address, id)
	w.logger.Printf("Keystore wallet switched to chain %d", id)
	return nil
}

// SendTransaction builds, signs and broadcasts tx on the current chain.
// Chains reporting a base fee get a dynamic-fee transaction, others a legacy one.
func (w *KeystoreWallet) SendTransaction(ctx context.Context, req domain.TxRequest) (common.Hash, error) {
	w.mu.RLock()
	connected := w.session.IsConnected()
	account := w.account
	client := w.client
	chainID := new(big.Int).SetUint64(w.chainID)
	w.mu.RUnlock()

	if !connected {
		return common.Hash{}, ErrNotConnected
	}

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	to := req.To

	nonce, err := client.PendingNonceAt(ctx, account.Address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pending nonce: %w", err)
	}

	gas := req.Gas
	if gas == 0 {
		gas, err = client.EstimateGas(ctx, ethereum.CallMsg{
			From:  account.Address,
			To:    &to,
			Value: value,
			Data:  req.Data,
		})
		if err != nil {
			return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
		}
	}

	head, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("latest header: %w", err)
	}

	var tx *types.Transaction
	if head.BaseFee != nil {
		tip, err := client.SuggestGasTipCap(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("suggest tip: %w", err)
		}
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        &to,
			Value:     value,
			Data:      req.Data,
		})
	} else {
		price, err := client.SuggestGasPrice(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
		}
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: price,
			Gas:      gas,
			To:       &to,
			Value:    value,
			Data:     req.Data,
		})
	}

	signed, err := w.ks.SignTx(account, tx, chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign: %w", err)
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("broadcast: %w", err)
	}

	w.logger.Printf("Broadcast tx %s nonce=%d gas=%d", signed.Hash().Hex(), nonce, gas)
	return signed.Hash(), nil
}

var _ Provider = (*KeystoreWallet)(nil)
