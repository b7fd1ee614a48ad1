package stub

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"where-money-moves/internal/domain"
	"where-money-moves/internal/wallet"
)

// Provider implements wallet.Provider for testing.
type Provider struct {
	mu sync.Mutex

	Account common.Address
	ChainID uint64

	ConnectErr error
	SwitchErr  error
	// SwitchLands controls whether a successful switch changes the chain id.
	SwitchLands bool

	SendErr  error
	SendHash common.Hash
	// OnSend overrides SendErr/SendHash when set. It runs without the lock held.
	OnSend func(ctx context.Context, tx domain.TxRequest) (common.Hash, error)

	session  domain.WalletSession
	Sent     []domain.TxRequest
	Switches []uint64
}

// NewProvider creates a disconnected stub wallet that will connect as account on chainID.
func NewProvider(account common.Address, chainID uint64) *Provider {
	return &Provider{
		Account:     account,
		ChainID:     chainID,
		SwitchLands: true,
		SendHash:    common.HexToHash("0x01"),
		session:     domain.Disconnected(),
	}
}

// Connected creates a stub wallet that is already connected.
func Connected(account common.Address, chainID uint64) *Provider {
	p := NewProvider(account, chainID)
	p.session = domain.Connected(account, chainID)
	return p
}

// Session returns the current snapshot.
func (p *Provider) Session() domain.WalletSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Connect binds the configured account.
func (p *Provider) Connect(_ context.Context) (domain.WalletSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ConnectErr != nil {
		return p.session, p.ConnectErr
	}
	p.session = domain.Connected(p.Account, p.ChainID)
	return p.session, nil
}

// Disconnect clears the session.
func (p *Provider) Disconnect(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = domain.Disconnected()
	return nil
}

// SetChain simulates the user changing networks in the wallet.
func (p *Provider) SetChain(chainID uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ChainID = chainID
	if p.session.IsConnected() {
		p.session = domain.Connected(*p.session.Account, chainID)
	}
}

// SwitchChain records the request and applies it unless SwitchErr is set.
func (p *Provider) SwitchChain(_ context.Context, chainID uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Switches = append(p.Switches, chainID)
	if !p.session.IsConnected() {
		return wallet.ErrNotConnected
	}
	if p.SwitchErr != nil {
		return p.SwitchErr
	}
	if p.SwitchLands {
		p.ChainID = chainID
		p.session = domain.Connected(*p.session.Account, chainID)
	}
	return nil
}

// SendTransaction records tx and returns the configured result.
func (p *Provider) SendTransaction(ctx context.Context, tx domain.TxRequest) (common.Hash, error) {
	p.mu.Lock()
	if !p.session.IsConnected() {
		p.mu.Unlock()
		return common.Hash{}, wallet.ErrNotConnected
	}
	tx.From = *p.session.Account
	p.Sent = append(p.Sent, tx)
	onSend, hash, err := p.OnSend, p.SendHash, p.SendErr
	p.mu.Unlock()

	if onSend != nil {
		return onSend(ctx, tx)
	}
	return hash, err
}

// SentCount returns the number of transactions submitted.
func (p *Provider) SentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Sent)
}

var _ wallet.Provider = (*Provider)(nil)
