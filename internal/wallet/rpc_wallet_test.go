package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"where-money-moves/internal/domain"
	"where-money-moves/internal/evm"
)

type fakeWalletRPC struct {
	accounts   []common.Address
	chainID    uint64
	requestErr error
	switchErrs []error
	addErr     error
	added      []domain.TargetNetwork
	sent       []domain.TxRequest
}

func (f *fakeWalletRPC) ChainID(context.Context) (uint64, error) { return f.chainID, nil }

func (f *fakeWalletRPC) Accounts(context.Context) ([]common.Address, error) {
	return f.accounts, nil
}

func (f *fakeWalletRPC) RequestAccounts(context.Context) ([]common.Address, error) {
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return f.accounts, nil
}

func (f *fakeWalletRPC) SwitchChain(_ context.Context, chainID uint64) error {
	if len(f.switchErrs) > 0 {
		err := f.switchErrs[0]
		f.switchErrs = f.switchErrs[1:]
		if err != nil {
			return err
		}
	}
	f.chainID = chainID
	return nil
}

func (f *fakeWalletRPC) AddChain(_ context.Context, n domain.TargetNetwork) error {
	f.added = append(f.added, n)
	return f.addErr
}

func (f *fakeWalletRPC) SendTransaction(_ context.Context, tx domain.TxRequest) (common.Hash, error) {
	f.sent = append(f.sent, tx)
	return common.HexToHash("0xabc"), nil
}

var testAccount = common.HexToAddress("0x00000000000000000000000000000000000000a1")

func TestRPCWallet_Connect(t *testing.T) {
	rpc := &fakeWalletRPC{accounts: []common.Address{testAccount}, chainID: 1}
	w := NewRPCWallet(rpc, domain.Plasma, nil)

	assert.False(t, w.Session().IsConnected())

	session, err := w.Connect(context.Background())
	require.NoError(t, err)
	require.True(t, session.IsConnected())
	assert.Equal(t, testAccount, *session.Account)
	assert.Equal(t, uint64(1), *session.ChainID)
}

func TestRPCWallet_ConnectRejected(t *testing.T) {
	rejected := &evm.RPCError{Code: evm.CodeUserRejected, Message: "User rejected the request."}
	rpc := &fakeWalletRPC{requestErr: rejected}
	w := NewRPCWallet(rpc, domain.Plasma, nil)

	_, err := w.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, evm.IsUserRejected(err))
	assert.Equal(t, domain.WalletDisconnected, w.Session().Status)
}

func TestRPCWallet_ConnectNoAccounts(t *testing.T) {
	w := NewRPCWallet(&fakeWalletRPC{chainID: 1}, domain.Plasma, nil)

	_, err := w.Connect(context.Background())
	assert.ErrorIs(t, err, ErrNoAccounts)
}

func TestRPCWallet_SwitchChainAddsUnknownNetwork(t *testing.T) {
	rpc := &fakeWalletRPC{
		accounts:   []common.Address{testAccount},
		chainID:    1,
		switchErrs: []error{&evm.RPCError{Code: evm.CodeUnknownChain, Message: "Unrecognized chain ID"}},
	}
	w := NewRPCWallet(rpc, domain.Plasma, nil)
	_, err := w.Connect(context.Background())
	require.NoError(t, err)

	require.NoError(t, w.SwitchChain(context.Background(), domain.Plasma.ChainID))

	require.Len(t, rpc.added, 1)
	assert.Equal(t, domain.Plasma.ChainID, rpc.added[0].ChainID)
	assert.Equal(t, domain.Plasma.ChainID, *w.Session().ChainID)
}

func TestRPCWallet_SwitchChainRejected(t *testing.T) {
	rpc := &fakeWalletRPC{
		accounts:   []common.Address{testAccount},
		chainID:    1,
		switchErrs: []error{&evm.RPCError{Code: evm.CodeUserRejected, Message: "rejected"}},
	}
	w := NewRPCWallet(rpc, domain.Plasma, nil)
	_, err := w.Connect(context.Background())
	require.NoError(t, err)

	err = w.SwitchChain(context.Background(), domain.Plasma.ChainID)
	require.Error(t, err)
	assert.True(t, evm.IsUserRejected(err))
	assert.Empty(t, rpc.added)
	assert.Equal(t, uint64(1), *w.Session().ChainID)
}

func TestRPCWallet_RequiresConnection(t *testing.T) {
	w := NewRPCWallet(&fakeWalletRPC{}, domain.Plasma, nil)
	ctx := context.Background()

	assert.ErrorIs(t, w.SwitchChain(ctx, 9745), ErrNotConnected)
	_, err := w.SendTransaction(ctx, domain.TxRequest{})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestRPCWallet_SendTransactionSetsFrom(t *testing.T) {
	rpc := &fakeWalletRPC{accounts: []common.Address{testAccount}, chainID: 9745}
	w := NewRPCWallet(rpc, domain.Plasma, nil)
	_, err := w.Connect(context.Background())
	require.NoError(t, err)

	hash, err := w.SendTransaction(context.Background(), domain.TxRequest{To: common.HexToAddress("0x01")})
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0xabc"), hash)
	require.Len(t, rpc.sent, 1)
	assert.Equal(t, testAccount, rpc.sent[0].From)
}

func TestRPCWallet_SyncDetectsRevokedAccess(t *testing.T) {
	rpc := &fakeWalletRPC{accounts: []common.Address{testAccount}, chainID: 9745}
	w := NewRPCWallet(rpc, domain.Plasma, nil)
	_, err := w.Connect(context.Background())
	require.NoError(t, err)

	rpc.chainID = 1
	require.NoError(t, w.Sync(context.Background()))
	assert.Equal(t, uint64(1), *w.Session().ChainID)

	rpc.accounts = nil
	require.NoError(t, w.Sync(context.Background()))
	assert.False(t, w.Session().IsConnected())
}

func TestRPCWallet_Disconnect(t *testing.T) {
	rpc := &fakeWalletRPC{accounts: []common.Address{testAccount}, chainID: 9745}
	w := NewRPCWallet(rpc, domain.Plasma, nil)
	_, err := w.Connect(context.Background())
	require.NoError(t, err)

	require.NoError(t, w.Disconnect(context.Background()))
	assert.False(t, w.Session().IsConnected())
	assert.True(t, errors.Is(w.SwitchChain(context.Background(), 1), ErrNotConnected))
}
