package contract

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"where-money-moves/internal/domain"
	"where-money-moves/internal/evm"
	evmstub "where-money-moves/internal/evm/stub"
	"where-money-moves/internal/wallet"
	walletstub "where-money-moves/internal/wallet/stub"
)

var user = common.HexToAddress("0x00000000000000000000000000000000000000c3")

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestClient(t *testing.T, w wallet.Provider) (*Client, *evmstub.RPCClient, *clock) {
	t.Helper()
	rpc := evmstub.NewRPCClient(domain.Plasma.ChainID)
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	c := NewClient(rpc, w, Options{Now: clk.Now, ReceiptPollInterval: 5 * time.Millisecond})
	return c, rpc, clk
}

func TestClient_GetTotalMintedCaches(t *testing.T) {
	c, rpc, clk := newTestClient(t, nil)
	rpc.SetResult(Selector(MethodCurrentTokenID), EncodeUint(MethodCurrentTokenID, 420))
	ctx := context.Background()

	v, err := c.GetTotalMinted(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(420), v)

	clk.Advance(29 * time.Second)
	_, err = c.GetTotalMinted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rpc.CallCount(), "served from cache within cache duration")

	rpc.SetResult(Selector(MethodCurrentTokenID), EncodeUint(MethodCurrentTokenID, 421))
	clk.Advance(2 * time.Second)
	v, err = c.GetTotalMinted(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(421), v)
	assert.Equal(t, 2, rpc.CallCount())
}

func TestClient_GetTotalMintedServesStaleOnError(t *testing.T) {
	c, rpc, clk := newTestClient(t, nil)
	rpc.SetResult(Selector(MethodCurrentTokenID), EncodeUint(MethodCurrentTokenID, 100))
	ctx := context.Background()

	_, err := c.GetTotalMinted(ctx)
	require.NoError(t, err)

	rpc.CallErr = errors.New("node unavailable")
	clk.Advance(time.Minute)

	v, err := c.GetTotalMinted(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), v)

	_, err = c.RefreshTotalMinted(ctx)
	assert.Error(t, err, "forced refresh reports the failure")
}

func TestClient_GetTotalMintedErrorWithoutCache(t *testing.T) {
	c, rpc, _ := newTestClient(t, nil)
	rpc.CallErr = errors.New("node unavailable")

	_, err := c.GetTotalMinted(context.Background())
	assert.Error(t, err)
}

func TestClient_GetUserMintedCount(t *testing.T) {
	c, rpc, _ := newTestClient(t, nil)
	rpc.SetResult(Selector(MethodUserMintedCount), EncodeUint(MethodUserMintedCount, 2))
	ctx := context.Background()

	v, err := c.GetUserMintedCount(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)

	_, err = c.GetUserMintedCount(ctx, user)
	require.NoError(t, err)
	require.Equal(t, 1, rpc.CallCount())

	// the call carries the account as its argument
	args, err := CollectionABI.Methods[MethodUserMintedCount].Inputs.Unpack(rpc.Calls[0].Data[4:])
	require.NoError(t, err)
	assert.Equal(t, user, args[0].(common.Address))

	rpc.SetResult(Selector(MethodUserMintedCount), EncodeUint(MethodUserMintedCount, 3))
	v, err = c.RefreshUserMintedCount(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)

	v, err = c.GetUserMintedCount(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)
	assert.Equal(t, 2, rpc.CallCount())
}

func TestClient_GetUserMintedCountZeroAddress(t *testing.T) {
	c, rpc, _ := newTestClient(t, nil)

	v, err := c.GetUserMintedCount(context.Background(), common.Address{})
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.Zero(t, rpc.CallCount())
}

func TestClient_MintRandomEditionsNotConnected(t *testing.T) {
	w := walletstub.NewProvider(user, domain.Plasma.ChainID)
	c, _, _ := newTestClient(t, w)

	_, err := c.MintRandomEditions(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Zero(t, w.SentCount())
}

func TestClient_MintRandomEditions(t *testing.T) {
	w := walletstub.Connected(user, domain.Plasma.ChainID)
	w.SendHash = common.HexToHash("0xbeef")
	c, _, _ := newTestClient(t, w)

	hash, err := c.MintRandomEditions(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0xbeef"), hash)

	require.Len(t, w.Sent, 1)
	tx := w.Sent[0]
	assert.Equal(t, DefaultAddress, tx.To)
	assert.Equal(t, user, tx.From)
	assert.Nil(t, tx.Value)
	assert.Equal(t, Selector(MethodMintRandomEditions), tx.Data[:4])

	args, err := CollectionABI.Methods[MethodMintRandomEditions].Inputs.Unpack(tx.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(3), args[0].(*big.Int))
}

func TestClient_MintRandomEditionsProviderError(t *testing.T) {
	w := walletstub.Connected(user, domain.Plasma.ChainID)
	w.SendErr = &evm.RPCError{Code: evm.CodeUserRejected, Message: "User denied transaction signature."}
	c, _, _ := newTestClient(t, w)

	_, err := c.MintRandomEditions(context.Background(), 1)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "User denied transaction signature.", perr.Message)
	assert.True(t, evm.IsUserRejected(err))
}

func TestClient_WaitForConfirmation(t *testing.T) {
	c, rpc, _ := newTestClient(t, nil)
	hash := common.HexToHash("0x1234")

	go func() {
		time.Sleep(20 * time.Millisecond)
		rpc.SetReceipt(&domain.Receipt{TxHash: hash, BlockNumber: 9, Success: true})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	receipt, err := c.WaitForConfirmation(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), receipt.BlockNumber)
}

func TestClient_WaitForConfirmationReverted(t *testing.T) {
	c, rpc, _ := newTestClient(t, nil)
	hash := common.HexToHash("0x1234")
	rpc.SetReceipt(&domain.Receipt{TxHash: hash, BlockNumber: 9, Success: false})

	_, err := c.WaitForConfirmation(context.Background(), hash)

	var cerr *ConfirmationError
	require.ErrorAs(t, err, &cerr)
	assert.True(t, cerr.Reverted())
}

func TestClient_WaitForConfirmationCancelled(t *testing.T) {
	c, _, _ := newTestClient(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.WaitForConfirmation(ctx, common.HexToHash("0x1234"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Supply(t *testing.T) {
	c, rpc, _ := newTestClient(t, nil)
	rpc.SetResult(Selector(MethodCurrentTokenID), EncodeUint(MethodCurrentTokenID, 6900))
	rpc.SetResult(Selector(MethodUserMintedCount), EncodeUint(MethodUserMintedCount, 3))

	view, err := c.Supply(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(69), view.Remaining)
	assert.True(t, view.CanUserMint)
	assert.Zero(t, view.UserMintedCount)

	view, err = c.Supply(context.Background(), &user)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), view.UserMintedCount)
	assert.False(t, view.CanUserMint)
	assert.Equal(t, uint64(MaxMintsPerWallet), view.MaxMintsPerWallet)
}

func TestClient_ReadUserMintedCountBypassesCache(t *testing.T) {
	c, rpc, _ := newTestClient(t, nil)
	rpc.SetResult(Selector(MethodUserMintedCount), EncodeUint(MethodUserMintedCount, 0))
	ctx := context.Background()

	_, err := c.GetUserMintedCount(ctx, user)
	require.NoError(t, err)

	rpc.SetResult(Selector(MethodUserMintedCount), EncodeUint(MethodUserMintedCount, 2))
	v, err := c.ReadUserMintedCount(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)
	assert.Equal(t, 2, rpc.CallCount())

	// the fresh value replaces the cached one
	v, err = c.GetUserMintedCount(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)
	assert.Equal(t, 2, rpc.CallCount())
}

// gatedRPC blocks every eth_call until released or the call's ctx ends.
type gatedRPC struct {
	*evmstub.RPCClient
	release chan struct{}
}

func (g *gatedRPC) Call(ctx context.Context, msg evm.CallMsg) ([]byte, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.RPCClient.Call(ctx, msg)
}

func TestClient_SharedReadSurvivesCancelledCaller(t *testing.T) {
	node := evmstub.NewRPCClient(domain.Plasma.ChainID)
	node.SetResult(Selector(MethodUserMintedCount), EncodeUint(MethodUserMintedCount, 1))
	rpc := &gatedRPC{RPCClient: node, release: make(chan struct{})}
	c := NewClient(rpc, nil, Options{ReadTimeout: 2 * time.Second})

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.RefreshUserMintedCount(first, user)
		firstErr <- err
	}()

	type result struct {
		v   uint64
		err error
	}
	second := make(chan result, 1)
	time.Sleep(10 * time.Millisecond)
	go func() {
		v, err := c.RefreshUserMintedCount(context.Background(), user)
		second <- result{v, err}
	}()

	time.Sleep(10 * time.Millisecond)
	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(rpc.release)
	select {
	case r := <-second:
		require.NoError(t, r.err)
		assert.Equal(t, uint64(1), r.v)
	case <-time.After(time.Second):
		t.Fatal("second caller did not return")
	}
}

func TestClient_SharedReadIsBounded(t *testing.T) {
	node := evmstub.NewRPCClient(domain.Plasma.ChainID)
	rpc := &gatedRPC{RPCClient: node, release: make(chan struct{})}
	c := NewClient(rpc, nil, Options{ReadTimeout: 20 * time.Millisecond})

	_, err := c.RefreshTotalMinted(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
