package contract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"where-money-moves/internal/domain"
	"where-money-moves/internal/storage/memory"
	walletstub "where-money-moves/internal/wallet/stub"
)

func TestPoller_PollStoresSnapshot(t *testing.T) {
	c, rpc, clk := newTestClient(t, nil)
	rpc.Block = 77
	rpc.SetResult(Selector(MethodCurrentTokenID), EncodeUint(MethodCurrentTokenID, 500))
	rpc.SetResult(Selector(MethodUserMintedCount), EncodeUint(MethodUserMintedCount, 1))

	store := memory.NewSupplySnapshotStore()
	w := walletstub.Connected(user, domain.Plasma.ChainID)
	p := NewPoller(c, PollerOptions{Snapshots: store, Wallet: w, Now: clk.Now})

	require.NoError(t, p.Poll(context.Background()))

	latest, err := store.GetLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(500), latest.TotalMinted)
	assert.Equal(t, uint64(77), latest.BlockNumber)
	assert.Equal(t, uint64(MaxSupply), latest.MaxSupply)
	assert.Equal(t, clk.Now().UnixMilli(), latest.TimestampMs)

	// the account's count was refreshed into the cache
	calls := rpc.CallCount()
	count, err := c.GetUserMintedCount(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
	assert.Equal(t, calls, rpc.CallCount())
}

func TestPoller_PollError(t *testing.T) {
	c, rpc, _ := newTestClient(t, nil)
	rpc.CallErr = errors.New("node unavailable")
	store := memory.NewSupplySnapshotStore()
	p := NewPoller(c, PollerOptions{Snapshots: store})

	assert.Error(t, p.Poll(context.Background()))

	_, err := store.GetLatest(context.Background())
	assert.Error(t, err, "no snapshot on failed tick")
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	c, rpc, _ := newTestClient(t, nil)
	rpc.SetResult(Selector(MethodCurrentTokenID), EncodeUint(MethodCurrentTokenID, 1))
	p := NewPoller(c, PollerOptions{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return rpc.CallCount() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}
