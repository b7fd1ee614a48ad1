package network

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"where-money-moves/internal/domain"
	"where-money-moves/internal/wallet/stub"
)

var account = common.HexToAddress("0x00000000000000000000000000000000000000b2")

func TestGuard_NotConnected(t *testing.T) {
	w := stub.NewProvider(account, 1)
	g := NewGuard(w, domain.Plasma, nil)
	ctx := context.Background()

	assert.False(t, g.IsOnTargetNetwork())
	assert.ErrorIs(t, g.SwitchToTargetNetwork(ctx), ErrNotConnected)
	assert.ErrorIs(t, g.EnsureTargetNetwork(ctx), ErrNotConnected)
	assert.Empty(t, w.Switches)

	st := g.Status()
	assert.False(t, st.Connected)
	assert.Equal(t, "Not Connected", st.Label)
}

func TestGuard_OnTarget(t *testing.T) {
	w := stub.Connected(account, domain.Plasma.ChainID)
	g := NewGuard(w, domain.Plasma, nil)
	ctx := context.Background()

	assert.True(t, g.IsOnTargetNetwork())
	require.NoError(t, g.SwitchToTargetNetwork(ctx))
	require.NoError(t, g.EnsureTargetNetwork(ctx))
	assert.Empty(t, w.Switches, "no switch when already on target")

	st := g.Status()
	assert.True(t, st.OnTarget)
	assert.Equal(t, "Plasma Network", st.Label)
}

func TestGuard_EnsureSwitchesAndStops(t *testing.T) {
	w := stub.Connected(account, 1)
	g := NewGuard(w, domain.Plasma, nil)

	err := g.EnsureTargetNetwork(context.Background())
	assert.ErrorIs(t, err, ErrWrongNetwork)
	assert.Equal(t, []uint64{domain.Plasma.ChainID}, w.Switches)
	assert.True(t, g.IsOnTargetNetwork())
}

func TestGuard_SwitchRejected(t *testing.T) {
	w := stub.Connected(account, 1)
	declined := errors.New("user rejected the request")
	w.SwitchErr = declined
	g := NewGuard(w, domain.Plasma, nil)

	err := g.EnsureTargetNetwork(context.Background())
	assert.ErrorIs(t, err, ErrSwitchRejected)
	assert.ErrorIs(t, err, declined)
	assert.False(t, g.IsOnTargetNetwork())

	st := g.Status()
	assert.Equal(t, "Wrong Network", st.Label)
	require.NotNil(t, st.ChainID)
	assert.Equal(t, uint64(1), *st.ChainID)
}
