// Package network keeps the connected wallet on the chain the collection lives on.
package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"where-money-moves/internal/domain"
	"where-money-moves/internal/wallet"
)

// Guard errors.
var (
	// ErrNotConnected is returned when no wallet session is bound.
	ErrNotConnected = errors.New("wallet not connected")

	// ErrWrongNetwork is returned by EnsureTargetNetwork after a switch was
	// accepted; the caller must re-invoke the operation on the new network.
	ErrWrongNetwork = errors.New("wallet on wrong network")

	// ErrSwitchRejected wraps the provider error of a declined or failed switch.
	ErrSwitchRejected = errors.New("network switch rejected")
)

// Status is the network badge view of the current session.
type Status struct {
	Connected  bool    `json:"connected"`
	OnTarget   bool    `json:"on_target"`
	ChainID    *uint64 `json:"chain_id,omitempty"`
	TargetID   uint64  `json:"target_chain_id"`
	TargetName string  `json:"target_name"`
	Label      string  `json:"label"`
}

// Guard checks and corrects the wallet's chain against the target network.
type Guard struct {
	provider wallet.Provider
	target   domain.TargetNetwork
	logger   *log.Logger
}

// NewGuard creates a guard for target.
func NewGuard(provider wallet.Provider, target domain.TargetNetwork, logger *log.Logger) *Guard {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Guard{provider: provider, target: target, logger: logger}
}

// Target returns the guarded network.
func (g *Guard) Target() domain.TargetNetwork {
	return g.target
}

// IsOnTargetNetwork reports whether a wallet is connected on the target chain.
func (g *Guard) IsOnTargetNetwork() bool {
	s := g.provider.Session()
	return s.IsConnected() && s.ChainID != nil && *s.ChainID == g.target.ChainID
}

// SwitchToTargetNetwork asks the wallet to move to the target chain.
// It is a no-op when already there.
func (g *Guard) SwitchToTargetNetwork(ctx context.Context) error {
	if !g.provider.Session().IsConnected() {
		return ErrNotConnected
	}
	if g.IsOnTargetNetwork() {
		return nil
	}

	g.logger.Printf("Requesting switch to %s (chain %d)", g.target.Name, g.target.ChainID)
	if err := g.provider.SwitchChain(ctx, g.target.ChainID); err != nil {
		return fmt.Errorf("%w: %w", ErrSwitchRejected, err)
	}
	return nil
}

// EnsureTargetNetwork returns nil when the wallet is on the target chain.
// Otherwise it requests a switch and reports ErrWrongNetwork if the switch
// was accepted, so the caller stops and lets the user re-invoke.
func (g *Guard) EnsureTargetNetwork(ctx context.Context) error {
	if !g.provider.Session().IsConnected() {
		return ErrNotConnected
	}
	if g.IsOnTargetNetwork() {
		return nil
	}
	if err := g.SwitchToTargetNetwork(ctx); err != nil {
		return err
	}
	return ErrWrongNetwork
}

// Status returns the badge view for the current session.
func (g *Guard) Status() Status {
	s := g.provider.Session()
	st := Status{
		Connected:  s.IsConnected(),
		TargetID:   g.target.ChainID,
		TargetName: g.target.Name,
		Label:      "Not Connected",
	}
	if !st.Connected {
		return st
	}

	st.ChainID = s.ChainID
	st.OnTarget = g.IsOnTargetNetwork()
	if st.OnTarget {
		st.Label = g.target.Name + " Network"
	} else {
		st.Label = "Wrong Network"
	}
	return st
}
