package contract

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"where-money-moves/internal/domain"
	"where-money-moves/internal/observability"
	"where-money-moves/internal/storage"
	"where-money-moves/internal/wallet"
)

// PollerOptions configures a Poller.
type PollerOptions struct {
	// Interval between refreshes. Defaults to DefaultPollInterval.
	Interval time.Duration

	// Snapshots receives one record per successful tick when set.
	Snapshots storage.SupplySnapshotStore

	// Wallet, when set, has its bound account's count refreshed each tick.
	Wallet wallet.Provider

	Logger *log.Logger
	Now    func() time.Time
}

// Poller keeps the client's supply cache warm.
type Poller struct {
	client    *Client
	interval  time.Duration
	snapshots storage.SupplySnapshotStore
	wallet    wallet.Provider
	logger    *log.Logger
	now       func() time.Time
}

// NewPoller creates a poller for client.
func NewPoller(client *Client, opts PollerOptions) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Poller{
		client:    client,
		interval:  opts.Interval,
		snapshots: opts.Snapshots,
		wallet:    opts.Wallet,
		logger:    opts.Logger,
		now:       opts.Now,
	}
}

// Run polls immediately and then every interval until ctx is cancelled.
// Failed ticks are logged and retried on the next tick.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.Poll(ctx); err != nil && ctx.Err() == nil {
			p.logger.Printf("WARN: supply poll failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Poll performs a single refresh.
func (p *Poller) Poll(ctx context.Context) error {
	total, err := p.client.RefreshTotalMinted(ctx)
	observability.RecordPoll(total, err)
	if err != nil {
		return fmt.Errorf("refresh total minted: %w", err)
	}

	if p.wallet != nil {
		if s := p.wallet.Session(); s.IsConnected() {
			if _, err := p.client.RefreshUserMintedCount(ctx, *s.Account); err != nil {
				p.logger.Printf("WARN: refresh minted count for %s: %v", s.Account.Hex(), err)
			}
		}
	}

	if p.snapshots == nil {
		return nil
	}

	block, err := p.client.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("block number: %w", err)
	}

	snap := &domain.SupplySnapshot{
		TimestampMs: p.now().UnixMilli(),
		BlockNumber: block,
		TotalMinted: total,
		MaxSupply:   MaxSupply,
	}
	if err := p.snapshots.InsertBulk(ctx, []*domain.SupplySnapshot{snap}); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}
