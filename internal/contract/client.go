// Package contract reads and writes the Where Money Moves collection contract.
package contract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"where-money-moves/internal/domain"
	"where-money-moves/internal/evm"
	"where-money-moves/internal/observability"
	"where-money-moves/internal/wallet"
)

// Collection constants.
const (
	MaxSupply         = 6969
	MaxMintsPerWallet = 3

	DefaultPollInterval        = 60 * time.Second
	DefaultCacheDuration       = 30 * time.Second
	DefaultConfirmationTimeout = 30 * time.Second
	DefaultReceiptPollInterval = 2 * time.Second
	DefaultReadTimeout         = 10 * time.Second

	defaultUserCacheSize = 1024
)

// Options configures a Client.
type Options struct {
	// Address of the collection contract. Defaults to DefaultAddress.
	Address common.Address

	// CacheDuration is how long reads are served from cache. Defaults to 30s.
	CacheDuration time.Duration

	// ReceiptPollInterval is the gap between receipt lookups. Defaults to 2s.
	ReceiptPollInterval time.Duration

	// ReadTimeout bounds a shared read, which outlives the caller that
	// started it. Defaults to 10s.
	ReadTimeout time.Duration

	// UserCacheSize bounds the per-address count cache. Defaults to 1024.
	UserCacheSize int

	Logger *log.Logger
	Now    func() time.Time
}

// Client reads through a node and writes through the user's wallet.
type Client struct {
	rpc     evm.RPCClient
	wallet  wallet.Provider
	address common.Address

	cacheDuration time.Duration
	receiptPoll   time.Duration
	readTimeout   time.Duration
	logger        *log.Logger
	now           func() time.Time

	group singleflight.Group

	mu        sync.Mutex
	total     uint64
	totalAt   time.Time
	haveTotal bool

	counts *expirable.LRU[common.Address, uint64]
}

// NewClient creates a contract client. wallet may be nil for read-only use.
func NewClient(rpc evm.RPCClient, w wallet.Provider, opts Options) *Client {
	if opts.Address == (common.Address{}) {
		opts.Address = DefaultAddress
	}
	if opts.CacheDuration <= 0 {
		opts.CacheDuration = DefaultCacheDuration
	}
	if opts.ReceiptPollInterval <= 0 {
		opts.ReceiptPollInterval = DefaultReceiptPollInterval
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.UserCacheSize <= 0 {
		opts.UserCacheSize = defaultUserCacheSize
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Client{
		rpc:           rpc,
		wallet:        w,
		address:       opts.Address,
		cacheDuration: opts.CacheDuration,
		receiptPoll:   opts.ReceiptPollInterval,
		readTimeout:   opts.ReadTimeout,
		logger:        opts.Logger,
		now:           opts.Now,
		counts:        expirable.NewLRU[common.Address, uint64](opts.UserCacheSize, nil, opts.CacheDuration),
	}
}

// Address returns the contract address.
func (c *Client) Address() common.Address {
	return c.address
}

// GetTotalMinted returns the collection-wide minted count.
// A cached value younger than the cache duration is served without a call.
// If a re-read fails and a value is cached, the stale value is returned.
func (c *Client) GetTotalMinted(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	if c.haveTotal && c.now().Sub(c.totalAt) < c.cacheDuration {
		v := c.total
		c.mu.Unlock()
		observability.RecordContractRead(MethodCurrentTokenID, true)
		return v, nil
	}
	c.mu.Unlock()

	v, err := c.RefreshTotalMinted(ctx)
	if err == nil {
		return v, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.haveTotal {
		c.logger.Printf("WARN: total minted read failed, serving cached value %d: %v", c.total, err)
		return c.total, nil
	}
	return 0, err
}

// RefreshTotalMinted reads the total from the chain and updates the cache.
// Concurrent refreshes share one call.
func (c *Client) RefreshTotalMinted(ctx context.Context) (uint64, error) {
	return c.shared(ctx, MethodCurrentTokenID, func(rctx context.Context) (uint64, error) {
		total, err := c.callUint(rctx, MethodCurrentTokenID)
		if err != nil {
			return 0, err
		}

		c.mu.Lock()
		c.total = total
		c.totalAt = c.now()
		c.haveTotal = true
		c.mu.Unlock()
		return total, nil
	})
}

// GetUserMintedCount returns how many editions account has minted.
// The zero address has minted nothing and is answered without a call.
func (c *Client) GetUserMintedCount(ctx context.Context, account common.Address) (uint64, error) {
	if account == (common.Address{}) {
		return 0, nil
	}
	if v, ok := c.counts.Get(account); ok {
		observability.RecordContractRead(MethodUserMintedCount, true)
		return v, nil
	}
	return c.RefreshUserMintedCount(ctx, account)
}

// RefreshUserMintedCount reads account's count from the chain and updates the cache.
// Concurrent refreshes for the same account share one call.
func (c *Client) RefreshUserMintedCount(ctx context.Context, account common.Address) (uint64, error) {
	if account == (common.Address{}) {
		return 0, nil
	}
	return c.shared(ctx, MethodUserMintedCount+":"+account.Hex(), func(rctx context.Context) (uint64, error) {
		return c.readUserMintedCount(rctx, account)
	})
}

// ReadUserMintedCount reads account's count with its own call, never joining
// a shared read that may have started earlier. The cache is updated.
func (c *Client) ReadUserMintedCount(ctx context.Context, account common.Address) (uint64, error) {
	if account == (common.Address{}) {
		return 0, nil
	}
	return c.readUserMintedCount(ctx, account)
}

func (c *Client) readUserMintedCount(ctx context.Context, account common.Address) (uint64, error) {
	count, err := c.callUint(ctx, MethodUserMintedCount, account)
	if err != nil {
		return 0, err
	}
	c.counts.Add(account, count)
	return count, nil
}

// shared runs read once for all concurrent callers of key. The read is
// detached from any single caller and bounded by the read timeout; each
// caller still returns as soon as its own ctx ends.
func (c *Client) shared(ctx context.Context, key string, read func(context.Context) (uint64, error)) (uint64, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(detached, c.readTimeout)
		defer cancel()
		return read(rctx)
	})

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(uint64), nil
	}
}

func (c *Client) callUint(ctx context.Context, method string, args ...interface{}) (uint64, error) {
	data, err := CollectionABI.Pack(method, args...)
	if err != nil {
		return 0, fmt.Errorf("pack %s: %w", method, err)
	}

	out, err := c.rpc.Call(ctx, evm.CallMsg{To: c.address, Data: data})
	observability.RecordContractRead(method, false)
	if err != nil {
		return 0, fmt.Errorf("call %s: %w", method, err)
	}
	return unpackUint(method, out)
}

// MintRandomEditions submits a mint of quantity random editions from the
// bound wallet account and returns the transaction hash.
func (c *Client) MintRandomEditions(ctx context.Context, quantity int) (common.Hash, error) {
	if c.wallet == nil || !c.wallet.Session().IsConnected() {
		return common.Hash{}, ErrNotConnected
	}

	data, err := CollectionABI.Pack(MethodMintRandomEditions, big.NewInt(int64(quantity)))
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack %s: %w", MethodMintRandomEditions, err)
	}

	hash, err := c.wallet.SendTransaction(ctx, domain.TxRequest{To: c.address, Data: data})
	if err != nil {
		if errors.Is(err, wallet.ErrNotConnected) {
			return common.Hash{}, ErrNotConnected
		}
		return common.Hash{}, &ProviderError{Message: evm.Message(err), Err: err}
	}

	c.logger.Printf("Submitted %s(%d): tx=%s", MethodMintRandomEditions, quantity, hash.Hex())
	return hash, nil
}

// WaitForConfirmation polls for the receipt of hash until it is mined or ctx ends.
// A reverted transaction or a failed lookup yields a *ConfirmationError.
func (c *Client) WaitForConfirmation(ctx context.Context, hash common.Hash) (*domain.Receipt, error) {
	ticker := time.NewTicker(c.receiptPoll)
	defer ticker.Stop()

	for {
		receipt, err := c.rpc.GetTransactionReceipt(ctx, hash)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &ConfirmationError{TxHash: hash, Err: err}
		}
		if receipt != nil {
			if !receipt.Success {
				return receipt, &ConfirmationError{TxHash: hash, Receipt: receipt, Err: errors.New("execution reverted")}
			}
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Supply summarizes collection and per-account supply. account may be nil.
func (c *Client) Supply(ctx context.Context, account *common.Address) (domain.SupplyView, error) {
	total, err := c.GetTotalMinted(ctx)
	if err != nil {
		return domain.SupplyView{}, err
	}

	view := domain.SupplyView{
		TotalMinted:       total,
		MaxSupply:         MaxSupply,
		MaxMintsPerWallet: MaxMintsPerWallet,
		CanUserMint:       true,
	}
	if total < MaxSupply {
		view.Remaining = MaxSupply - total
	}

	if account != nil {
		count, err := c.GetUserMintedCount(ctx, *account)
		if err != nil {
			return domain.SupplyView{}, err
		}
		view.UserMintedCount = count
		view.CanUserMint = count < MaxMintsPerWallet
	}
	return view, nil
}

// BlockNumber returns the node's latest block.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.rpc.BlockNumber(ctx)
}
