// Package mint drives one mint attempt at a time from user intent to settlement.
package mint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"where-money-moves/internal/contract"
	"where-money-moves/internal/domain"
	"where-money-moves/internal/network"
	"where-money-moves/internal/notify"
	"where-money-moves/internal/observability"
	"where-money-moves/internal/storage"
)

// Controller timing defaults.
const (
	DefaultConfirmTimeout    = contract.DefaultConfirmationTimeout
	DefaultCountPollInterval = 2 * time.Second
	DefaultRefreshDelay      = time.Second

	finalCheckTimeout = 5 * time.Second
	refreshTimeout    = 10 * time.Second
	eventWriteTimeout = 2 * time.Second
	eventQueueSize    = 256
)

// SessionSource exposes the wallet session.
type SessionSource interface {
	Session() domain.WalletSession
}

// NetworkGuard keeps the wallet on the target chain.
type NetworkGuard interface {
	EnsureTargetNetwork(ctx context.Context) error
	Target() domain.TargetNetwork
}

// ContractClient is the contract surface the controller drives.
type ContractClient interface {
	ReadUserMintedCount(ctx context.Context, account common.Address) (uint64, error)
	RefreshUserMintedCount(ctx context.Context, account common.Address) (uint64, error)
	RefreshTotalMinted(ctx context.Context) (uint64, error)
	MintRandomEditions(ctx context.Context, quantity int) (common.Hash, error)
	WaitForConfirmation(ctx context.Context, hash common.Hash) (*domain.Receipt, error)
}

// Options configures a Controller.
type Options struct {
	Wallet   SessionSource
	Guard    NetworkGuard
	Contract ContractClient

	// Notifier receives user-facing notifications. Optional.
	Notifier notify.Notifier

	// Events records every transition of every attempt. Optional.
	Events storage.AttemptEventStore

	// MaxMintsPerWallet defaults to contract.MaxMintsPerWallet.
	MaxMintsPerWallet uint64

	// ConfirmTimeout bounds the confirmation wait. Defaults to 30s.
	ConfirmTimeout time.Duration

	// CountPollInterval is the minted-count polling gap while confirming. Defaults to 2s.
	CountPollInterval time.Duration

	// RefreshDelay is the wait before supply reads are refreshed after a success. Defaults to 1s.
	RefreshDelay time.Duration

	// UnitPrice is the displayed per-edition price. Zero means no price is shown.
	UnitPrice decimal.Decimal

	Logger *log.Logger
	Now    func() time.Time
	NewID  func() string
}

// Status is a snapshot of the controller.
type Status struct {
	State   domain.MintState    `json:"state"`
	Attempt *domain.MintAttempt `json:"attempt,omitempty"`
}

// Quote is the displayed cost of a mint.
type Quote struct {
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency"`
}

// Controller is the mint lifecycle state machine for one hosting surface.
// At most one attempt exists at a time. Every goroutine an attempt starts is
// bound to the attempt's context and generation; results arriving after the
// attempt was settled, replaced or closed are discarded.
type Controller struct {
	wallet   SessionSource
	guard    NetworkGuard
	contract ContractClient
	notifier notify.Notifier
	events   storage.AttemptEventStore

	maxMints       uint64
	confirmTimeout time.Duration
	countPoll      time.Duration
	refreshDelay   time.Duration
	unitPrice      decimal.Decimal

	logger *log.Logger
	now    func() time.Time
	newID  func() string

	root context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	// events are written in order by writeEvents
	eventq     chan *domain.AttemptEvent
	writerDone chan struct{}

	mu       sync.Mutex
	state    domain.MintState
	attempt  *domain.MintAttempt
	gen      uint64
	cancel   context.CancelFunc
	settled  chan struct{} // closed once the current attempt is released
	released bool
	seq      int
	closed   bool

	// flushed by unlock after the mutex is released
	outbox  []*domain.AttemptEvent
	notices []domain.Notification
	wake    []chan struct{}
}

// New creates an idle controller.
func New(opts Options) (*Controller, error) {
	if opts.Wallet == nil || opts.Guard == nil || opts.Contract == nil {
		return nil, errors.New("mint controller requires wallet, guard and contract")
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Multi(nil)
	}
	if opts.MaxMintsPerWallet == 0 {
		opts.MaxMintsPerWallet = contract.MaxMintsPerWallet
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = DefaultConfirmTimeout
	}
	if opts.CountPollInterval <= 0 {
		opts.CountPollInterval = DefaultCountPollInterval
	}
	if opts.RefreshDelay <= 0 {
		opts.RefreshDelay = DefaultRefreshDelay
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	root, stop := context.WithCancel(context.Background())
	c := &Controller{
		wallet:         opts.Wallet,
		guard:          opts.Guard,
		contract:       opts.Contract,
		notifier:       opts.Notifier,
		events:         opts.Events,
		maxMints:       opts.MaxMintsPerWallet,
		confirmTimeout: opts.ConfirmTimeout,
		countPoll:      opts.CountPollInterval,
		refreshDelay:   opts.RefreshDelay,
		unitPrice:      opts.UnitPrice,
		logger:         opts.Logger,
		now:            opts.Now,
		newID:          opts.NewID,
		root:           root,
		stop:           stop,
		state:          domain.MintIdle,
	}
	if c.events != nil {
		c.eventq = make(chan *domain.AttemptEvent, eventQueueSize)
		c.writerDone = make(chan struct{})
		go c.writeEvents(c.eventq)
	}
	return c, nil
}

// writeEvents persists attempt events off the request path. Events that do
// not fit in the queue are dropped with a warning.
func (c *Controller) writeEvents(q <-chan *domain.AttemptEvent) {
	defer close(c.writerDone)
	for e := range q {
		ctx, cancel := context.WithTimeout(context.Background(), eventWriteTimeout)
		if err := c.events.Insert(ctx, e); err != nil {
			c.logger.Printf("WARN: record attempt event %s/%d: %v", e.AttemptID, e.Seq, err)
		}
		cancel()
	}
}

// State returns the current state.
func (c *Controller) State() domain.MintState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempt returns a copy of the current attempt, if any.
func (c *Controller) Attempt() (domain.MintAttempt, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt == nil {
		return domain.MintAttempt{}, false
	}
	return *c.attempt, true
}

// Status returns the state and current attempt together.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{State: c.state}
	if c.attempt != nil {
		a := *c.attempt
		st.Attempt = &a
	}
	return st
}

// Quote prices quantity editions at the configured unit price.
func (c *Controller) Quote(quantity int) (Quote, error) {
	req := domain.MintRequest{Quantity: quantity, UnitPrice: c.unitPrice}
	if err := req.Validate(); err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrInvalidQuantity, err)
	}
	return Quote{
		Quantity:  quantity,
		UnitPrice: c.unitPrice,
		Total:     req.TotalCost(),
		Currency:  c.guard.Target().CurrencySymbol,
	}, nil
}

// Open enters Selecting. A settled attempt is cleared first.
func (c *Controller) Open() error {
	c.mu.Lock()
	defer c.unlock()

	if c.closed {
		return ErrClosed
	}
	if c.state == domain.MintSelecting {
		return nil
	}
	if c.state.IsTerminal() {
		c.resetLocked(false)
	}
	return c.transitionLocked(domain.MintSelecting, false)
}

// Cancel leaves the dialog without minting. An attempt that has not been
// submitted yet, such as one waiting for a network switch, is destroyed.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.unlock()

	if c.closed {
		return ErrClosed
	}
	if !canTransition(c.state, domain.MintIdle) {
		return &TransitionError{From: c.state, To: domain.MintIdle}
	}
	c.resetLocked(false)
	return nil
}

// Close dismisses the hosting dialog: any state is reset to Idle and the
// current attempt, its timer and its observers are cancelled.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.unlock()
	c.resetLocked(true)
}

// Shutdown closes the controller, waits for all of its goroutines and
// flushes queued attempt events.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	c.closed = true
	c.resetLocked(true)
	c.unlock()

	c.stop()
	c.wg.Wait()

	c.mu.Lock()
	q := c.eventq
	c.eventq = nil
	c.mu.Unlock()
	if q != nil {
		close(q)
		<-c.writerDone
	}
}

// Wait blocks until the current attempt settles, is reset, or ctx ends,
// then returns the controller status.
func (c *Controller) Wait(ctx context.Context) (Status, error) {
	c.mu.Lock()
	ch := c.settled
	c.mu.Unlock()

	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return c.Status(), ctx.Err()
		}
	}
	return c.Status(), nil
}

// Mint starts an attempt for req. Preconditions are checked in order:
// wallet connected, target network (a switch is requested and the call
// returns ErrWrongNetwork), then the per-wallet quota. On success the
// attempt is Submitting and continues in the background; use Wait or
// Status to follow it. Every returned error has been notified already.
func (c *Controller) Mint(ctx context.Context, req domain.MintRequest) (domain.MintAttempt, error) {
	req.UnitPrice = c.unitPrice

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.MintAttempt{}, ErrClosed
	}
	if c.state.InFlight() {
		c.mu.Unlock()
		return domain.MintAttempt{}, ErrAttemptInFlight
	}
	if err := req.Validate(); err != nil {
		c.noticeLocked(invalidQuantityNotice(req.Quantity))
		c.unlock()
		return domain.MintAttempt{}, fmt.Errorf("%w: %v", ErrInvalidQuantity, err)
	}

	if c.state.IsTerminal() {
		c.resetLocked(false)
	}
	if c.state == domain.MintIdle {
		_ = c.transitionLocked(domain.MintSelecting, false)
	}

	c.releaseLocked()
	c.gen++
	gen := c.gen
	attemptCtx, cancel := context.WithCancel(c.root)
	c.cancel = cancel
	c.settled = make(chan struct{})
	c.released = false
	c.seq = 0
	c.attempt = &domain.MintAttempt{
		ID:        c.newID(),
		Quantity:  req.Quantity,
		TotalCost: req.TotalCost(),
		State:     c.state,
	}
	if s := c.wallet.Session(); s.IsConnected() {
		c.attempt.Account = *s.Account
	}
	_ = c.transitionLocked(domain.MintAwaitingWallet, false)
	c.unlock()

	return c.begin(ctx, attemptCtx, gen, req.Quantity)
}

// begin runs the precondition checks and hands a passing attempt to run.
func (c *Controller) begin(ctx, attemptCtx context.Context, gen uint64, quantity int) (domain.MintAttempt, error) {
	session := c.wallet.Session()
	if !session.IsConnected() {
		return c.abort(gen, notConnectedNotice(), ErrNotConnected)
	}

	target := c.guard.Target()
	if err := c.guard.EnsureTargetNetwork(ctx); err != nil {
		switch {
		case errors.Is(err, network.ErrWrongNetwork):
			return c.awaitRetry(gen, networkSwitchedNotice(target.Name))
		case errors.Is(err, network.ErrNotConnected):
			return c.abort(gen, notConnectedNotice(), ErrNotConnected)
		default:
			return c.abort(gen, switchFailedNotice(target.Name), fmt.Errorf("%w: %w", ErrSwitchRejected, err))
		}
	}

	// quota and baseline come from a fresh read taken right before submission
	account := *session.Account
	minted, err := c.contract.ReadUserMintedCount(ctx, account)
	if err != nil {
		return c.abort(gen, quotaUnknownNotice(err), fmt.Errorf("read minted count: %w", err))
	}
	if minted+uint64(quantity) > c.maxMints {
		return c.abort(gen, quotaNotice(minted, c.maxMints), ErrQuotaExceeded)
	}

	c.mu.Lock()
	defer c.unlock()

	if gen != c.gen || c.state != domain.MintAwaitingWallet {
		return domain.MintAttempt{}, ErrSuperseded
	}
	c.attempt.Account = account
	c.attempt.BaselineMintedCount = minted
	c.attempt.SubmittedAt = c.now()
	_ = c.transitionLocked(domain.MintSubmitting, false)

	c.wg.Add(1)
	go c.run(attemptCtx, gen, account, quantity, minted)

	return *c.attempt, nil
}

// abort ends a pre-submission attempt: AwaitingWallet -> Idle.
func (c *Controller) abort(gen uint64, n domain.Notification, err error) (domain.MintAttempt, error) {
	c.mu.Lock()
	defer c.unlock()

	if gen != c.gen || c.state != domain.MintAwaitingWallet {
		return domain.MintAttempt{}, ErrSuperseded
	}
	c.noticeLocked(n)
	_ = c.transitionLocked(domain.MintIdle, false)
	snap := *c.attempt
	c.releaseLocked()
	c.attempt = nil
	return snap, err
}

// awaitRetry keeps the attempt in AwaitingWallet after a network switch.
func (c *Controller) awaitRetry(gen uint64, n domain.Notification) (domain.MintAttempt, error) {
	c.mu.Lock()
	defer c.unlock()

	if gen != c.gen || c.state != domain.MintAwaitingWallet {
		return domain.MintAttempt{}, ErrSuperseded
	}
	c.noticeLocked(n)
	_ = c.transitionLocked(domain.MintAwaitingWallet, false)
	return *c.attempt, ErrWrongNetwork
}

// run submits the mint and follows it to settlement.
func (c *Controller) run(ctx context.Context, gen uint64, account common.Address, quantity int, baseline uint64) {
	defer c.wg.Done()

	hash, err := c.contract.MintRandomEditions(ctx, quantity)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		msg := err.Error()
		var perr *contract.ProviderError
		if errors.As(err, &perr) {
			msg = perr.Message
		}
		c.settle(gen, domain.MintSubmitting, domain.MintFailed, msg, false, mintFailedNotice(msg))
		return
	}

	c.mu.Lock()
	if gen != c.gen || c.state != domain.MintSubmitting {
		c.mu.Unlock()
		return
	}
	h := hash
	c.attempt.TxHash = &h
	_ = c.transitionLocked(domain.MintConfirming, false)
	c.noticeLocked(submittedNotice(hash.Hex(), c.guard.Target().TxURL(hash.Hex())))
	c.unlock()

	c.confirm(ctx, gen, account, hash, quantity, baseline)
}

type signalSource int

const (
	fromReceipt signalSource = iota
	fromCount
)

type signal struct {
	source signalSource
	err    error
}

// confirm waits for the first of two success signals: the receipt, or the
// account's minted count rising above baseline. It settles the attempt.
func (c *Controller) confirm(ctx context.Context, gen uint64, account common.Address, hash common.Hash, quantity int, baseline uint64) {
	cctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	signals := make(chan signal, 2)

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		_, err := c.contract.WaitForConfirmation(cctx, hash)
		signals <- signal{source: fromReceipt, err: err}
	}()
	go func() {
		defer c.wg.Done()
		if c.watchCount(cctx, account, baseline) {
			signals <- signal{source: fromCount}
		}
	}()

	for {
		select {
		case s := <-signals:
			if c.resolve(cctx, gen, hash, quantity, s) {
				return
			}
		case <-cctx.Done():
			if ctx.Err() != nil {
				return
			}
			// a signal may have landed together with the deadline
			select {
			case s := <-signals:
				if c.resolve(cctx, gen, hash, quantity, s) {
					return
				}
			default:
			}
			c.finalCheck(ctx, gen, account, hash, quantity, baseline)
			return
		}
	}
}

// resolve applies one signal. It returns true once the attempt is settled.
func (c *Controller) resolve(cctx context.Context, gen uint64, hash common.Hash, quantity int, s signal) bool {
	if s.source == fromCount {
		c.settle(gen, domain.MintConfirming, domain.MintSucceeded, "", true, inferredNotice(quantity))
		return true
	}
	if s.err == nil {
		c.settle(gen, domain.MintConfirming, domain.MintSucceeded, "", false, confirmedNotice(quantity))
		return true
	}

	var cerr *contract.ConfirmationError
	if errors.As(s.err, &cerr) && cerr.Reverted() {
		c.settle(gen, domain.MintConfirming, domain.MintFailed, cerr.Error(), false, revertedNotice(hash.Hex()))
		return true
	}
	if cctx.Err() == nil {
		c.logger.Printf("WARN: confirmation lookup for %s failed, still watching minted count: %v", hash.Hex(), s.err)
	}
	return false
}

// watchCount polls the minted count until it exceeds baseline or ctx ends.
func (c *Controller) watchCount(ctx context.Context, account common.Address, baseline uint64) bool {
	ticker := time.NewTicker(c.countPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}

		count, err := c.contract.RefreshUserMintedCount(ctx, account)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			c.logger.Printf("WARN: minted count poll for %s: %v", account.Hex(), err)
			continue
		}
		if count > baseline {
			return true
		}
	}
}

// finalCheck runs once at the confirmation deadline.
func (c *Controller) finalCheck(ctx context.Context, gen uint64, account common.Address, hash common.Hash, quantity int, baseline uint64) {
	rctx, cancel := context.WithTimeout(ctx, finalCheckTimeout)
	defer cancel()

	count, err := c.contract.ReadUserMintedCount(rctx, account)
	if err == nil && count > baseline {
		c.settle(gen, domain.MintConfirming, domain.MintSucceeded, "", true, inferredNotice(quantity))
		return
	}
	if err != nil {
		c.logger.Printf("WARN: final minted count check for %s: %v", account.Hex(), err)
	}
	msg := fmt.Sprintf("no confirmation within %s", c.confirmTimeout)
	c.settle(gen, domain.MintConfirming, domain.MintTimedOut, msg, false, timedOutNotice(hash.Hex()))
}

// settle moves the attempt from -> to if it is still current, emits the one
// terminal notification and cancels everything bound to the attempt.
func (c *Controller) settle(gen uint64, from, to domain.MintState, msg string, inferred bool, n domain.Notification) bool {
	c.mu.Lock()
	defer c.unlock()

	if gen != c.gen || c.state != from {
		return false
	}

	now := c.now()
	c.attempt.Message = msg
	c.attempt.Inferred = inferred
	c.attempt.SettledAt = &now
	if err := c.transitionLocked(to, false); err != nil {
		c.logger.Printf("ERROR: %v", err)
		return false
	}
	c.noticeLocked(n)

	if from == domain.MintConfirming {
		observability.RecordConfirmationDuration(now.Sub(c.attempt.SubmittedAt))
	}
	outcome := string(to)
	if inferred {
		outcome = "SUCCEEDED_INFERRED"
	}
	observability.RecordMintOutcome(outcome)

	if to == domain.MintSucceeded {
		c.scheduleRefresh(c.attempt.Account)
	}
	c.releaseLocked()
	return true
}

// scheduleRefresh re-reads supply shortly after a success, once the new
// totals are likely visible on the node.
func (c *Controller) scheduleRefresh(account common.Address) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		timer := time.NewTimer(c.refreshDelay)
		defer timer.Stop()
		select {
		case <-c.root.Done():
			return
		case <-timer.C:
		}

		ctx, cancel := context.WithTimeout(c.root, refreshTimeout)
		defer cancel()
		if _, err := c.contract.RefreshTotalMinted(ctx); err != nil {
			c.logger.Printf("WARN: post-mint supply refresh: %v", err)
		}
		if _, err := c.contract.RefreshUserMintedCount(ctx, account); err != nil {
			c.logger.Printf("WARN: post-mint count refresh: %v", err)
		}
	}()
}

// resetLocked returns to Idle and drops the attempt. force allows leaving
// non-terminal states.
func (c *Controller) resetLocked(force bool) {
	c.gen++
	c.releaseLocked()
	if c.state != domain.MintIdle {
		if err := c.transitionLocked(domain.MintIdle, force); err != nil {
			c.logger.Printf("ERROR: %v", err)
		}
	}
	c.attempt = nil
}

// releaseLocked cancels the attempt context and wakes waiters.
func (c *Controller) releaseLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.settled != nil && !c.released {
		c.released = true
		c.wake = append(c.wake, c.settled)
	}
}

func (c *Controller) transitionLocked(to domain.MintState, force bool) error {
	from := c.state
	if !force && !canTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}

	c.state = to
	observability.RecordMintTransition(string(to))

	if c.attempt == nil {
		return nil
	}
	c.attempt.State = to
	c.logger.Printf("Mint %s: %s -> %s", c.attempt.ID, from, to)

	if c.eventq != nil {
		e := &domain.AttemptEvent{
			AttemptID: c.attempt.ID,
			Seq:       c.seq,
			State:     to,
			Quantity:  c.attempt.Quantity,
			Message:   c.attempt.Message,
			CreatedAt: c.now().UnixMilli(),
		}
		if c.attempt.Account != (common.Address{}) {
			e.Account = c.attempt.Account.Hex()
		}
		if c.attempt.TxHash != nil {
			h := c.attempt.TxHash.Hex()
			e.TxHash = &h
		}
		c.outbox = append(c.outbox, e)
	}
	c.seq++
	return nil
}

func (c *Controller) noticeLocked(n domain.Notification) {
	if c.attempt != nil {
		n.AttemptID = c.attempt.ID
	}
	n.At = c.now()
	c.notices = append(c.notices, n)
}

// unlock queues events for the writer in order, releases the mutex, then
// delivers notifications and wakes waiters queued while it was held.
func (c *Controller) unlock() {
	events, notices, wake := c.outbox, c.notices, c.wake
	c.outbox, c.notices, c.wake = nil, nil, nil
	for _, e := range events {
		select {
		case c.eventq <- e:
		default:
			c.logger.Printf("WARN: attempt event queue full, dropping %s/%d", e.AttemptID, e.Seq)
		}
	}
	c.mu.Unlock()

	for _, n := range notices {
		c.notifier.Notify(n)
	}
	for _, ch := range wake {
		close(ch)
	}
}
