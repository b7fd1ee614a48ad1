// Package main mints editions once from a terminal and waits for settlement.
//
// Exit codes: 0 succeeded, 1 failed or rejected, 2 timed out (the
// transaction may still confirm; check the explorer).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"

	"where-money-moves/internal/config"
	"where-money-moves/internal/contract"
	"where-money-moves/internal/domain"
	"where-money-moves/internal/evm"
	"where-money-moves/internal/mint"
	"where-money-moves/internal/network"
	"where-money-moves/internal/notify"
	"where-money-moves/internal/storage/memory"
)

const (
	exitOK       = 0
	exitFailed   = 1
	exitTimedOut = 2
)

func main() {
	config.LoadEnvFile(".env")

	logger := log.New(os.Stderr, "[mint] ", log.LstdFlags)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("Invalid environment: %v", err)
	}
	cfg.RegisterFlags(flag.CommandLine)
	quantity := flag.Int("quantity", 1, "Number of editions to mint (1-5)")
	flag.Parse()

	if err := errors.Join(cfg.Validate(), cfg.ValidateWallet()); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, cfg, *quantity, logger)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, quantity int, logger *log.Logger) int {
	target := cfg.Network()

	w, err := cfg.NewWallet(nil)
	if err != nil {
		logger.Printf("Wallet: %v", err)
		return exitFailed
	}

	session, err := w.Connect(ctx)
	if err != nil {
		logger.Printf("Connect wallet: %v", err)
		return exitFailed
	}
	logger.Printf("Connected %s on chain %d", session.Account.Hex(), derefChain(session.ChainID))

	guard := network.NewGuard(w, target, logger)
	switch err := guard.EnsureTargetNetwork(ctx); {
	case err == nil:
	case errors.Is(err, network.ErrWrongNetwork):
		fmt.Fprintf(os.Stderr, "Switched wallet to %s. Run the command again to mint.\n", target.Name)
		return exitFailed
	default:
		logger.Printf("Network: %v", err)
		return exitFailed
	}

	client := contract.NewClient(evm.NewHTTPClient(cfg.RPCEndpoint), w, contract.Options{
		Address:       cfg.Contract(),
		CacheDuration: cfg.CacheDuration,
		Logger:        logger,
	})

	events := memory.NewAttemptEventStore()
	controller, err := mint.New(mint.Options{
		Wallet:         w,
		Guard:          guard,
		Contract:       client,
		Notifier:       notify.NewLogNotifier(log.New(os.Stderr, "[notify] ", log.LstdFlags)),
		Events:         events,
		ConfirmTimeout: cfg.ConfirmTimeout,
		UnitPrice:      cfg.UnitPrice,
		Logger:         logger,
	})
	if err != nil {
		logger.Printf("Mint controller: %v", err)
		return exitFailed
	}
	defer controller.Shutdown()

	if q, err := controller.Quote(quantity); err == nil && !q.Total.IsZero() {
		fmt.Printf("Minting %d for %s %s\n", q.Quantity, q.Total.String(), q.Currency)
	}

	attempt, err := controller.Mint(ctx, domain.MintRequest{Quantity: quantity})
	if err != nil {
		logger.Printf("Mint: %v", err)
		return exitFailed
	}

	// The controller bounds confirmation itself; this only guards against a stuck RPC.
	waitCtx, cancel := context.WithTimeout(ctx, cfg.ConfirmTimeout+time.Minute)
	defer cancel()

	status, err := controller.Wait(waitCtx)
	if err != nil {
		logger.Printf("Wait: %v", err)
	}

	// Shutdown flushes the attempt events before they are read back.
	controller.Shutdown()
	history, herr := events.GetByAttemptID(context.Background(), attempt.ID)
	if herr != nil {
		logger.Printf("WARN: attempt history: %v", herr)
	} else if err := printHistory(history); err != nil {
		logger.Printf("WARN: print attempt history: %v", err)
	}

	if status.Attempt != nil && status.Attempt.TxHash != nil {
		if url := target.TxURL(status.Attempt.TxHash.Hex()); url != "" {
			fmt.Printf("Transaction: %s\n", url)
		}
	}

	switch status.State {
	case domain.MintSucceeded:
		return exitOK
	case domain.MintTimedOut:
		return exitTimedOut
	default:
		return exitFailed
	}
}

func printHistory(events []*domain.AttemptEvent) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Seq", "State", "Time", "Tx", "Message")
	for _, e := range events {
		tx := ""
		if e.TxHash != nil {
			tx = *e.TxHash
		}
		row := []string{
			strconv.Itoa(e.Seq),
			e.State.String(),
			time.UnixMilli(e.CreatedAt).UTC().Format(time.RFC3339),
			tx,
			e.Message,
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}
	return table.Render()
}

func derefChain(id *uint64) uint64 {
	if id == nil {
		return 0
	}
	return *id
}
