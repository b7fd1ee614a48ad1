// Package main runs the mint service: supply poller, mint lifecycle
// controller, edition catalog and the HTTP/WebSocket API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"where-money-moves/internal/api"
	"where-money-moves/internal/catalog"
	"where-money-moves/internal/config"
	"where-money-moves/internal/contract"
	"where-money-moves/internal/evm"
	"where-money-moves/internal/mint"
	"where-money-moves/internal/network"
	"where-money-moves/internal/notify"
	"where-money-moves/internal/storage"
	chstore "where-money-moves/internal/storage/clickhouse"
	"where-money-moves/internal/storage/memory"
	"where-money-moves/internal/storage/migrations"
	pgstore "where-money-moves/internal/storage/postgres"
	"where-money-moves/internal/wallet"
)

const (
	shutdownTimeout  = 30 * time.Second
	walletSyncPeriod = 5 * time.Second
	notificationKeep = 100
)

// stores holds the storage implementations.
type stores struct {
	events    storage.AttemptEventStore
	snapshots storage.SupplySnapshotStore
}

func main() {
	// Load .env file if exists
	config.LoadEnvFile(".env")

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("Invalid environment: %v", err)
	}
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	if err := errors.Join(cfg.Validate(), cfg.ValidateWallet(), cfg.ValidateStorage()); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	st, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Channel to signal completion
	done := make(chan struct{})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(shutdownTimeout):
			logger.Printf("Graceful shutdown timed out after %s, forcing exit", shutdownTimeout)
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, st, logger)
	close(done)
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// run wires every component and blocks until ctx is cancelled or one of the
// long-running parts fails.
func run(ctx context.Context, cfg *config.Config, st *stores, logger *log.Logger) error {
	target := cfg.Network()
	rpc := evm.NewHTTPClient(cfg.RPCEndpoint)

	w, err := cfg.NewWallet(log.New(os.Stdout, "[wallet] ", log.LstdFlags))
	if err != nil {
		return fmt.Errorf("wallet: %w", err)
	}

	guard := network.NewGuard(w, target, log.New(os.Stdout, "[network] ", log.LstdFlags))
	client := contract.NewClient(rpc, w, contract.Options{
		Address:       cfg.Contract(),
		CacheDuration: cfg.CacheDuration,
		Logger:        log.New(os.Stdout, "[contract] ", log.LstdFlags),
	})
	poller := contract.NewPoller(client, contract.PollerOptions{
		Interval:  cfg.PollInterval,
		Snapshots: st.snapshots,
		Wallet:    w,
		Logger:    log.New(os.Stdout, "[poller] ", log.LstdFlags|log.Lshortfile),
	})

	hub := notify.NewHub(nil, log.New(os.Stdout, "[ws] ", log.LstdFlags))
	defer hub.Close()
	history := notify.NewRecorder(notificationKeep)
	notifier := notify.Multi{
		notify.NewLogNotifier(log.New(os.Stdout, "[notify] ", log.LstdFlags)),
		history,
		hub,
	}

	controller, err := mint.New(mint.Options{
		Wallet:         w,
		Guard:          guard,
		Contract:       client,
		Notifier:       notifier,
		Events:         st.events,
		ConfirmTimeout: cfg.ConfirmTimeout,
		UnitPrice:      cfg.UnitPrice,
		Logger:         log.New(os.Stdout, "[mint] ", log.LstdFlags|log.Lshortfile),
	})
	if err != nil {
		return fmt.Errorf("mint controller: %w", err)
	}
	defer controller.Shutdown()

	cat := catalog.New(catalog.Options{
		Source: catalogSource(cfg),
		Logger: log.New(os.Stdout, "[catalog] ", log.LstdFlags),
	})
	if _, err := cat.Load(ctx, nil); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(api.Options{
			Catalog:   cat,
			Supply:    client,
			Wallet:    w,
			Guard:     guard,
			Mint:      controller,
			Events:    st.events,
			Snapshots: st.snapshots,
			History:   history,
			Stream:    hub,
			Logger:    log.New(os.Stdout, "[api] ", log.LstdFlags),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		poller.Run(gctx)
		return nil
	})

	if rw, ok := w.(*wallet.RPCWallet); ok {
		g.Go(func() error {
			syncWallet(gctx, rw, logger)
			return nil
		})
	}

	g.Go(func() error {
		logger.Printf("Starting HTTP server on %s (network %s, chain %d, contract %s)",
			cfg.HTTPAddr, target.Name, target.ChainID, cfg.Contract().Hex())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// syncWallet picks up account and chain changes made in the external wallet.
func syncWallet(ctx context.Context, w *wallet.RPCWallet, logger *log.Logger) {
	ticker := time.NewTicker(walletSyncPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.Session().IsConnected() {
				continue
			}
			if err := w.Sync(ctx); err != nil && ctx.Err() == nil {
				logger.Printf("WARN: wallet sync failed: %v", err)
			}
		}
	}
}

func catalogSource(cfg *config.Config) catalog.Source {
	if cfg.CatalogSource != config.CatalogMetadata {
		return nil
	}
	if cfg.MetadataDir != "" {
		return catalog.NewDirSource(cfg.MetadataDir, log.New(os.Stdout, "[catalog] ", log.LstdFlags))
	}
	return catalog.NewHTTPSource(cfg.MetadataURL, nil, log.New(os.Stdout, "[catalog] ", log.LstdFlags))
}

// createStores creates storage based on configuration.
func createStores(ctx context.Context, cfg *config.Config) (*stores, func(), error) {
	if cfg.UseMemory {
		return &stores{
			events:    memory.NewAttemptEventStore(),
			snapshots: memory.NewSupplySnapshotStore(),
		}, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	// ClickHouse (creates the database when missing)
	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	st := &stores{
		events:    pgstore.NewAttemptEventStore(pool),
		snapshots: chstore.NewSupplySnapshotStore(chConn),
	}
	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return st, cleanup, nil
}
