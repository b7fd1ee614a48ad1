// Package api exposes the catalog, wallet, network and mint lifecycle over HTTP.
package api

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"where-money-moves/internal/domain"
	"where-money-moves/internal/mint"
	"where-money-moves/internal/network"
	"where-money-moves/internal/observability"
	"where-money-moves/internal/storage"
	"where-money-moves/internal/wallet"
)

// Catalog is the edition catalog surface served by the API.
type Catalog interface {
	Editions() []domain.EditionRecord
	Edition(id int) (domain.EditionRecord, error)
	Available() []domain.EditionRecord
	IsFallback() bool
}

// SupplyReader reads collection supply and the account's minted count.
type SupplyReader interface {
	Supply(ctx context.Context, account *common.Address) (domain.SupplyView, error)
}

// NetworkGuard reports and corrects the wallet's chain.
type NetworkGuard interface {
	Status() network.Status
	SwitchToTargetNetwork(ctx context.Context) error
}

// MintController is the mint lifecycle surface driven by the API.
type MintController interface {
	Status() mint.Status
	Quote(quantity int) (mint.Quote, error)
	Open() error
	Cancel() error
	Close()
	Mint(ctx context.Context, req domain.MintRequest) (domain.MintAttempt, error)
}

// NotificationHistory returns the recent notifications, oldest first.
type NotificationHistory interface {
	All() []domain.Notification
}

// Options configures the router.
type Options struct {
	Catalog Catalog
	Supply  SupplyReader
	Wallet  wallet.Provider
	Guard   NetworkGuard
	Mint    MintController

	// Events serves attempt audit logs. Optional.
	Events storage.AttemptEventStore

	// Snapshots serves supply history. Optional.
	Snapshots storage.SupplySnapshotStore

	// History serves /notifications. Optional.
	History NotificationHistory

	// Stream is mounted at /ws. Optional.
	Stream http.Handler

	// AllowedOrigins for CORS. Defaults to any origin.
	AllowedOrigins []string

	// RequestTimeout bounds non-streaming handlers. Defaults to 60s.
	RequestTimeout time.Duration

	Logger *log.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	opts   Options
	logger *log.Logger
}

// NewRouter builds the chi router with every route mounted.
func NewRouter(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	s := &Server{opts: opts, logger: opts.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: opts.Logger, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", observability.Handler())
	if opts.Stream != nil {
		r.Handle("/ws", opts.Stream)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))

		r.Route("/editions", func(r chi.Router) {
			r.Get("/", s.handleEditions)
			r.Get("/available", s.handleAvailableEditions)
			r.Get("/progress", s.handleProgress)
			r.Get("/{id}", s.handleEdition)
		})

		r.Get("/supply", s.handleSupply)
		r.Get("/supply/history", s.handleSupplyHistory)

		r.Get("/wallet", s.handleWallet)
		r.Post("/wallet/connect", s.handleWalletConnect)
		r.Post("/wallet/disconnect", s.handleWalletDisconnect)

		r.Get("/network", s.handleNetwork)
		r.Post("/network/switch", s.handleNetworkSwitch)

		r.Route("/mint", func(r chi.Router) {
			r.Get("/", s.handleMintStatus)
			r.Post("/", s.handleMint)
			r.Get("/quote", s.handleMintQuote)
			r.Post("/open", s.handleMintOpen)
			r.Post("/cancel", s.handleMintCancel)
			r.Post("/close", s.handleMintClose)
		})

		r.Get("/attempts/{id}/events", s.handleAttemptEvents)
		r.Get("/accounts/{address}/events", s.handleAccountEvents)
		r.Get("/notifications", s.handleNotifications)
	})

	return r
}
