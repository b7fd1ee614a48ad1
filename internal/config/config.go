// Package config holds the settings shared by the commands. Values come from
// flags whose defaults are read from the environment, after an optional .env
// file has been loaded.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"where-money-moves/internal/contract"
	"where-money-moves/internal/domain"
)

// Wallet modes.
const (
	WalletRPC      = "rpc"
	WalletKeystore = "keystore"
)

// Catalog sources.
const (
	CatalogStatic   = "static"
	CatalogMetadata = "metadata"
)

// Config is the resolved configuration of a command.
type Config struct {
	RPCEndpoint string

	WalletMode         string
	WalletRPCEndpoint  string
	KeystoreDir        string
	KeystoreAccount    string
	KeystorePassphrase string

	ChainID     uint64
	NetworkName string
	ExplorerURL string

	ContractAddress string

	CatalogSource string
	MetadataURL   string
	MetadataDir   string

	UnitPrice      decimal.Decimal
	PollInterval   time.Duration
	CacheDuration  time.Duration
	ConfirmTimeout time.Duration

	PostgresDSN   string
	ClickhouseDSN string
	UseMemory     bool

	HTTPAddr string
}

// FromEnv builds a Config from the environment, falling back to the Plasma
// defaults. Malformed values are reported together.
func FromEnv() (*Config, error) {
	var errs []error

	c := &Config{
		RPCEndpoint:        envString("WMM_RPC_ENDPOINT", domain.Plasma.RPCURL),
		WalletMode:         envString("WMM_WALLET_MODE", WalletRPC),
		WalletRPCEndpoint:  os.Getenv("WMM_WALLET_RPC_ENDPOINT"),
		KeystoreDir:        os.Getenv("WMM_KEYSTORE_DIR"),
		KeystoreAccount:    os.Getenv("WMM_KEYSTORE_ACCOUNT"),
		KeystorePassphrase: os.Getenv("WMM_KEYSTORE_PASSPHRASE"),
		NetworkName:        envString("WMM_NETWORK_NAME", domain.Plasma.Name),
		ExplorerURL:        envString("WMM_EXPLORER_URL", domain.Plasma.ExplorerURL),
		ContractAddress:    envString("WMM_CONTRACT_ADDRESS", contract.DefaultAddress.Hex()),
		CatalogSource:      envString("WMM_CATALOG_SOURCE", CatalogStatic),
		MetadataURL:        os.Getenv("WMM_METADATA_URL"),
		MetadataDir:        os.Getenv("WMM_METADATA_DIR"),
		PostgresDSN:        os.Getenv("POSTGRES_DSN"),
		ClickhouseDSN:      os.Getenv("CLICKHOUSE_DSN"),
		HTTPAddr:           envString("WMM_HTTP_ADDR", ":8080"),
	}

	var err error
	if c.ChainID, err = envUint("WMM_CHAIN_ID", domain.Plasma.ChainID); err != nil {
		errs = append(errs, err)
	}
	if c.UnitPrice, err = envDecimal("WMM_UNIT_PRICE", decimal.Zero); err != nil {
		errs = append(errs, err)
	}
	if c.PollInterval, err = envDuration("WMM_POLL_INTERVAL", contract.DefaultPollInterval); err != nil {
		errs = append(errs, err)
	}
	if c.CacheDuration, err = envDuration("WMM_CACHE_DURATION", contract.DefaultCacheDuration); err != nil {
		errs = append(errs, err)
	}
	if c.ConfirmTimeout, err = envDuration("WMM_CONFIRM_TIMEOUT", contract.DefaultConfirmationTimeout); err != nil {
		errs = append(errs, err)
	}
	if c.UseMemory, err = envBool("WMM_USE_MEMORY", false); err != nil {
		errs = append(errs, err)
	}

	return c, errors.Join(errs...)
}

// RegisterFlags binds every setting to a flag on fs, using the current
// values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.RPCEndpoint, "rpc-endpoint", c.RPCEndpoint, "EVM JSON-RPC endpoint used for contract reads")
	fs.StringVar(&c.WalletMode, "wallet-mode", c.WalletMode, "Wallet provider: rpc or keystore")
	fs.StringVar(&c.WalletRPCEndpoint, "wallet-rpc-endpoint", c.WalletRPCEndpoint, "JSON-RPC endpoint of the wallet (rpc mode)")
	fs.StringVar(&c.KeystoreDir, "keystore-dir", c.KeystoreDir, "Keystore directory (keystore mode)")
	fs.StringVar(&c.KeystoreAccount, "keystore-account", c.KeystoreAccount, "Keystore account address, first account if empty")
	fs.StringVar(&c.KeystorePassphrase, "keystore-passphrase", c.KeystorePassphrase, "Keystore passphrase")
	fs.Uint64Var(&c.ChainID, "chain-id", c.ChainID, "Target chain id")
	fs.StringVar(&c.NetworkName, "network-name", c.NetworkName, "Target network display name")
	fs.StringVar(&c.ExplorerURL, "explorer-url", c.ExplorerURL, "Block explorer base URL")
	fs.StringVar(&c.ContractAddress, "contract", c.ContractAddress, "Collection contract address")
	fs.StringVar(&c.CatalogSource, "catalog-source", c.CatalogSource, "Edition catalog source: static or metadata")
	fs.StringVar(&c.MetadataURL, "metadata-url", c.MetadataURL, "Base URL of the edition metadata documents")
	fs.StringVar(&c.MetadataDir, "metadata-dir", c.MetadataDir, "Directory of edition metadata documents")
	fs.TextVar(&c.UnitPrice, "unit-price", c.UnitPrice, "Displayed price per edition")
	fs.DurationVar(&c.PollInterval, "poll-interval", c.PollInterval, "Total minted poll interval")
	fs.DurationVar(&c.CacheDuration, "cache-duration", c.CacheDuration, "Contract read cache duration")
	fs.DurationVar(&c.ConfirmTimeout, "confirm-timeout", c.ConfirmTimeout, "Transaction confirmation timeout")
	fs.StringVar(&c.PostgresDSN, "postgres-dsn", c.PostgresDSN, "PostgreSQL connection string")
	fs.StringVar(&c.ClickhouseDSN, "clickhouse-dsn", c.ClickhouseDSN, "ClickHouse connection string")
	fs.BoolVar(&c.UseMemory, "use-memory", c.UseMemory, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	fs.StringVar(&c.HTTPAddr, "http-addr", c.HTTPAddr, "HTTP listen address")
}

// Network returns the target network with the configured overrides.
func (c *Config) Network() domain.TargetNetwork {
	n := domain.Plasma
	n.ChainID = c.ChainID
	n.Name = c.NetworkName
	n.ExplorerURL = strings.TrimRight(c.ExplorerURL, "/")
	n.RPCURL = c.RPCEndpoint
	return n
}

// Contract returns the parsed contract address.
func (c *Config) Contract() common.Address {
	return common.HexToAddress(c.ContractAddress)
}

// Validate reports missing or inconsistent values of the shared settings.
func (c *Config) Validate() error {
	var errs []error

	if err := checkURL("rpc-endpoint", c.RPCEndpoint); err != nil {
		errs = append(errs, err)
	}
	if c.ChainID == 0 {
		errs = append(errs, errors.New("chain-id must be non-zero"))
	}
	if !common.IsHexAddress(c.ContractAddress) {
		errs = append(errs, fmt.Errorf("contract %q is not a hex address", c.ContractAddress))
	}
	switch c.CatalogSource {
	case CatalogStatic:
	case CatalogMetadata:
		if c.MetadataURL == "" && c.MetadataDir == "" {
			errs = append(errs, errors.New("catalog-source metadata needs --metadata-url or --metadata-dir"))
		}
		if c.MetadataURL != "" {
			if err := checkURL("metadata-url", c.MetadataURL); err != nil {
				errs = append(errs, err)
			}
		}
	default:
		errs = append(errs, fmt.Errorf("unknown catalog-source %q", c.CatalogSource))
	}
	if c.UnitPrice.IsNegative() {
		errs = append(errs, errors.New("unit-price must not be negative"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll-interval must be positive"))
	}
	if c.CacheDuration <= 0 {
		errs = append(errs, errors.New("cache-duration must be positive"))
	}
	if c.ConfirmTimeout <= 0 {
		errs = append(errs, errors.New("confirm-timeout must be positive"))
	}

	return errors.Join(errs...)
}

// ValidateWallet reports missing wallet settings for the selected mode.
func (c *Config) ValidateWallet() error {
	switch c.WalletMode {
	case WalletRPC:
		return checkURL("wallet-rpc-endpoint", c.WalletRPCEndpoint)
	case WalletKeystore:
		var errs []error
		if c.KeystoreDir == "" {
			errs = append(errs, errors.New("keystore mode needs --keystore-dir"))
		}
		if c.KeystoreAccount != "" && !common.IsHexAddress(c.KeystoreAccount) {
			errs = append(errs, fmt.Errorf("keystore-account %q is not a hex address", c.KeystoreAccount))
		}
		return errors.Join(errs...)
	default:
		return fmt.Errorf("unknown wallet-mode %q", c.WalletMode)
	}
}

// ValidateStorage reports missing DSNs unless in-memory storage is selected.
func (c *Config) ValidateStorage() error {
	if c.UseMemory {
		return nil
	}
	if c.PostgresDSN == "" || c.ClickhouseDSN == "" {
		return errors.New("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}
	return nil
}

func checkURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("--%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("--%s %q is not an absolute URL", name, raw)
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envUint(key string, def uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envDecimal(key string, def decimal.Decimal) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
