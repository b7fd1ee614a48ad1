package config

import (
	"log"

	"github.com/ethereum/go-ethereum/common"

	"where-money-moves/internal/evm"
	"where-money-moves/internal/wallet"
)

// NewWallet builds the wallet provider selected by WalletMode on the
// configured network. Keystore mode signs locally through RPCEndpoint.
func (c *Config) NewWallet(logger *log.Logger) (wallet.Provider, error) {
	target := c.Network()

	if c.WalletMode != WalletKeystore {
		return wallet.NewRPCWallet(evm.NewHTTPClient(c.WalletRPCEndpoint), target, logger), nil
	}

	opts := wallet.KeystoreOptions{
		Dir:          c.KeystoreDir,
		Passphrase:   c.KeystorePassphrase,
		Endpoints:    map[uint64]string{target.ChainID: c.RPCEndpoint},
		InitialChain: target.ChainID,
		Logger:       logger,
	}
	if c.KeystoreAccount != "" {
		opts.Account = common.HexToAddress(c.KeystoreAccount)
	}
	kw, err := wallet.NewKeystoreWallet(opts)
	if err != nil {
		return nil, err
	}
	return kw, nil
}
