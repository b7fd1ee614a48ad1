package domain

// TargetNetwork identifies the single chain the collection contract lives on.
type TargetNetwork struct {
	ChainID        uint64
	Name           string
	CurrencyName   string
	CurrencySymbol string
	Decimals       int
	RPCURL         string
	ExplorerName   string
	ExplorerURL    string
}

// Plasma is the network the Where Money Moves contract is deployed on.
var Plasma = TargetNetwork{
	ChainID:        9745,
	Name:           "Plasma",
	CurrencyName:   "Plasma",
	CurrencySymbol: "XPL",
	Decimals:       18,
	RPCURL:         "https://rpc.plasma.to",
	ExplorerName:   "PlasmaScan",
	ExplorerURL:    "https://plasmascan.to",
}

// TxURL returns the explorer link for a transaction hash.
func (n TargetNetwork) TxURL(hash string) string {
	if n.ExplorerURL == "" {
		return ""
	}
	return n.ExplorerURL + "/tx/" + hash
}
