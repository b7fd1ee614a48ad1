package domain

// SupplySnapshot is one polled reading of collection-wide supply.
// Corresponds to supply_snapshots table in ClickHouse.
type SupplySnapshot struct {
	TimestampMs int64
	BlockNumber uint64
	TotalMinted uint64
	MaxSupply   uint64
}

// SupplyView is the supply summary returned to clients.
type SupplyView struct {
	TotalMinted       uint64 `json:"total_minted"`
	MaxSupply         uint64 `json:"max_supply"`
	Remaining         uint64 `json:"remaining"`
	UserMintedCount   uint64 `json:"user_minted_count"`
	MaxMintsPerWallet uint64 `json:"max_mints_per_wallet"`
	CanUserMint       bool   `json:"can_user_mint"`
}
