package reporting

import "time"

// Report is the catalog and supply report of the collection.
type Report struct {
	GeneratedAt time.Time

	// Fallback is set when the catalog is showing synthetic records.
	Fallback bool

	Supply   SupplySummary
	Editions []EditionRow // sorted by id
}

// SupplySummary describes collection-wide supply.
type SupplySummary struct {
	// Polled reports whether a supply snapshot was available.
	Polled       bool
	PolledAt     time.Time
	BlockNumber  uint64
	TotalMinted  uint64
	MaxSupply    uint64
	Remaining    uint64
	MintedInDay  uint64 // increase over the 24h before the latest snapshot
	EditionsCap  uint64 // sum of per-edition supply caps
	EditionsSold int    // editions with no remaining supply
	Available    int    // editions open for claim
}

// EditionRow is one row of the edition table.
type EditionRow struct {
	ID            int
	Title         string
	Date          string
	Rarity        string
	VisualTier    string
	MintCount     uint64
	TotalSupply   uint64
	Remaining     uint64
	PercentMinted float64
	Status        string // AVAILABLE, SOLD_OUT or CAPSTONE
}

// Edition row statuses.
const (
	StatusAvailable = "AVAILABLE"
	StatusSoldOut   = "SOLD_OUT"
	StatusCapstone  = "CAPSTONE"
)
