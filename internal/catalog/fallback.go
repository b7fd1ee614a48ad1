package catalog

import (
	"fmt"

	"where-money-moves/internal/domain"
)

const (
	fallbackImage      = "ipfs://bafkreibwhq2qgrb3zab2sn3eign3pajgqpx4tw27eqcqdc2gtjepckexkm"
	fallbackVisualTier = "Teal Genesis"
)

// FallbackEditions returns synthetic records built from the supply table alone.
func FallbackEditions() []domain.EditionRecord {
	out := make([]domain.EditionRecord, EditionCount)
	for i, supply := range SupplyLimits {
		out[i] = domain.EditionRecord{
			ID:          i + 1,
			Title:       fmt.Sprintf("Edition %d", i+1),
			Date:        "2025",
			Headline:    "Where Money Moves",
			Stat:        "Stablecoin Evolution",
			Lore:        defaultLore,
			Image:       fallbackImage,
			Theme:       "Stablecoin Evolution",
			VisualTier:  fallbackVisualTier,
			MintCount:   0,
			TotalSupply: supply,
		}
	}
	return out
}
