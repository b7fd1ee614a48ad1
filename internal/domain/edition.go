package domain

// EditionRecord is the display record of one collectible edition.
// Records are built by the catalog and are read-only to every consumer.
type EditionRecord struct {
	ID          int    `json:"id"` // 1..13, unique
	Title       string `json:"title"`
	Date        string `json:"date"`
	Headline    string `json:"headline"`
	Stat        string `json:"stat"`
	Description string `json:"description"`
	Lore        string `json:"lore"`
	ExternalURL string `json:"external_url,omitempty"`
	Image       string `json:"image,omitempty"`
	Theme       string `json:"theme,omitempty"`
	VisualTier  string `json:"visual_tier,omitempty"`
	Rarity      string `json:"rarity,omitempty"`

	MintCount   uint64 `json:"mint_count"`
	TotalSupply uint64 `json:"total_supply"`
}

// SoldOut reports whether the edition has no remaining supply.
func (e EditionRecord) SoldOut() bool {
	return e.TotalSupply > 0 && e.MintCount >= e.TotalSupply
}

// Remaining returns the unminted supply, never negative.
func (e EditionRecord) Remaining() uint64 {
	if e.MintCount >= e.TotalSupply {
		return 0
	}
	return e.TotalSupply - e.MintCount
}

// EditionMetadata is the static JSON document published per edition.
type EditionMetadata struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	Attributes  []MetadataAttribute `json:"attributes"`
}

// MetadataAttribute is one {trait_type, value} pair. Value is a string or a number.
type MetadataAttribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}
