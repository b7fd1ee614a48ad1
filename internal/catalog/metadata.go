package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"where-money-moves/internal/domain"
)

// Metadata field defaults.
const (
	titlePrefix     = "Where Money Moves - Edition #"
	defaultDate     = "Unknown Date"
	defaultHeadline = "Stablecoin Evolution"
	defaultStat     = "Key Developments"
	defaultLore     = "A moment in the evolution of programmable money."
)

// Trait types read from metadata attributes.
const (
	traitDate         = "date"
	traitTheme        = "theme"
	traitLoreFragment = "loreFragment"
	traitExternalURL  = "external_url"
	traitVisualTier   = "visualTier"
)

// MapMetadata builds the display record of edition id from its metadata document.
// Supply comes from the fixed table, never from the document.
func MapMetadata(doc *domain.EditionMetadata, id int, stats []uint64) domain.EditionRecord {
	traits := make(map[string]string, len(doc.Attributes))
	for _, a := range doc.Attributes {
		if v, ok := traitString(a.Value); ok {
			traits[a.TraitType] = v
		} else {
			delete(traits, a.TraitType)
		}
	}

	return domain.EditionRecord{
		ID:          id,
		Title:       strings.Replace(doc.Name, titlePrefix, "", 1),
		Date:        orDefault(traits[traitDate], defaultDate),
		Headline:    orDefault(traits[traitTheme], defaultHeadline),
		Stat:        orDefault(traits[traitLoreFragment], defaultStat),
		Description: doc.Description,
		Lore:        orDefault(traits[traitLoreFragment], defaultLore),
		ExternalURL: traits[traitExternalURL],
		Image:       doc.Image,
		Theme:       traits[traitTheme],
		VisualTier:  traits[traitVisualTier],
		MintCount:   statFor(stats, id),
		TotalSupply: TotalSupplyFor(id),
	}
}

// traitString renders an attribute value. Empty strings, zero and null
// count as absent.
func traitString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case float64:
		if val == 0 {
			return "", false
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case json.Number:
		f, err := val.Float64()
		if err == nil && f == 0 {
			return "", false
		}
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), val
	default:
		return fmt.Sprint(val), true
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func statFor(stats []uint64, id int) uint64 {
	if id < 1 || id > len(stats) {
		return 0
	}
	return stats[id-1]
}
