package reporting

import (
	"encoding/csv"
	"io"
	"strconv"
)

var csvHeader = []string{
	"id", "title", "date", "rarity", "visual_tier",
	"mint_count", "total_supply", "remaining", "percent_minted", "status",
}

// WriteCSV writes edition rows as CSV, in the given order.
func WriteCSV(w io.Writer, rows []EditionRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range rows {
		err := cw.Write([]string{
			strconv.Itoa(e.ID),
			e.Title,
			e.Date,
			e.Rarity,
			e.VisualTier,
			strconv.FormatUint(e.MintCount, 10),
			strconv.FormatUint(e.TotalSupply, 10),
			strconv.FormatUint(e.Remaining, 10),
			strconv.FormatFloat(e.PercentMinted, 'f', 2, 64),
			e.Status,
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
