package reporting

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// WriteTable prints the edition table for a terminal.
func WriteTable(w io.Writer, r *Report) error {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Title", "Minted", "Supply", "Remaining", "Status")
	for _, e := range r.Editions {
		err := table.Append([]string{
			fmt.Sprint(e.ID),
			e.Title,
			fmt.Sprint(e.MintCount),
			fmt.Sprint(e.TotalSupply),
			fmt.Sprint(e.Remaining),
			e.Status,
		})
		if err != nil {
			return fmt.Errorf("append edition %d: %w", e.ID, err)
		}
	}
	return table.Render()
}
