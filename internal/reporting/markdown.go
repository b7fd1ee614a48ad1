package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Where Money Moves Catalog\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.Fallback {
		sb.WriteString("> Edition metadata could not be loaded. Showing fallback records.\n\n")
	}

	// Supply
	sb.WriteString("## Supply\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	if r.Supply.Polled {
		sb.WriteString(fmt.Sprintf("| Total Minted | %d |\n", r.Supply.TotalMinted))
		sb.WriteString(fmt.Sprintf("| Max Supply | %d |\n", r.Supply.MaxSupply))
		sb.WriteString(fmt.Sprintf("| Remaining | %d |\n", r.Supply.Remaining))
		sb.WriteString(fmt.Sprintf("| Minted (24h) | %d |\n", r.Supply.MintedInDay))
		sb.WriteString(fmt.Sprintf("| Block | %d |\n", r.Supply.BlockNumber))
		sb.WriteString(fmt.Sprintf("| Polled At | %s |\n", r.Supply.PolledAt.Format(time.RFC3339)))
	} else {
		sb.WriteString("| Total Minted | n/a |\n")
	}
	sb.WriteString(fmt.Sprintf("| Edition Supply Cap | %d |\n", r.Supply.EditionsCap))
	sb.WriteString(fmt.Sprintf("| Editions Sold Out | %d |\n", r.Supply.EditionsSold))
	sb.WriteString(fmt.Sprintf("| Editions Available | %d |\n", r.Supply.Available))
	sb.WriteString("\n")

	// Editions
	sb.WriteString("## Editions\n\n")
	if len(r.Editions) == 0 {
		sb.WriteString("No editions loaded.\n")
		return sb.String()
	}
	sb.WriteString("| # | Title | Date | Rarity | Minted | Supply | Remaining | Minted % | Status |\n")
	sb.WriteString("|---|-------|------|--------|--------|--------|-----------|----------|--------|\n")
	for _, e := range r.Editions {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %d | %d | %d | %.1f | %s |\n",
			e.ID, escapeCell(e.Title), escapeCell(e.Date), escapeCell(orDash(e.Rarity)),
			e.MintCount, e.TotalSupply, e.Remaining, e.PercentMinted, e.Status))
	}

	return sb.String()
}

// WriteMarkdown writes the rendered report to w.
func WriteMarkdown(w io.Writer, r *Report) error {
	_, err := io.WriteString(w, RenderMarkdown(r))
	return err
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
