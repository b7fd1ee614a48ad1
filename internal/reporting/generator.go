package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"where-money-moves/internal/catalog"
	"where-money-moves/internal/domain"
	"where-money-moves/internal/storage"
)

// EditionLister is the catalog surface the generator reads.
type EditionLister interface {
	Editions() []domain.EditionRecord
	IsFallback() bool
}

// Generator produces reports from the loaded catalog and stored supply snapshots.
type Generator struct {
	editions  EditionLister
	snapshots storage.SupplySnapshotStore // optional
	now       func() time.Time            // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. snapshots may be nil.
func NewGenerator(editions EditionLister, snapshots storage.SupplySnapshotStore) *Generator {
	return &Generator{
		editions:  editions,
		snapshots: snapshots,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	rows := editionRows(g.editions.Editions())

	supply, err := g.supplySummary(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		supply.EditionsCap += r.TotalSupply
		switch r.Status {
		case StatusSoldOut:
			supply.EditionsSold++
		case StatusAvailable:
			supply.Available++
		}
	}

	return &Report{
		GeneratedAt: g.now(),
		Fallback:    g.editions.IsFallback(),
		Supply:      supply,
		Editions:    rows,
	}, nil
}

// supplySummary reads the latest snapshot and the 24h before it.
func (g *Generator) supplySummary(ctx context.Context) (SupplySummary, error) {
	var s SupplySummary
	if g.snapshots == nil {
		return s, nil
	}

	latest, err := g.snapshots.GetLatest(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("latest supply snapshot: %w", err)
	}

	s.Polled = true
	s.PolledAt = time.UnixMilli(latest.TimestampMs).UTC()
	s.BlockNumber = latest.BlockNumber
	s.TotalMinted = latest.TotalMinted
	s.MaxSupply = latest.MaxSupply
	if latest.MaxSupply > latest.TotalMinted {
		s.Remaining = latest.MaxSupply - latest.TotalMinted
	}

	dayAgo := latest.TimestampMs - int64(24*time.Hour/time.Millisecond)
	window, err := g.snapshots.GetByTimeRange(ctx, dayAgo, latest.TimestampMs)
	if err != nil {
		return s, fmt.Errorf("supply snapshots since %d: %w", dayAgo, err)
	}
	if len(window) > 0 && window[0].TotalMinted < latest.TotalMinted {
		s.MintedInDay = latest.TotalMinted - window[0].TotalMinted
	}
	return s, nil
}

func editionRows(records []domain.EditionRecord) []EditionRow {
	rows := make([]EditionRow, 0, len(records))
	for _, e := range records {
		row := EditionRow{
			ID:          e.ID,
			Title:       e.Title,
			Date:        e.Date,
			Rarity:      e.Rarity,
			VisualTier:  e.VisualTier,
			MintCount:   e.MintCount,
			TotalSupply: e.TotalSupply,
			Remaining:   e.Remaining(),
			Status:      StatusAvailable,
		}
		if e.TotalSupply > 0 {
			row.PercentMinted = float64(e.MintCount) / float64(e.TotalSupply) * 100
		}
		switch {
		case e.ID == catalog.CapstoneEditionID:
			row.Status = StatusCapstone
		case e.SoldOut():
			row.Status = StatusSoldOut
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}
