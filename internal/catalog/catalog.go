// Package catalog builds the thirteen edition display records.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"where-money-moves/internal/domain"
)

// ErrUnknownEdition is returned for ids outside 1..13.
var ErrUnknownEdition = errors.New("unknown edition")

const defaultConcurrency = 4

// Options configures a Catalog.
type Options struct {
	// Source supplies metadata documents. Nil serves the static definitions.
	Source Source

	// Concurrency bounds parallel fetches. Defaults to 4.
	Concurrency int

	Logger *log.Logger
}

// Catalog loads and caches the edition records.
type Catalog struct {
	source      Source
	concurrency int
	logger      *log.Logger

	mu       sync.RWMutex
	editions []domain.EditionRecord
	fallback bool
}

// New creates an empty catalog. Call Load before reading.
func New(opts Options) *Catalog {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	return &Catalog{
		source:      opts.Source,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
	}
}

// Load (re)builds the records. stats holds per-edition mint counts indexed
// by id-1 and may be nil. When the source yields no usable document the
// synthetic fallback set is served instead.
func (c *Catalog) Load(ctx context.Context, stats []uint64) ([]domain.EditionRecord, error) {
	var (
		editions []domain.EditionRecord
		fallback bool
	)

	if c.source == nil {
		editions = StaticEditions(stats)
	} else {
		fetched, err := c.fetchAll(ctx, stats)
		if err != nil {
			return nil, err
		}
		editions = fetched
		if len(editions) == 0 {
			c.logger.Printf("WARN: no edition metadata available, using fallback catalog")
			editions = FallbackEditions()
			fallback = true
		}
	}

	c.mu.Lock()
	c.editions = editions
	c.fallback = fallback
	c.mu.Unlock()

	c.logger.Printf("Loaded %d editions (fallback=%v)", len(editions), fallback)
	return cloneRecords(editions), nil
}

func (c *Catalog) fetchAll(ctx context.Context, stats []uint64) ([]domain.EditionRecord, error) {
	docs := make([]*domain.EditionMetadata, EditionCount)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for id := 1; id <= EditionCount; id++ {
		id := id
		g.Go(func() error {
			doc, err := c.source.Fetch(gctx, id)
			if err != nil {
				return fmt.Errorf("fetch edition %d: %w", id, err)
			}
			docs[id-1] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.EditionRecord
	for i, doc := range docs {
		if doc != nil {
			out = append(out, MapMetadata(doc, i+1, stats))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// IsFallback reports whether the last load fell back to synthetic records.
func (c *Catalog) IsFallback() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fallback
}

// Editions returns the loaded records ordered by id.
func (c *Catalog) Editions() []domain.EditionRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneRecords(c.editions)
}

// Edition returns the record with the given id.
func (c *Catalog) Edition(id int) (domain.EditionRecord, error) {
	if !ValidID(id) {
		return domain.EditionRecord{}, fmt.Errorf("%w: %d", ErrUnknownEdition, id)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.editions {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.EditionRecord{}, fmt.Errorf("%w: %d not loaded", ErrUnknownEdition, id)
}

// Available returns the editions open for claim: not sold out and not the
// capstone edition.
func (c *Catalog) Available() []domain.EditionRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []domain.EditionRecord
	for _, e := range c.editions {
		if e.MintCount < e.TotalSupply && e.ID != CapstoneEditionID {
			out = append(out, e)
		}
	}
	return out
}

// Progress is a collector's completion of the collection.
type Progress struct {
	Owned    int  `json:"owned"`
	Total    int  `json:"total"`
	Percent  int  `json:"percent"`
	Complete bool `json:"complete"`
}

// ProgressFor summarizes owned edition ids. Unknown and repeated ids are ignored.
func ProgressFor(ownedIDs []int) Progress {
	seen := make(map[int]struct{}, len(ownedIDs))
	for _, id := range ownedIDs {
		if ValidID(id) {
			seen[id] = struct{}{}
		}
	}
	owned := len(seen)
	return Progress{
		Owned:    owned,
		Total:    EditionCount,
		Percent:  int(math.Round(float64(owned) / EditionCount * 100)),
		Complete: owned == EditionCount,
	}
}

func cloneRecords(in []domain.EditionRecord) []domain.EditionRecord {
	if in == nil {
		return nil
	}
	out := make([]domain.EditionRecord, len(in))
	copy(out, in)
	return out
}
