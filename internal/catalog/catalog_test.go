package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"where-money-moves/internal/domain"
)

func TestSupplyTable(t *testing.T) {
	want := []uint64{420, 480, 510, 540, 555, 555, 555, 555, 555, 540, 555, 555, 594}
	for i, w := range want {
		assert.Equal(t, w, TotalSupplyFor(i+1))
	}
	assert.Zero(t, TotalSupplyFor(0))
	assert.Zero(t, TotalSupplyFor(14))
}

func TestFallbackEditions(t *testing.T) {
	recs := FallbackEditions()
	require.Len(t, recs, EditionCount)

	for i, r := range recs {
		assert.Equal(t, i+1, r.ID)
		assert.Equal(t, fmt.Sprintf("Edition %d", i+1), r.Title)
		assert.Equal(t, "2025", r.Date)
		assert.Zero(t, r.MintCount)
		assert.Equal(t, SupplyLimits[i], r.TotalSupply)
	}
}

func TestStaticEditions(t *testing.T) {
	recs := StaticEditions(nil)
	require.Len(t, recs, EditionCount)

	assert.Equal(t, "Genesis Protocol", recs[0].Title)
	assert.Equal(t, "2024-01-15", recs[0].Date)
	assert.Equal(t, "Pre-TGE Culmination", recs[12].Title)
	for _, r := range recs {
		assert.LessOrEqual(t, r.MintCount, r.TotalSupply)
		assert.NotEmpty(t, r.Lore)
	}
}

type mapSource map[int]*domain.EditionMetadata

func (m mapSource) Fetch(_ context.Context, id int) (*domain.EditionMetadata, error) {
	return m[id], nil
}

func TestCatalog_ZeroDocumentsFallsBack(t *testing.T) {
	c := New(Options{Source: mapSource{}})

	recs, err := c.Load(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, recs, EditionCount)
	assert.True(t, c.IsFallback())

	for i, r := range recs {
		assert.Equal(t, i+1, r.ID)
		assert.Zero(t, r.MintCount)
		assert.Equal(t, SupplyLimits[i], r.TotalSupply)
	}
}

func TestCatalog_PartialDocumentsSortedByID(t *testing.T) {
	src := mapSource{
		9: {Name: "Where Money Moves - Edition #Nine"},
		2: {Name: "Where Money Moves - Edition #Two"},
	}
	c := New(Options{Source: src})

	recs, err := c.Load(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.False(t, c.IsFallback())
	assert.Equal(t, 2, recs[0].ID)
	assert.Equal(t, 9, recs[1].ID)

	e, err := c.Edition(9)
	require.NoError(t, err)
	assert.Equal(t, "Nine", e.Title)

	_, err = c.Edition(3)
	assert.ErrorIs(t, err, ErrUnknownEdition)
	_, err = c.Edition(42)
	assert.ErrorIs(t, err, ErrUnknownEdition)
}

type failingSource struct{}

func (failingSource) Fetch(context.Context, int) (*domain.EditionMetadata, error) {
	return nil, errors.New("boom")
}

func TestCatalog_SourceErrorFailsLoad(t *testing.T) {
	c := New(Options{Source: failingSource{}})

	_, err := c.Load(context.Background(), nil)
	assert.Error(t, err)
	assert.Empty(t, c.Editions())
}

func TestCatalog_Available(t *testing.T) {
	stats := make([]uint64, EditionCount)
	stats[0] = SupplyLimits[0] // sold out
	c := New(Options{})

	_, err := c.Load(context.Background(), stats)
	require.NoError(t, err)

	avail := c.Available()
	require.Len(t, avail, EditionCount-2)
	for _, e := range avail {
		assert.NotEqual(t, 1, e.ID)
		assert.NotEqual(t, CapstoneEditionID, e.ID)
	}
}

func TestCatalog_EditionsReturnsCopy(t *testing.T) {
	c := New(Options{})
	_, err := c.Load(context.Background(), nil)
	require.NoError(t, err)

	recs := c.Editions()
	recs[0].Title = "mutated"
	assert.Equal(t, "Genesis Protocol", c.Editions()[0].Title)
}

func TestProgressFor(t *testing.T) {
	p := ProgressFor([]int{1, 2, 2, 5, 99})
	assert.Equal(t, Progress{Owned: 3, Total: 13, Percent: 23, Complete: false}, p)

	all := make([]int, EditionCount)
	for i := range all {
		all[i] = i + 1
	}
	p = ProgressFor(all)
	assert.True(t, p.Complete)
	assert.Equal(t, 100, p.Percent)
}

func TestHTTPSource(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch {
		case strings.HasSuffix(r.URL.Path, "/edition1.json"):
			_ = json.NewEncoder(w).Encode(domain.EditionMetadata{
				Name:       "Where Money Moves - Edition #Genesis Protocol",
				Attributes: []domain.MetadataAttribute{{TraitType: "date", Value: "2024-01-15"}},
			})
		case strings.HasSuffix(r.URL.Path, "/edition2.json"):
			_, _ = w.Write([]byte("{not json"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := New(Options{Source: NewHTTPSource(server.URL+"/ipfs/where%20money%20moves/metadata/", nil, nil)})
	recs, err := c.Load(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, int32(EditionCount), hits.Load())
	require.Len(t, recs, 1)
	assert.Equal(t, "Genesis Protocol", recs[0].Title)
	assert.Equal(t, "2024-01-15", recs[0].Date)
}

func TestHTTPSource_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPSource(server.URL, nil, nil).Fetch(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	doc := `{"name":"Where Money Moves - Edition #Settlement Surge","attributes":[{"trait_type":"theme","value":"Institutions"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "edition2.json"), []byte(doc), 0o644))

	c := New(Options{Source: NewDirSource(dir, nil)})
	recs, err := c.Load(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, recs, 1)
	assert.Equal(t, "Settlement Surge", recs[0].Title)
	assert.Equal(t, "Institutions", recs[0].Headline)
	assert.Equal(t, uint64(480), recs[0].TotalSupply)
}
