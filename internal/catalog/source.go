package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"where-money-moves/internal/domain"
)

// Source fetches per-edition metadata documents.
// A missing or unusable document is reported as nil, nil.
type Source interface {
	Fetch(ctx context.Context, id int) (*domain.EditionMetadata, error)
}

func documentName(id int) string {
	return fmt.Sprintf("edition%d.json", id)
}

// HTTPSource fetches <base>/edition<N>.json over HTTP.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

// NewHTTPSource creates a source rooted at baseURL, which must already be URL-escaped.
func NewHTTPSource(baseURL string, client *http.Client, logger *log.Logger) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// Fetch retrieves the document of edition id.
func (s *HTTPSource) Fetch(ctx context.Context, id int) (*domain.EditionMetadata, error) {
	url := s.baseURL + "/" + documentName(id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Printf("WARN: load metadata for edition %d: %v", id, err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Printf("WARN: load metadata for edition %d: HTTP %d", id, resp.StatusCode)
		return nil, nil
	}

	return decodeDocument(resp.Body, id, s.logger), nil
}

// DirSource reads edition<N>.json files from a local directory.
type DirSource struct {
	dir    string
	logger *log.Logger
}

// NewDirSource creates a source reading from dir.
func NewDirSource(dir string, logger *log.Logger) *DirSource {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &DirSource{dir: dir, logger: logger}
}

// Fetch reads the document of edition id.
func (s *DirSource) Fetch(_ context.Context, id int) (*domain.EditionMetadata, error) {
	f, err := os.Open(filepath.Join(s.dir, documentName(id)))
	if err != nil {
		s.logger.Printf("WARN: load metadata for edition %d: %v", id, err)
		return nil, nil
	}
	defer f.Close()

	return decodeDocument(f, id, s.logger), nil
}

func decodeDocument(r io.Reader, id int, logger *log.Logger) *domain.EditionMetadata {
	var doc domain.EditionMetadata
	if err := json.NewDecoder(io.LimitReader(r, 1<<20)).Decode(&doc); err != nil {
		logger.Printf("WARN: decode metadata for edition %d: %v", id, err)
		return nil
	}
	if doc.Name == "" {
		logger.Printf("WARN: metadata for edition %d has no name", id)
		return nil
	}
	return &doc
}

var (
	_ Source = (*HTTPSource)(nil)
	_ Source = (*DirSource)(nil)
)
