// Package main writes the edition catalog report (CATALOG.md, editions.csv).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"where-money-moves/internal/catalog"
	"where-money-moves/internal/config"
	"where-money-moves/internal/contract"
	"where-money-moves/internal/evm"
	"where-money-moves/internal/reporting"
	"where-money-moves/internal/storage"
	chstore "where-money-moves/internal/storage/clickhouse"
	"where-money-moves/internal/storage/memory"
)

func main() {
	config.LoadEnvFile(".env")

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("Invalid environment: %v", err)
	}
	cfg.RegisterFlags(flag.CommandLine)
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	printTable := flag.Bool("table", false, "Also print the edition table to stdout")
	live := flag.Bool("live", true, "Read current supply from the RPC endpoint")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	snapshots, cleanup, err := openSnapshots(ctx, cfg)
	if err != nil {
		logger.Fatalf("Open snapshots: %v", err)
	}
	defer cleanup()

	if *live && cfg.RPCEndpoint != "" {
		client := contract.NewClient(evm.NewHTTPClient(cfg.RPCEndpoint), nil, contract.Options{
			Address: cfg.Contract(),
			Logger:  logger,
		})
		poller := contract.NewPoller(client, contract.PollerOptions{Snapshots: snapshots, Logger: logger})
		if err := poller.Poll(ctx); err != nil {
			// Stored snapshots, if any, still produce a supply section.
			logger.Printf("WARN: live supply unavailable: %v", err)
		}
	}

	var source catalog.Source
	if cfg.CatalogSource == config.CatalogMetadata {
		if cfg.MetadataDir != "" {
			source = catalog.NewDirSource(cfg.MetadataDir, logger)
		} else {
			source = catalog.NewHTTPSource(cfg.MetadataURL, nil, logger)
		}
	}
	cat := catalog.New(catalog.Options{Source: source, Logger: logger})
	if _, err := cat.Load(ctx, nil); err != nil {
		logger.Fatalf("Load catalog: %v", err)
	}

	report, err := reporting.NewGenerator(cat, snapshots).Generate(ctx)
	if err != nil {
		logger.Fatalf("Generate report: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatalf("Create output dir: %v", err)
	}
	mdPath := filepath.Join(*outputDir, "CATALOG.md")
	csvPath := filepath.Join(*outputDir, "editions.csv")
	if err := writeFile(mdPath, func(f *os.File) error { return reporting.WriteMarkdown(f, report) }); err != nil {
		logger.Fatalf("Write %s: %v", mdPath, err)
	}
	if err := writeFile(csvPath, func(f *os.File) error { return reporting.WriteCSV(f, report.Editions) }); err != nil {
		logger.Fatalf("Write %s: %v", csvPath, err)
	}

	if *printTable {
		if err := reporting.WriteTable(os.Stdout, report); err != nil {
			logger.Fatalf("Print table: %v", err)
		}
	}

	fmt.Println("Catalog report generated successfully:")
	fmt.Printf("  - %s\n", mdPath)
	fmt.Printf("  - %s\n", csvPath)
}

// openSnapshots returns the ClickHouse store when a DSN is configured and
// an empty in-memory store otherwise.
func openSnapshots(ctx context.Context, cfg *config.Config) (storage.SupplySnapshotStore, func(), error) {
	if cfg.UseMemory || cfg.ClickhouseDSN == "" {
		return memory.NewSupplySnapshotStore(), func() {}, nil
	}
	conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	return chstore.NewSupplySnapshotStore(conn), func() { conn.Close() }, nil
}

func writeFile(path string, write func(*os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return write(f)
}
