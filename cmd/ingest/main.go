package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vanshika/basketwise/internal/catalog"
	"github.com/vanshika/basketwise/internal/config"
	"github.com/vanshika/basketwise/internal/domain"
	"github.com/vanshika/basketwise/internal/generator"
	"github.com/vanshika/basketwise/internal/logging"
	"github.com/vanshika/basketwise/internal/service"
	"github.com/vanshika/basketwise/internal/store"
)

var (
	errMissingDataset = errors.New("dataset not found")
)

func main() {
	var (
		configPath   = flag.String("config", "", "optional YAML config file")
		datasetDir   = flag.String("dataset-dir", "./seed-data", "Directory containing products.json and alternatives.json")
		productsPath = flag.String("products", "", "Path to products.json (overrides dataset-dir)")
		altsPath     = flag.String("alternatives", "", "Path to alternatives.json (overrides dataset-dir); optional")
		workers      = flag.Int("workers", 4, "Number of concurrent workers for ingestion")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	base, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	logger := base.With(zap.String("component", "ingest"))
	defer func() { _ = logger.Sync() }()

	productFile, altFile, err := resolveDatasetPaths(*datasetDir, *productsPath, *altsPath)
	if err != nil {
		logger.Fatal("dataset resolution failed", zap.Error(err))
	}

	var products []domain.Product
	if err := loadJSON(productFile, &products); err != nil {
		logger.Fatal("failed to load products", zap.String("path", productFile), zap.Error(err))
	}
	if len(products) == 0 {
		logger.Fatal("products dataset empty", zap.String("path", productFile))
	}

	var links []service.AlternativeLink
	if altFile != "" {
		if err := loadJSON(altFile, &links); err != nil {
			logger.Fatal("failed to load alternatives", zap.String("path", altFile), zap.Error(err))
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := store.New(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("failed to open catalog database", zap.String("path", cfg.Catalog.Path), zap.Error(err))
	}
	defer db.Close()

	repo, err := catalog.New(ctx, db)
	if err != nil {
		logger.Fatal("failed to prepare catalog", zap.Error(err))
	}
	ingestor := service.NewBulkIngestor(repo, *workers)

	start := time.Now()
	logger.Info("ingesting products", zap.Int("count", len(products)), zap.Int("workers", *workers))
	if err := ingestor.IngestProducts(ctx, products); err != nil {
		logger.Fatal("product ingestion failed", zap.Error(err))
	}

	logger.Info("ingesting alternatives", zap.Int("count", len(links)))
	if err := ingestor.IngestAlternatives(ctx, links); err != nil {
		logger.Fatal("alternative ingestion failed", zap.Error(err))
	}

	total, err := repo.Count(ctx)
	if err != nil {
		logger.Warn("counting catalog failed", zap.Error(err))
	}
	logger.Info("ingestion complete",
		zap.Duration("duration", time.Since(start)),
		zap.Int("products", len(products)),
		zap.Int("alternatives", len(links)),
		zap.Int("catalog_size", total),
		zap.String("database", cfg.Catalog.Path),
	)
}

// resolveDatasetPaths locates the products file, which must exist, and the
// alternatives file, which may be absent.
func resolveDatasetPaths(baseDir, productsPath, altsPath string) (string, string, error) {
	productsFile := productsPath
	if productsFile == "" {
		productsFile = filepath.Join(baseDir, generator.ProductsFile)
	}
	if _, err := os.Stat(productsFile); err != nil {
		return "", "", fmt.Errorf("%w: %s", errMissingDataset, productsFile)
	}

	if altsPath != "" {
		if _, err := os.Stat(altsPath); err != nil {
			return "", "", fmt.Errorf("stat %s: %w", altsPath, err)
		}
		return productsFile, altsPath, nil
	}
	altsFile := filepath.Join(baseDir, generator.AlternativesFile)
	if _, err := os.Stat(altsFile); err != nil {
		return productsFile, "", nil
	}
	return productsFile, altsFile, nil
}

func loadJSON(path string, target any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
