package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vanshika/basketwise/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		perCategory = flag.Int("per-category", cfg.ProductsPerCategory, "number of products to generate per category")
		maxAlts     = flag.Int("max-alternatives", cfg.MaxAlternatives, "maximum substitutes linked to one product")
		altChance   = flag.Float64("alternative-chance", cfg.AlternativeChance, "probability that a product gets substitutes")
		seed        = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir   = flag.String("output-dir", "seed-data", "directory to write products.json and alternatives.json")
		writeStdout = flag.Bool("stdout", false, "write combined dataset to stdout instead of files")
	)
	flag.Parse()

	genCfg := generator.Config{
		ProductsPerCategory: *perCategory,
		MaxAlternatives:     *maxAlts,
		AlternativeChance:   clampProbability(*altChance),
		Seed:                *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dataset, err := generator.New(genCfg).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := json.NewEncoder(os.Stdout).Encode(dataset); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteDataset(dataset, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d products and %d alternatives into %s\n", len(dataset.Products), len(dataset.Alternatives), *outputDir)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
