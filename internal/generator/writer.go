package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteDataset serializes the dataset into products.json and alternatives.json under the provided directory.
func WriteDataset(dataset Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, ProductsFile), dataset.Products); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, AlternativesFile), dataset.Alternatives); err != nil {
		return err
	}
	return nil
}

// File names used by WriteDataset and the ingest command.
const (
	ProductsFile     = "products.json"
	AlternativesFile = "alternatives.json"
)

func writeJSON(path string, data any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}
