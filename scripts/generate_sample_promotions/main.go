// Command generate_sample_promotions writes gzipped promotion feed files for
// local runs of the startup importer (PROMO_FEED_FILES).
//
// promos_base.csv.gz holds the standing codes; promos_weekend.csv.gz
// overrides HAPPY10 with a larger discount, since later files win.
package main

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

func main() {
	dataDir := "data/promotions"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	feeds := map[string][][]string{
		"promos_base.csv.gz": {
			{"code", "type", "value", "min_spend"},
			{"HAPPY10", "percent", "10", ""},
			{"WELCOME50", "fixed", "50", "200"},
			{"STAFF", "percent", "30", ""},
			{"LOYAL5", "fixed", "5", ""},
		},
		"promos_weekend.csv.gz": {
			{"code", "type", "value", "min_spend"},
			{"HAPPY10", "percent", "15", ""},
			{"BRUNCH", "amount", "40", "300"},
		},
	}

	for filename, rows := range feeds {
		filePath := filepath.Join(dataDir, filename)

		if err := writeFeed(filePath, rows); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d codes\n", filePath, len(rows)-1)
	}

	fmt.Println("\nSample promotion feeds created successfully!")
	fmt.Printf("Set PROMO_FEED_FILES=%s,%s\n",
		filepath.Join(dataDir, "promos_base.csv.gz"),
		filepath.Join(dataDir, "promos_weekend.csv.gz"))
}

func writeFeed(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	w := csv.NewWriter(gz)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}

	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return nil
}
