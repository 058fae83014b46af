package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"

	pgzip "github.com/klauspost/pgzip"
)

var header = []string{
	"code", "name", "description", "discount_type", "discount_value",
	"min_order_amount", "max_discount", "free_shipping", "usage_limit",
	"start_date", "end_date",
}

// generateSampleVouchers writes gzipped CSV files for cmd/voucher-import.
// WELCOME10 appears in both files and is created once, the other copy is skipped.
// BROKEN has an invalid discount value and is counted as failed.
func main() {
	dataDir := "data/vouchers"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	files := map[string][][]string{
		"spring.csv.gz": {
			{"WELCOME10", "Welcome", "10% off your first order", "percentage", "10", "0", "15", "false", "", "2025-01-01", "2026-12-31"},
			{"SHIPFREE", "Free delivery", "Delivery fee waived", "fixed", "0.01", "25", "", "true", "500", "2025-03-01", "2025-05-31"},
			{"SPRING5", "Spring five", "", "fixed", "5", "30", "", "false", "1000", "2025-03-01", "2025-05-31"},
		},
		"summer.csv.gz": {
			{"WELCOME10", "Welcome", "10% off your first order", "percentage", "10", "0", "15", "false", "", "2025-01-01", "2026-12-31"},
			{"SUMMER20", "Summer sale", "20% off orders over 50", "percentage", "20", "50", "25", "false", "", "2025-06-01", "2025-08-31"},
			{"BROKEN", "Broken row", "", "fixed", "ten", "0", "", "false", "", "2025-06-01", "2025-08-31"},
		},
	}

	for filename, rows := range files {
		filePath := filepath.Join(dataDir, filename)

		if err := createVoucherFile(filePath, rows); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d vouchers\n", filePath, len(rows))
	}

	fmt.Println("\nImport with:")
	fmt.Printf("  go run ./cmd/voucher-import %s %s\n",
		filepath.Join(dataDir, "spring.csv.gz"), filepath.Join(dataDir, "summer.csv.gz"))
}

func createVoucherFile(filePath string, rows [][]string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := pgzip.NewWriter(file)
	defer gzipWriter.Close()

	w := csv.NewWriter(gzipWriter)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write vouchers: %w", err)
	}

	return nil
}
