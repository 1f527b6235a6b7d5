// Package feeds moves product data in and out of the store as CSV files:
// bulk imports of externally collected price sheets and full exports of
// the products table.
package feeds

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/nhuertas/supermercat/storage"
)

// exportHeader is the column layout both directions share. Import only
// requires the first five columns; export writes them all.
var exportHeader = []string{"name", "price", "category", "store_id", "quantity", "city", "image_url", "created_at", "updated_at"}

// requiredColumns must be present in an import header.
var requiredColumns = []string{"name", "price", "category", "store_id", "quantity"}

// ImportResult summarizes one CSV import.
type ImportResult struct {
	Imported int
	Updated  int
	Skipped  int
}

// Import reads product rows from r and upserts them into store. Column
// order is taken from the header row; names are matched case-insensitively.
// Rows with an empty name or an unparsable price are skipped with a
// warning, not fatal.
func Import(store *storage.Store, r io.Reader) (ImportResult, error) {
	var result ImportResult

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return result, fmt.Errorf("failed to read csv header: %w", err)
	}

	// Headers like "Store ID" from spreadsheet exports map to store_id.
	columns := make(map[string]int, len(header))
	for i, name := range header {
		normalized := strings.ToLower(strings.TrimSpace(name))
		columns[strings.ReplaceAll(normalized, " ", "_")] = i
	}
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return result, fmt.Errorf("missing required column %q", required)
		}
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return result, fmt.Errorf("failed to read csv row %d: %w", line, err)
		}

		field := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		name := field("name")
		if name == "" {
			log.Printf("WARN: Row %d: empty name, skipping", line)
			result.Skipped++
			continue
		}

		price, err := strconv.ParseFloat(field("price"), 64)
		if err != nil {
			log.Printf("WARN: Row %d: invalid price %q, skipping", line, field("price"))
			result.Skipped++
			continue
		}

		product := storage.NewProduct{
			Name:     name,
			Price:    price,
			Category: field("category"),
			StoreID:  field("store_id"),
		}
		if quantity := field("quantity"); quantity != "" {
			product.Quantity = &quantity
		}
		if city := field("city"); city != "" {
			product.City = &city
		}

		_, created, err := store.UpsertProduct(product)
		if err != nil {
			return result, fmt.Errorf("failed to import row %d: %w", line, err)
		}
		if created {
			result.Imported++
		} else {
			result.Updated++
		}
	}

	log.Printf("INFO: Import complete: %d imported, %d updated, %d skipped", result.Imported, result.Updated, result.Skipped)
	return result, nil
}

// Export writes every product matching filter to w as CSV, header first.
// It returns the number of rows written.
func Export(store *storage.Store, w io.Writer, filter storage.ProductFilter) (int, error) {
	products, err := store.ListProducts(filter)
	if err != nil {
		return 0, fmt.Errorf("failed to list products: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, product := range products {
		record := []string{
			product.Name,
			strconv.FormatFloat(product.Price, 'f', 2, 64),
			product.Category,
			product.StoreID,
			deref(product.Quantity),
			deref(product.City),
			deref(product.ImageURL),
			product.CreatedAt.Format("2006-01-02 15:04:05"),
			product.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(record); err != nil {
			return 0, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush csv: %w", err)
	}
	return len(products), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
