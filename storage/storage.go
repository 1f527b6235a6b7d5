// Package storage persists scraped products and their price history using
// SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Custom errors for product operations
var (
	ErrProductNotFound = errors.New("product not found")
)

// Store manages products and price history using SQLite.
type Store struct {
	db *sql.DB
}

// Product is one grocery product row as scraped from a market.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     float64         `json:"price"`
	Category  string          `json:"category"`
	StoreID   string          `json:"store_id"`
	Quantity  *string         `json:"quantity,omitempty"`
	City      *string         `json:"city,omitempty"`
	ImageURL  *string         `json:"image_url,omitempty"`
	Nutrition *NutritionFacts `json:"nutrition,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NutritionFacts holds per-100g nutrition values backfilled from a public
// food database.
type NutritionFacts struct {
	EnergyKcal    *float64 `json:"energy_kcal,omitempty"`
	Fat           *float64 `json:"fat,omitempty"`
	SaturatedFat  *float64 `json:"saturated_fat,omitempty"`
	Carbohydrates *float64 `json:"carbohydrates,omitempty"`
	Sugars        *float64 `json:"sugars,omitempty"`
	Proteins      *float64 `json:"proteins,omitempty"`
	Salt          *float64 `json:"salt,omitempty"`
	Source        string   `json:"source,omitempty"`
}

// PricePoint is one entry in a product's price history. Exactly one entry
// per product has IsCurrent set.
type PricePoint struct {
	ProductID  uuid.UUID  `json:"product_id"`
	Price      float64    `json:"price"`
	StoreID    string     `json:"store_id"`
	IsCurrent  bool       `json:"is_current"`
	RecordedAt time.Time  `json:"recorded_at"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

// NewProduct carries the fields a scraper provides when upserting a row.
type NewProduct struct {
	Name     string
	Price    float64
	Category string
	StoreID  string
	Quantity *string
	City     *string
}

// ProductFilter represents filtering options for listing products.
type ProductFilter struct {
	StoreID       *string
	City          *string
	Category      *string
	MissingImage  bool
	MissingFacts  bool
	Limit         int
	Offset        int
}

// NewStore creates a new product store with the given database path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the products and price_history tables if they don't
// exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price REAL NOT NULL,
		category TEXT NOT NULL,
		store_id TEXT NOT NULL,
		quantity TEXT,
		city TEXT,
		image_url TEXT,
		nutrition TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_products_identity
		ON products (name, store_id, IFNULL(city, ''));

	CREATE TABLE IF NOT EXISTS price_history (
		product_id TEXT NOT NULL,
		price REAL NOT NULL,
		store_id TEXT NOT NULL,
		is_current INTEGER NOT NULL DEFAULT 0,
		recorded_at TEXT NOT NULL,
		valid_until TEXT,
		FOREIGN KEY (product_id) REFERENCES products (id)
	);

	CREATE INDEX IF NOT EXISTS idx_price_history_product
		ON price_history (product_id, is_current);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertProduct inserts a product or, when a row with the same name, store
// and city already exists, records a price change. It returns the product
// ID and whether a new row was created.
func (s *Store) UpsertProduct(p NewProduct) (uuid.UUID, bool, error) {
	existing, err := s.GetProduct(p.Name, p.StoreID, p.City)
	if err != nil && !errors.Is(err, ErrProductNotFound) {
		return uuid.Nil, false, err
	}

	if existing != nil {
		if existing.Price != p.Price {
			if err := s.UpdateProductPrice(existing.ID, p.Price, p.StoreID); err != nil {
				return uuid.Nil, false, err
			}
		}
		return existing.ID, false, nil
	}

	now := time.Now()
	id := uuid.New()

	tx, err := s.db.Begin()
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO products (id, name, price, category, store_id, quantity, city, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.Exec(query,
		id.String(), p.Name, p.Price, p.Category, p.StoreID,
		nullableString(p.Quantity), nullableString(p.City),
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to insert product: %w", err)
	}

	historyQuery := `
		INSERT INTO price_history (product_id, price, store_id, is_current, recorded_at)
		VALUES (?, ?, ?, 1, ?)
	`
	if _, err := tx.Exec(historyQuery, id.String(), p.Price, p.StoreID, formatTime(now)); err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to insert price history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to commit product insert: %w", err)
	}
	return id, true, nil
}

// GetProduct retrieves a product by its name, store and optional city.
func (s *Store) GetProduct(name, storeID string, city *string) (*Product, error) {
	query := `
		SELECT id, name, price, category, store_id, quantity, city,
		       image_url, nutrition, created_at, updated_at
		FROM products
		WHERE name = ? AND store_id = ? AND IFNULL(city, '') = IFNULL(?, '')
		LIMIT 1
	`

	row := s.db.QueryRow(query, name, storeID, nullableString(city))
	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return product, nil
}

// GetProductByID retrieves a product by its ID.
func (s *Store) GetProductByID(id uuid.UUID) (*Product, error) {
	query := `
		SELECT id, name, price, category, store_id, quantity, city,
		       image_url, nutrition, created_at, updated_at
		FROM products
		WHERE id = ?
	`

	product, err := scanProduct(s.db.QueryRow(query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return product, nil
}

// UpdateProductPrice updates a product's price and records the change in
// price_history: the previous current entry is closed out and a new
// current entry is inserted.
func (s *Store) UpdateProductPrice(productID uuid.UUID, newPrice float64, storeID string) error {
	now := time.Now()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		"UPDATE products SET price = ?, updated_at = ? WHERE id = ?",
		newPrice, formatTime(now), productID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update price: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrProductNotFound
	}

	_, err = tx.Exec(
		"UPDATE price_history SET is_current = 0, valid_until = ? WHERE product_id = ? AND is_current = 1",
		formatTime(now), productID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to close price history: %w", err)
	}

	_, err = tx.Exec(
		"INSERT INTO price_history (product_id, price, store_id, is_current, recorded_at) VALUES (?, ?, ?, 1, ?)",
		productID.String(), newPrice, storeID, formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("failed to insert price history: %w", err)
	}

	return tx.Commit()
}

// UpdateProductEnrichment attaches an image URL and/or nutrition facts to a
// product. Nil fields are left untouched.
func (s *Store) UpdateProductEnrichment(productID uuid.UUID, imageURL *string, facts *NutritionFacts) error {
	setClauses := []string{"updated_at = ?"}
	now := time.Now()
	args := []any{formatTime(now)}

	if imageURL != nil {
		setClauses = append(setClauses, "image_url = ?")
		args = append(args, *imageURL)
	}
	if facts != nil {
		data, err := json.Marshal(facts)
		if err != nil {
			return fmt.Errorf("failed to marshal nutrition facts: %w", err)
		}
		setClauses = append(setClauses, "nutrition = ?")
		args = append(args, string(data))
	}

	args = append(args, productID.String())
	query := fmt.Sprintf("UPDATE products SET %s WHERE id = ?", strings.Join(setClauses, ", "))

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrProductNotFound
	}

	return nil
}

// ListProducts lists products with optional filtering, ordered by name.
func (s *Store) ListProducts(filter ProductFilter) ([]Product, error) {
	query := `
		SELECT id, name, price, category, store_id, quantity, city,
		       image_url, nutrition, created_at, updated_at
		FROM products
	`

	var whereClauses []string
	var args []any

	if filter.StoreID != nil {
		whereClauses = append(whereClauses, "store_id = ?")
		args = append(args, *filter.StoreID)
	}
	if filter.City != nil {
		whereClauses = append(whereClauses, "city = ?")
		args = append(args, *filter.City)
	}
	if filter.Category != nil {
		whereClauses = append(whereClauses, "category = ?")
		args = append(args, *filter.Category)
	}
	if filter.MissingImage {
		whereClauses = append(whereClauses, "image_url IS NULL")
	}
	if filter.MissingFacts {
		whereClauses = append(whereClauses, "nutrition IS NULL")
	}

	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query += " ORDER BY name"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *product)
	}

	return products, rows.Err()
}

// PriceHistory returns all recorded price points for a product, newest
// first.
func (s *Store) PriceHistory(productID uuid.UUID) ([]PricePoint, error) {
	query := `
		SELECT product_id, price, store_id, is_current, recorded_at, valid_until
		FROM price_history
		WHERE product_id = ?
		ORDER BY recorded_at DESC
	`

	rows, err := s.db.Query(query, productID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var points []PricePoint
	for rows.Next() {
		var productIDStr, storeID, recordedAtStr string
		var validUntilStr sql.NullString
		var price float64
		var isCurrent bool

		if err := rows.Scan(&productIDStr, &price, &storeID, &isCurrent, &recordedAtStr, &validUntilStr); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}

		id, err := uuid.Parse(productIDStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse product ID: %w", err)
		}

		point := PricePoint{
			ProductID:  id,
			Price:      price,
			StoreID:    storeID,
			IsCurrent:  isCurrent,
			RecordedAt: parseTime(recordedAtStr),
		}
		if validUntilStr.Valid {
			t := parseTime(validUntilStr.String)
			point.ValidUntil = &t
		}
		points = append(points, point)
	}

	return points, rows.Err()
}

// CityStats returns the number of products recorded per city. Products
// without a city are excluded.
func (s *Store) CityStats() (map[string]int, error) {
	return s.countBy("city")
}

// StoreStats returns the number of products recorded per store.
func (s *Store) StoreStats() (map[string]int, error) {
	return s.countBy("store_id")
}

func (s *Store) countBy(column string) (map[string]int, error) {
	query := fmt.Sprintf(
		"SELECT %s, COUNT(*) FROM products WHERE %s IS NOT NULL GROUP BY %s",
		column, column, column,
	)

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats[key] = count
	}

	return stats, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for the shared scan helper.
type scanner interface {
	Scan(dest ...any) error
}

// scanProduct parses one SQL row into a Product struct.
func scanProduct(row scanner) (*Product, error) {
	var idStr, name, category, storeID, createdAtStr, updatedAtStr string
	var quantity, city, imageURL, nutritionJSON sql.NullString
	var price float64

	err := row.Scan(
		&idStr, &name, &price, &category, &storeID,
		&quantity, &city, &imageURL, &nutritionJSON,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse product ID: %w", err)
	}

	product := &Product{
		ID:        id,
		Name:      name,
		Price:     price,
		Category:  category,
		StoreID:   storeID,
		CreatedAt: parseTime(createdAtStr),
		UpdatedAt: parseTime(updatedAtStr),
	}

	if quantity.Valid {
		product.Quantity = &quantity.String
	}
	if city.Valid {
		product.City = &city.String
	}
	if imageURL.Valid {
		product.ImageURL = &imageURL.String
	}
	if nutritionJSON.Valid {
		var facts NutritionFacts
		if err := json.Unmarshal([]byte(nutritionJSON.String), &facts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal nutrition facts: %w", err)
		}
		product.Nutrition = &facts
	}

	return product, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// Helper functions for time formatting
func formatTime(t time.Time) string {
	// Strip monotonic clock for consistent storage and comparisons
	return t.Truncate(0).Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.Truncate(0)
}
