package repository

import (
	"database/sql"
	"fmt"
	"time"

	"pechincha/database"
	"pechincha/models"
)

const productColumns = `id, url, name, store, current_price, image_url, category, last_checked, last_failed_at, retry_count, next_retry_at, created_at, is_active`

type ProductRepository struct{}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

func scanProduct(row interface{ Scan(...any) error }) (*models.TrackedProduct, error) {
	var p models.TrackedProduct
	var imageURL, category sql.NullString
	err := row.Scan(
		&p.ID, &p.URL, &p.Name, &p.Store,
		&p.CurrentPrice, &imageURL, &category,
		&p.LastChecked, &p.LastFailedAt, &p.RetryCount,
		&p.NextRetryAt, &p.CreatedAt, &p.IsActive,
	)
	if err != nil {
		return nil, err
	}
	p.ImageURL = imageURL.String
	p.Category = category.String
	return &p, nil
}

// AddProduct persists an extraction result. Resubmitting a URL refreshes the
// existing row instead of creating a duplicate.
func (r *ProductRepository) AddProduct(url string, product *models.ScrapedProduct) (*models.TrackedProduct, error) {
	query := `
		INSERT INTO products (url, name, store, current_price, original_price, image_url, description, category, brand, source, confidence, last_checked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12, $12)
		ON CONFLICT (url) DO UPDATE
		SET name = EXCLUDED.name, current_price = EXCLUDED.current_price,
			source = EXCLUDED.source, confidence = EXCLUDED.confidence,
			last_checked = EXCLUDED.last_checked, updated_at = EXCLUDED.updated_at,
			is_active = TRUE
		RETURNING ` + productColumns

	now := time.Now()
	tracked, err := scanProduct(database.DB.QueryRow(query,
		url, product.Name, product.Store, product.Price, product.OriginalPrice,
		product.ImageURL, product.Description, product.Category, product.Brand,
		product.Source, product.Confidence, now,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to add product: %v", err)
	}
	return tracked, nil
}

// GetProducts returns all active tracked products, newest first.
func (r *ProductRepository) GetProducts() ([]models.TrackedProduct, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_active = true
		ORDER BY created_at DESC
	`

	rows, err := database.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %v", err)
	}
	defer rows.Close()

	var products []models.TrackedProduct
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %v", err)
		}
		products = append(products, *p)
	}

	return products, nil
}

// GetProductByID returns an active tracked product by ID.
func (r *ProductRepository) GetProductByID(id int) (*models.TrackedProduct, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1 AND is_active = true
	`

	p, err := scanProduct(database.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product not found")
		}
		return nil, fmt.Errorf("failed to get product: %v", err)
	}
	return p, nil
}

// UpdatePrice records a successful re-check: the new price is written and
// the failure bookkeeping is reset.
func (r *ProductRepository) UpdatePrice(id int, price *float64) error {
	query := `
		UPDATE products
		SET current_price = $2, last_checked = $3, updated_at = $3,
			last_failed_at = NULL, retry_count = 0, next_retry_at = NULL
		WHERE id = $1
	`

	_, err := database.DB.Exec(query, id, price, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update product price: %v", err)
	}
	return nil
}

// MarkCheckFailed records a failed re-check and schedules the next retry
// with the product's backoff.
func (r *ProductRepository) MarkCheckFailed(product *models.TrackedProduct) error {
	now := time.Now()
	nextRetry := now.Add(product.GetRetryDelay())

	query := `
		UPDATE products
		SET last_failed_at = $2, retry_count = retry_count + 1, next_retry_at = $3, updated_at = $2
		WHERE id = $1
	`

	_, err := database.DB.Exec(query, product.ID, now, nextRetry)
	if err != nil {
		return fmt.Errorf("failed to mark check failed: %v", err)
	}
	return nil
}

// GetProductsForRetry returns products whose failed checks are due for
// another attempt.
func (r *ProductRepository) GetProductsForRetry() ([]models.TrackedProduct, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_active = true
		  AND last_failed_at IS NOT NULL
		  AND retry_count < 5
		  AND (next_retry_at IS NULL OR next_retry_at <= $1)
		ORDER BY next_retry_at ASC NULLS FIRST
	`

	rows, err := database.DB.Query(query, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to get products for retry: %v", err)
	}
	defer rows.Close()

	var products []models.TrackedProduct
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %v", err)
		}
		products = append(products, *p)
	}

	return products, nil
}

// GetProductsToCheck returns active products whose last check is older than
// the given age (or that were never checked).
func (r *ProductRepository) GetProductsToCheck(olderThan time.Duration) ([]models.TrackedProduct, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_active = true
		  AND last_failed_at IS NULL
		  AND (last_checked IS NULL OR last_checked <= $1)
		ORDER BY last_checked ASC NULLS FIRST
	`

	rows, err := database.DB.Query(query, time.Now().Add(-olderThan))
	if err != nil {
		return nil, fmt.Errorf("failed to get products to check: %v", err)
	}
	defer rows.Close()

	var products []models.TrackedProduct
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %v", err)
		}
		products = append(products, *p)
	}

	return products, nil
}

// DeleteProduct soft-deletes a tracked product.
func (r *ProductRepository) DeleteProduct(id int) error {
	query := `UPDATE products SET is_active = false, updated_at = $2 WHERE id = $1`
	_, err := database.DB.Exec(query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete product: %v", err)
	}
	return nil
}

// RecordObservation appends a price observation row.
func (r *ProductRepository) RecordObservation(productID int, price float64, source string) error {
	query := `INSERT INTO price_observations (product_id, price, source, observed_at) VALUES ($1, $2, $3, $4)`
	_, err := database.DB.Exec(query, productID, price, source, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record observation: %v", err)
	}
	return nil
}

// GetObservations returns a product's price observations, oldest first.
func (r *ProductRepository) GetObservations(productID int, limit int) ([]models.PriceHistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT product_id, price, source, observed_at
		FROM price_observations
		WHERE product_id = $1
		ORDER BY observed_at DESC
		LIMIT $2
	`

	rows, err := database.DB.Query(query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get observations: %v", err)
	}
	defer rows.Close()

	var entries []models.PriceHistoryEntry
	for rows.Next() {
		var e models.PriceHistoryEntry
		if err := rows.Scan(&e.ProductID, &e.Price, &e.Source, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %v", err)
		}
		entries = append(entries, e)
	}

	// Reverse to oldest-first for chart consumers.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
