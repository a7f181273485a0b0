package store

import (
	"context"
	"database/sql"
	"fmt"

	"grocery-service/internal/models"
)

// GetProduct retrieves a product by ID
func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListAvailable retrieves available products with stock on hand, optionally
// filtered by category
func (s *Store) ListAvailable(ctx context.Context, category string) ([]models.Product, error) {
	var products []models.Product
	if category == "" {
		err := s.db.SelectContext(ctx, &products,
			"SELECT * FROM products WHERE is_available = TRUE AND stock > 0 ORDER BY name")
		return products, err
	}
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE is_available = TRUE AND stock > 0 AND category = $1 ORDER BY name",
		category)
	return products, err
}

// AddStock adjusts product stock by delta, floored at zero
func (s *Store) AddStock(ctx context.Context, productID int64, delta int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET stock = GREATEST(stock + $1, 0) WHERE id = $2",
		delta, productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	return nil
}

// SetAvailability sets the advisory availability flag
func (s *Store) SetAvailability(ctx context.Context, productID int64, available bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET is_available = $1 WHERE id = $2", available, productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	return nil
}

// UpsertProduct creates a product, or merges into an existing one with the
// same name and category: quantity accumulates, price is replaced and the
// availability flag is re-enabled. Returns the resulting product.
func (s *Store) UpsertProduct(ctx context.Context, name, category string, quantity int, price int64, photoID string) (*models.Product, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var product models.Product
	err = tx.GetContext(ctx, &product,
		"SELECT * FROM products WHERE LOWER(name) = LOWER($1) AND category = $2 FOR UPDATE",
		name, category)
	switch {
	case err == sql.ErrNoRows:
		err = tx.GetContext(ctx, &product, `
			INSERT INTO products (name, category, price, stock, is_available, photo_id)
			VALUES ($1, $2, $3, $4, TRUE, $5)
			RETURNING *`,
			name, category, price, quantity, photoID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert product: %w", err)
		}
	case err != nil:
		return nil, err
	default:
		err = tx.GetContext(ctx, &product, `
			UPDATE products
			SET stock = stock + $1, price = $2, is_available = TRUE,
			    photo_id = COALESCE(NULLIF($3, ''), photo_id)
			WHERE id = $4
			RETURNING *`,
			quantity, price, photoID, product.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to merge product: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &product, nil
}
