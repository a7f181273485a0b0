package store

import (
	"context"
	"database/sql"

	"grocery-service/internal/models"
)

// AddCartLine inserts a cart line or accumulates quantity onto an existing
// (user, product) line in a single statement. The name and price snapshots
// of an existing line are kept.
func (s *Store) AddCartLine(ctx context.Context, line *models.CartLine) error {
	query := `
		INSERT INTO cart_lines (user_id, product_id, product_name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity
		RETURNING id, quantity`

	return s.db.GetContext(ctx, line, query,
		line.UserID, line.ProductID, line.ProductName, line.Quantity, line.UnitPrice)
}

// GetCartLines retrieves all cart lines for a user in insertion order
func (s *Store) GetCartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := s.db.SelectContext(ctx, &lines,
		"SELECT * FROM cart_lines WHERE user_id = $1 ORDER BY id", userID)
	return lines, err
}

// GetCartLine retrieves one (user, product) cart line
func (s *Store) GetCartLine(ctx context.Context, userID, productID int64) (*models.CartLine, error) {
	var line models.CartLine
	err := s.db.GetContext(ctx, &line,
		"SELECT * FROM cart_lines WHERE user_id = $1 AND product_id = $2", userID, productID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// DeleteCartLine removes one (user, product) cart line
func (s *Store) DeleteCartLine(ctx context.Context, userID, productID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2", userID, productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCartLines removes all cart lines for a user
func (s *Store) DeleteCartLines(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cart_lines WHERE user_id = $1", userID)
	return err
}
