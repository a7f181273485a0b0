package store

import (
	"context"
	"database/sql"

	"grocery-service/internal/models"
)

// GetDraft retrieves a user's in-progress product draft
func (s *Store) GetDraft(ctx context.Context, userID int64) (*models.ProductDraft, error) {
	var draft models.ProductDraft
	err := s.db.GetContext(ctx, &draft,
		"SELECT * FROM product_drafts WHERE user_id = $1", userID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// SaveDraft inserts or replaces a user's draft
func (s *Store) SaveDraft(ctx context.Context, draft *models.ProductDraft) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO product_drafts (user_id, step, name, category, quantity, price, photo_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id)
		DO UPDATE SET step = EXCLUDED.step, name = EXCLUDED.name,
		              category = EXCLUDED.category, quantity = EXCLUDED.quantity,
		              price = EXCLUDED.price, photo_id = EXCLUDED.photo_id`,
		draft.UserID, draft.Step, draft.Name, draft.Category,
		draft.Quantity, draft.Price, draft.PhotoID)
	return err
}

// DeleteDraft removes a user's draft
func (s *Store) DeleteDraft(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM product_drafts WHERE user_id = $1", userID)
	return err
}
