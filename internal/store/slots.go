package store

import (
	"context"
	"database/sql"
	"fmt"

	"grocery-service/internal/models"
)

// GetSlot retrieves a delivery slot by ID
func (s *Store) GetSlot(ctx context.Context, id int64) (*models.DeliverySlot, error) {
	var slot models.DeliverySlot
	err := s.db.GetContext(ctx, &slot, "SELECT * FROM delivery_slots WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("slot %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListActiveSlots retrieves active delivery slots sorted by start hour
func (s *Store) ListActiveSlots(ctx context.Context) ([]models.DeliverySlot, error) {
	var slots []models.DeliverySlot
	err := s.db.SelectContext(ctx, &slots,
		"SELECT * FROM delivery_slots WHERE is_active = TRUE ORDER BY start_hour")
	return slots, err
}

// ToggleSlot flips a slot's active flag and returns the updated slot
func (s *Store) ToggleSlot(ctx context.Context, id int64) (*models.DeliverySlot, error) {
	var slot models.DeliverySlot
	err := s.db.GetContext(ctx, &slot,
		"UPDATE delivery_slots SET is_active = NOT is_active WHERE id = $1 RETURNING *", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("slot %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// EnsureDefaultSlots seeds hourly slots from startHour to endHour when the
// table is empty.
func (s *Store) EnsureDefaultSlots(ctx context.Context, startHour, endHour int) error {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM delivery_slots"); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for hour := startHour; hour < endHour; hour++ {
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO delivery_slots (start_hour, end_hour, is_active) VALUES ($1, $2, TRUE)",
			hour, hour+1); err != nil {
			return fmt.Errorf("failed to seed slot %d-%d: %w", hour, hour+1, err)
		}
	}
	return nil
}
