package service

import (
	"context"

	"grocery-service/internal/models"
)

// SlotService manages the delivery slot registry.
type SlotService struct {
	slots SlotStore
}

// NewSlotService creates a new slot service
func NewSlotService(slots SlotStore) *SlotService {
	return &SlotService{slots: slots}
}

// Toggle flips a slot's active flag.
func (s *SlotService) Toggle(ctx context.Context, slotID int64) (*models.DeliverySlot, error) {
	return s.slots.ToggleSlot(ctx, slotID)
}

// ActiveSlots returns the offerable slots sorted by start hour.
func (s *SlotService) ActiveSlots(ctx context.Context) ([]models.DeliverySlot, error) {
	return s.slots.ListActiveSlots(ctx)
}
