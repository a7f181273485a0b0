package service

import (
	"context"
	"errors"

	"grocery-service/internal/models"
	"grocery-service/internal/reservation"
	"grocery-service/internal/store"
	"grocery-service/internal/util"

	"go.uber.org/zap"
)

// CatalogService exposes the catalog read path and the hold operations that
// gate it. Available quantity is stock minus all live holds; the ledger only
// shadows stock, it never mutates it.
type CatalogService struct {
	catalog CatalogStore
	ledger  *reservation.Ledger
	logger  *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(catalog CatalogStore, ledger *reservation.Ledger) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		ledger:  ledger,
		logger:  util.GetLogger(),
	}
}

// ListAvailable lists products that are flagged available and have stock,
// optionally filtered by category.
func (s *CatalogService) ListAvailable(ctx context.Context, category string) ([]models.Product, error) {
	return s.catalog.ListAvailable(ctx, category)
}

// GetProduct retrieves a product by ID.
func (s *CatalogService) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	return s.catalog.GetProduct(ctx, productID)
}

// AvailableQuantity computes stock minus all live holds. It fails closed:
// a missing product reports zero availability.
func (s *CatalogService) AvailableQuantity(ctx context.Context, productID int64) (int, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	available := product.Stock - s.ledger.LockedQuantity(productID)
	if available < 0 {
		available = 0
	}
	return available, nil
}

// AcquireHold reads current stock and acquires a ledger hold for the
// holder. The stock read happens outside the ledger's critical section; the
// conflict and quantity checks happen inside it.
func (s *CatalogService) AcquireHold(ctx context.Context, productID, holderID int64, quantity int) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.AcquireHold")
	defer span.End()

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	if err := s.ledger.Acquire(productID, holderID, quantity, product.Stock); err != nil {
		switch {
		case errors.Is(err, reservation.ErrHoldConflict):
			util.HoldsRejectedTotal.WithLabelValues("conflict").Inc()
		case errors.Is(err, reservation.ErrInsufficientStock):
			util.HoldsRejectedTotal.WithLabelValues("insufficient_stock").Inc()
		}
		return err
	}

	util.HoldsAcquiredTotal.Inc()
	s.logger.Debug("Hold acquired",
		zap.Int64("product_id", productID),
		zap.Int64("holder_id", holderID),
		zap.Int("quantity", quantity))
	return nil
}

// ReleaseHold releases the holder's hold on the product. Releasing an
// absent hold is a no-op.
func (s *CatalogService) ReleaseHold(productID, holderID int64) {
	s.ledger.Release(productID, holderID)
	util.HoldsReleasedTotal.Inc()
}

// AddStock increments product stock; the operator restock path.
func (s *CatalogService) AddStock(ctx context.Context, productID int64, delta int) error {
	return s.catalog.AddStock(ctx, productID, delta)
}

// SetAvailability sets the advisory availability flag on a product.
func (s *CatalogService) SetAvailability(ctx context.Context, productID int64, available bool) error {
	return s.catalog.SetAvailability(ctx, productID, available)
}
