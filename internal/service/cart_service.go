package service

import (
	"context"
	"fmt"

	"grocery-service/internal/models"
	"grocery-service/internal/reservation"
	"grocery-service/internal/util"

	"go.uber.org/zap"
)

// CartService manages per-user cart lines. Adding a line presumes the
// caller already holds a ledger hold for the (product, user, quantity);
// clearing releases each line's hold before deleting the rows.
type CartService struct {
	carts   CartStore
	catalog CatalogStore
	ledger  *reservation.Ledger
	logger  *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(carts CartStore, catalog CatalogStore, ledger *reservation.Ledger) *CartService {
	return &CartService{
		carts:   carts,
		catalog: catalog,
		ledger:  ledger,
		logger:  util.GetLogger(),
	}
}

// AddLine persists a cart line for the user, snapshotting the product's
// current name and price. An existing (user, product) line accumulates
// quantity. The caller sequences hold acquisition before this call.
func (s *CartService) AddLine(ctx context.Context, userID, productID int64, quantity int) (*models.CartLine, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddLine")
	defer span.End()

	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	line := &models.CartLine{
		UserID:      userID,
		ProductID:   productID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
	}
	if err := s.carts.AddCartLine(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to add cart line: %w", err)
	}

	s.logger.Debug("Cart line added",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", line.Quantity))
	return line, nil
}

// Lines returns the user's cart lines in insertion order.
func (s *CartService) Lines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	return s.carts.GetCartLines(ctx, userID)
}

// RemoveLine drops one (user, product) line from the cart and releases
// its ledger hold.
func (s *CartService) RemoveLine(ctx context.Context, userID, productID int64) error {
	ctx, span := util.StartSpan(ctx, "CartService.RemoveLine")
	defer span.End()

	line, err := s.carts.GetCartLine(ctx, userID, productID)
	if err != nil {
		return err
	}

	s.ledger.Release(line.ProductID, userID)
	util.HoldsReleasedTotal.Inc()

	if err := s.carts.DeleteCartLine(ctx, userID, productID); err != nil {
		return fmt.Errorf("failed to remove cart line: %w", err)
	}

	s.logger.Debug("Cart line removed",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID))
	return nil
}

// Clear releases the ledger hold for every line and deletes all of the
// user's lines. Holds are released first so a failed delete leaks nothing
// past the TTL.
func (s *CartService) Clear(ctx context.Context, userID int64) error {
	ctx, span := util.StartSpan(ctx, "CartService.Clear")
	defer span.End()

	lines, err := s.carts.GetCartLines(ctx, userID)
	if err != nil {
		return err
	}

	for _, line := range lines {
		s.ledger.Release(line.ProductID, userID)
		util.HoldsReleasedTotal.Inc()
	}

	if err := s.carts.DeleteCartLines(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
