package service

import (
	"context"
	"time"

	"grocery-service/internal/models"
)

// Store contracts consumed by the services. *store.Store satisfies all of
// them; tests substitute stubs.

// CatalogStore reads and adjusts product records.
type CatalogStore interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListAvailable(ctx context.Context, category string) ([]models.Product, error)
	AddStock(ctx context.Context, productID int64, delta int) error
	SetAvailability(ctx context.Context, productID int64, available bool) error
	UpsertProduct(ctx context.Context, name, category string, quantity int, price int64, photoID string) (*models.Product, error)
}

// CartStore persists cart lines.
type CartStore interface {
	AddCartLine(ctx context.Context, line *models.CartLine) error
	GetCartLines(ctx context.Context, userID int64) ([]models.CartLine, error)
	GetCartLine(ctx context.Context, userID, productID int64) (*models.CartLine, error)
	DeleteCartLine(ctx context.Context, userID, productID int64) error
	DeleteCartLines(ctx context.Context, userID int64) error
}

// OrderStore persists orders and drives their status transitions. Create,
// deliver and cancel are transactional on the store side.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order, lines []models.OrderLine) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	GetOrderLines(ctx context.Context, orderID int64) ([]models.OrderLine, error)
	ListOrdersByUser(ctx context.Context, userID int64, limit int) ([]models.Order, error)
	ListOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	MarkActive(ctx context.Context, orderID int64) error
	MarkOnTheWay(ctx context.Context, orderID int64, at time.Time) error
	MarkDelivered(ctx context.Context, orderID int64, at time.Time, deductStock bool) error
	CancelOrder(ctx context.Context, orderID int64, reason string, at time.Time, restoreStock bool) error
}

// SlotStore persists delivery slots.
type SlotStore interface {
	GetSlot(ctx context.Context, id int64) (*models.DeliverySlot, error)
	ListActiveSlots(ctx context.Context) ([]models.DeliverySlot, error)
	ToggleSlot(ctx context.Context, id int64) (*models.DeliverySlot, error)
}

// DraftStore persists per-user product drafts.
type DraftStore interface {
	GetDraft(ctx context.Context, userID int64) (*models.ProductDraft, error)
	SaveDraft(ctx context.Context, draft *models.ProductDraft) error
	DeleteDraft(ctx context.Context, userID int64) error
}

// StatusCache is the optional order-status fast path.
type StatusCache interface {
	GetOrderStatus(ctx context.Context, orderID int64) (string, bool, error)
}
