package service

import (
	"context"
	"fmt"
	"time"

	"grocery-service/internal/broker"
	"grocery-service/internal/models"
	"grocery-service/internal/notify"
	"grocery-service/internal/reservation"
	"grocery-service/internal/util"

	"go.uber.org/zap"
)

const userOrderListLimit = 10

// OrderService drives the order lifecycle: checkout creates a pending
// order from the cart, operator actions advance it through the fixed state
// sequence, and cancellation compensates stock when the order had already
// been accepted. Notifications and events are best-effort; the store
// transition is the source of truth.
type OrderService struct {
	orders           OrderStore
	carts            CartStore
	catalog          CatalogStore
	slots            SlotStore
	ledger           *reservation.Ledger
	notifier         notify.Notifier
	events           *broker.EventPublisher
	cache            StatusCache
	clock            reservation.Clock
	logger           *zap.Logger
	operator         int64
	deductOnDelivery bool
}

// OrderServiceOpts carries construction options for OrderService.
type OrderServiceOpts struct {
	Orders   OrderStore
	Carts    CartStore
	Catalog  CatalogStore
	Slots    SlotStore
	Ledger   *reservation.Ledger
	Notifier notify.Notifier
	Events   *broker.EventPublisher
	Cache    StatusCache
	Clock    reservation.Clock

	// OperatorID receives new-order notifications.
	OperatorID int64

	// DeductStockOnDelivery switches markDelivered to remove each line's
	// quantity from product stock. Off by default: on the normal flow stock
	// is never decremented, only restored on cancellation.
	DeductStockOnDelivery bool
}

// NewOrderService creates a new order service
func NewOrderService(opts OrderServiceOpts) *OrderService {
	clock := opts.Clock
	if clock == nil {
		clock = reservation.SystemClock()
	}
	return &OrderService{
		orders:           opts.Orders,
		carts:            opts.Carts,
		catalog:          opts.Catalog,
		slots:            opts.Slots,
		ledger:           opts.Ledger,
		notifier:         opts.Notifier,
		events:           opts.Events,
		cache:            opts.Cache,
		clock:            clock,
		logger:           util.GetLogger(),
		operator:         opts.OperatorID,
		deductOnDelivery: opts.DeductStockOnDelivery,
	}
}

// CheckoutRequest carries the delivery details collected from the shopper.
type CheckoutRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	UserName string `json:"user_name"`
	Address  string `json:"address" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	SlotID   int64  `json:"slot_id" binding:"required"`
}

// Checkout re-validates every cart line against current availability, then
// creates the order with line snapshots and clears the cart in one store
// transaction. Ledger holds are released after the transaction commits. On
// any validation failure nothing is mutated and the cart is left untouched.
func (s *OrderService) Checkout(ctx context.Context, req *CheckoutRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Checkout")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	lines, err := s.carts.GetCartLines(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		util.CheckoutFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, ErrEmptyCart
	}

	slot, err := s.slots.GetSlot(ctx, req.SlotID)
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("slot_not_found").Inc()
		return nil, err
	}

	// Stock may have changed since the cart was assembled. The shopper's own
	// holds are excluded so they do not count against their own lines.
	for _, line := range lines {
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			util.CheckoutFailedTotal.WithLabelValues("product_not_found").Inc()
			return nil, err
		}
		available := product.Stock - s.ledger.LockedQuantityExcluding(line.ProductID, req.UserID)
		if available < 0 {
			available = 0
		}
		if line.Quantity > available {
			util.CheckoutFailedTotal.WithLabelValues("insufficient_quantity").Inc()
			return nil, fmt.Errorf("product %q: %w", line.ProductName, ErrInsufficientQuantity)
		}
	}

	order := &models.Order{
		UserID:       req.UserID,
		UserName:     req.UserName,
		DeliverySlot: fmt.Sprintf("%d:00 - %d:00", slot.StartHour, slot.EndHour),
		Address:      req.Address,
		Phone:        req.Phone,
		Status:       models.StatusPending,
	}

	orderLines := make([]models.OrderLine, 0, len(lines))
	for _, line := range lines {
		orderLines = append(orderLines, models.OrderLine{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}

	if err := s.orders.CreateOrder(ctx, order, orderLines); err != nil {
		util.CheckoutFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, line := range lines {
		s.ledger.Release(line.ProductID, req.UserID)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID),
		zap.Int("lines", len(orderLines)))

	s.notifyBestEffort(ctx, s.operator,
		fmt.Sprintf("New order #%d: %d item(s), delivery %s", order.ID, len(orderLines), order.DeliverySlot))
	s.notifyBestEffort(ctx, order.UserID,
		fmt.Sprintf("Order #%d placed. Waiting for confirmation.", order.ID))
	s.publishCreated(ctx, order, orderLines)

	return order, nil
}

// Accept moves a pending order to active.
func (s *OrderService) Accept(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.transition(ctx, orderID, models.StatusActive, models.EventTypeOrderAccepted,
		func(ctx context.Context, order *models.Order) error {
			return s.orders.MarkActive(ctx, orderID)
		},
		"Order #%d confirmed. We are preparing your delivery.")
}

// Dispatch moves an active order to on_the_way and stamps the dispatch time.
func (s *OrderService) Dispatch(ctx context.Context, orderID int64) (*models.Order, error) {
	now := s.clock.Now()
	return s.transition(ctx, orderID, models.StatusOnTheWay, models.EventTypeOrderDispatched,
		func(ctx context.Context, order *models.Order) error {
			if err := s.orders.MarkOnTheWay(ctx, orderID, now); err != nil {
				return err
			}
			order.OnTheWayAt = &now
			return nil
		},
		"Order #%d is on the way.")
}

// MarkDelivered moves an on_the_way order to delivered and stamps the
// delivery time.
func (s *OrderService) MarkDelivered(ctx context.Context, orderID int64) (*models.Order, error) {
	now := s.clock.Now()
	return s.transition(ctx, orderID, models.StatusDelivered, models.EventTypeOrderDelivered,
		func(ctx context.Context, order *models.Order) error {
			if err := s.orders.MarkDelivered(ctx, orderID, now, s.deductOnDelivery); err != nil {
				return err
			}
			order.DeliveredAt = &now
			return nil
		},
		"Order #%d delivered. Thank you!")
}

// Cancel moves a non-terminal order to cancelled with a reason. If the
// order was already active or on the way its line quantities are restored
// onto product stock; a pending order never removed stock, so nothing is
// restored for it.
func (s *OrderService) Cancel(ctx context.Context, orderID int64, reason string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Cancel")
	defer span.End()

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(order.Status, models.StatusCancelled) {
		return nil, fmt.Errorf("cancel order %d from %s: %w", orderID, order.Status, ErrInvalidTransition)
	}

	restore := order.Status == models.StatusActive || order.Status == models.StatusOnTheWay
	now := s.clock.Now()

	if err := s.orders.CancelOrder(ctx, orderID, reason, now, restore); err != nil {
		return nil, err
	}

	order.Status = models.StatusCancelled
	order.CancelReason = reason
	order.CancelledAt = &now

	util.OrdersTransitionedTotal.WithLabelValues(string(models.StatusCancelled)).Inc()

	if restore {
		if lines, err := s.orders.GetOrderLines(ctx, orderID); err == nil {
			for _, line := range lines {
				util.StockRestoredTotal.Add(float64(line.Quantity))
			}
		}
	}

	s.logger.Info("Order cancelled",
		zap.Int64("order_id", orderID),
		zap.String("reason", reason),
		zap.Bool("stock_restored", restore))

	s.notifyBestEffort(ctx, order.UserID,
		fmt.Sprintf("Order #%d was cancelled: %s", orderID, reason))
	s.publishStatus(ctx, models.EventTypeOrderCancelled, order)

	return order, nil
}

// GetOrder retrieves an order with its line snapshots.
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderLine, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	lines, err := s.orders.GetOrderLines(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, lines, nil
}

// GetOrderStatus answers from the status cache when possible, falling back
// to the store on a miss or cache failure.
func (s *OrderService) GetOrderStatus(ctx context.Context, orderID int64) (models.OrderStatus, error) {
	if s.cache != nil {
		status, ok, err := s.cache.GetOrderStatus(ctx, orderID)
		if err != nil {
			s.logger.Warn("Status cache read failed, falling back to store",
				zap.Int64("order_id", orderID),
				zap.Error(err))
		} else if ok {
			return models.OrderStatus(status), nil
		}
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	return order.Status, nil
}

// ListByUser returns the user's most recent orders.
func (s *OrderService) ListByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.orders.ListOrdersByUser(ctx, userID, userOrderListLimit)
}

// ListByStatus returns orders in a given status, oldest first.
func (s *OrderService) ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	return s.orders.ListOrdersByStatus(ctx, status)
}

func (s *OrderService) transition(
	ctx context.Context,
	orderID int64,
	to models.OrderStatus,
	eventType string,
	apply func(context.Context, *models.Order) error,
	customerMessage string,
) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.transition")
	defer span.End()

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(order.Status, to) {
		return nil, fmt.Errorf("order %d from %s to %s: %w", orderID, order.Status, to, ErrInvalidTransition)
	}

	if err := apply(ctx, order); err != nil {
		return nil, err
	}
	order.Status = to

	util.OrdersTransitionedTotal.WithLabelValues(string(to)).Inc()
	s.logger.Info("Order transitioned",
		zap.Int64("order_id", orderID),
		zap.String("status", string(to)))

	s.notifyBestEffort(ctx, order.UserID, fmt.Sprintf(customerMessage, orderID))
	s.publishStatus(ctx, eventType, order)

	return order, nil
}

// notifyBestEffort logs and swallows delivery failures; a failed message
// never blocks or rolls back the transition that produced it.
func (s *OrderService) notifyBestEffort(ctx context.Context, recipientID int64, text string) {
	if s.notifier == nil || recipientID == 0 {
		return
	}
	if err := s.notifier.Notify(ctx, recipientID, text); err != nil {
		util.NotificationFailuresTotal.Inc()
		s.logger.Warn("Notification delivery failed",
			zap.Int64("recipient_id", recipientID),
			zap.Error(err))
	}
}

func (s *OrderService) publishCreated(ctx context.Context, order *models.Order, lines []models.OrderLine) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderCreated(ctx, order, lines); err != nil {
		s.logger.Error("Failed to publish order.created event", zap.Error(err))
	}
}

func (s *OrderService) publishStatus(ctx context.Context, eventType string, order *models.Order) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderStatus(ctx, eventType, order); err != nil {
		s.logger.Error("Failed to publish order status event",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}
