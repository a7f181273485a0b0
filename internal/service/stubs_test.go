package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"grocery-service/internal/models"
	"grocery-service/internal/store"
)

// In-memory stubs for the store contracts, shared by the service tests.

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

type stubCatalog struct {
	mu       sync.Mutex
	products map[int64]*models.Product
}

func newStubCatalog(products ...*models.Product) *stubCatalog {
	m := make(map[int64]*models.Product)
	for _, p := range products {
		m[p.ID] = p
	}
	return &stubCatalog{products: m}
}

func (s *stubCatalog) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	copied := *p
	return &copied, nil
}

func (s *stubCatalog) ListAvailable(ctx context.Context, category string) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Product
	for _, p := range s.products {
		if p.IsAvailable && p.Stock > 0 && (category == "" || p.Category == category) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubCatalog) AddStock(ctx context.Context, productID int64, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return fmt.Errorf("product %d: %w", productID, store.ErrNotFound)
	}
	p.Stock += delta
	if p.Stock < 0 {
		p.Stock = 0
	}
	return nil
}

func (s *stubCatalog) SetAvailability(ctx context.Context, productID int64, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return fmt.Errorf("product %d: %w", productID, store.ErrNotFound)
	}
	p.IsAvailable = available
	return nil
}

func (s *stubCatalog) UpsertProduct(ctx context.Context, name, category string, quantity int, price int64, photoID string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if strings.EqualFold(p.Name, name) && p.Category == category {
			p.Stock += quantity
			p.Price = price
			p.IsAvailable = true
			if photoID != "" {
				p.PhotoID = photoID
			}
			copied := *p
			return &copied, nil
		}
	}
	id := int64(len(s.products) + 1)
	p := &models.Product{
		ID: id, Name: name, Category: category,
		Price: price, Stock: quantity, IsAvailable: true, PhotoID: photoID,
	}
	s.products[id] = p
	copied := *p
	return &copied, nil
}

func (s *stubCatalog) stock(productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].Stock
}

type stubCarts struct {
	mu    sync.Mutex
	lines []models.CartLine
}

func (s *stubCarts) AddCartLine(ctx context.Context, line *models.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].UserID == line.UserID && s.lines[i].ProductID == line.ProductID {
			s.lines[i].Quantity += line.Quantity
			*line = s.lines[i]
			return nil
		}
	}
	line.ID = int64(len(s.lines) + 1)
	s.lines = append(s.lines, *line)
	return nil
}

func (s *stubCarts) GetCartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CartLine
	for _, l := range s.lines {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubCarts) GetCartLine(ctx context.Context, userID, productID int64) (*models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines {
		if l.UserID == userID && l.ProductID == productID {
			copied := l
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *stubCarts) DeleteCartLine(ctx context.Context, userID, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.lines {
		if l.UserID == userID && l.ProductID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *stubCarts) DeleteCartLines(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.lines[:0]
	for _, l := range s.lines {
		if l.UserID != userID {
			kept = append(kept, l)
		}
	}
	s.lines = kept
	return nil
}

type stubOrders struct {
	mu      sync.Mutex
	nextID  int64
	orders  map[int64]*models.Order
	lines   map[int64][]models.OrderLine
	carts   *stubCarts
	catalog *stubCatalog

	createErr error
}

func newStubOrders(carts *stubCarts, catalog *stubCatalog) *stubOrders {
	return &stubOrders{
		orders:  make(map[int64]*models.Order),
		lines:   make(map[int64][]models.OrderLine),
		carts:   carts,
		catalog: catalog,
	}
}

func (s *stubOrders) CreateOrder(ctx context.Context, order *models.Order, lines []models.OrderLine) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	s.nextID++
	order.ID = s.nextID
	order.CreatedAt = time.Now()
	copied := *order
	s.orders[order.ID] = &copied
	for i := range lines {
		lines[i].OrderID = order.ID
	}
	s.lines[order.ID] = append([]models.OrderLine(nil), lines...)
	s.mu.Unlock()

	// the real store clears the cart in the same transaction
	if s.carts != nil {
		return s.carts.DeleteCartLines(ctx, order.UserID)
	}
	return nil
}

func (s *stubOrders) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, store.ErrNotFound)
	}
	copied := *o
	return &copied, nil
}

func (s *stubOrders) GetOrderLines(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.OrderLine(nil), s.lines[orderID]...), nil
}

func (s *stubOrders) ListOrdersByUser(ctx context.Context, userID int64, limit int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *stubOrders) ListOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *stubOrders) setStatus(orderID int64, from, to models.OrderStatus, mutate func(*models.Order)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.Status != from {
		return fmt.Errorf("order %d not in status %s: %w", orderID, from, store.ErrNotFound)
	}
	o.Status = to
	if mutate != nil {
		mutate(o)
	}
	return nil
}

func (s *stubOrders) MarkActive(ctx context.Context, orderID int64) error {
	return s.setStatus(orderID, models.StatusPending, models.StatusActive, nil)
}

func (s *stubOrders) MarkOnTheWay(ctx context.Context, orderID int64, at time.Time) error {
	return s.setStatus(orderID, models.StatusActive, models.StatusOnTheWay, func(o *models.Order) {
		o.OnTheWayAt = &at
	})
}

func (s *stubOrders) MarkDelivered(ctx context.Context, orderID int64, at time.Time, deductStock bool) error {
	err := s.setStatus(orderID, models.StatusOnTheWay, models.StatusDelivered, func(o *models.Order) {
		o.DeliveredAt = &at
	})
	if err != nil {
		return err
	}
	if deductStock {
		for _, l := range s.lines[orderID] {
			_ = s.catalog.AddStock(ctx, l.ProductID, -l.Quantity)
		}
	}
	return nil
}

func (s *stubOrders) CancelOrder(ctx context.Context, orderID int64, reason string, at time.Time, restoreStock bool) error {
	s.mu.Lock()
	o, ok := s.orders[orderID]
	if !ok || o.Status.Terminal() {
		s.mu.Unlock()
		return fmt.Errorf("order %d not cancellable: %w", orderID, store.ErrNotFound)
	}
	o.Status = models.StatusCancelled
	o.CancelReason = reason
	o.CancelledAt = &at
	lines := s.lines[orderID]
	s.mu.Unlock()

	if restoreStock {
		for _, l := range lines {
			if err := s.catalog.AddStock(ctx, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}
	}
	return nil
}

type stubSlots struct {
	slots map[int64]*models.DeliverySlot
}

func newStubSlots(slots ...*models.DeliverySlot) *stubSlots {
	m := make(map[int64]*models.DeliverySlot)
	for _, s := range slots {
		m[s.ID] = s
	}
	return &stubSlots{slots: m}
}

func (s *stubSlots) GetSlot(ctx context.Context, id int64) (*models.DeliverySlot, error) {
	slot, ok := s.slots[id]
	if !ok {
		return nil, fmt.Errorf("slot %d: %w", id, store.ErrNotFound)
	}
	copied := *slot
	return &copied, nil
}

func (s *stubSlots) ListActiveSlots(ctx context.Context) ([]models.DeliverySlot, error) {
	var out []models.DeliverySlot
	for _, slot := range s.slots {
		if slot.IsActive {
			out = append(out, *slot)
		}
	}
	return out, nil
}

func (s *stubSlots) ToggleSlot(ctx context.Context, id int64) (*models.DeliverySlot, error) {
	slot, ok := s.slots[id]
	if !ok {
		return nil, fmt.Errorf("slot %d: %w", id, store.ErrNotFound)
	}
	slot.IsActive = !slot.IsActive
	copied := *slot
	return &copied, nil
}

type stubDrafts struct {
	drafts map[int64]*models.ProductDraft
}

func newStubDrafts() *stubDrafts {
	return &stubDrafts{drafts: make(map[int64]*models.ProductDraft)}
}

func (s *stubDrafts) GetDraft(ctx context.Context, userID int64) (*models.ProductDraft, error) {
	d, ok := s.drafts[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (s *stubDrafts) SaveDraft(ctx context.Context, draft *models.ProductDraft) error {
	copied := *draft
	s.drafts[draft.UserID] = &copied
	return nil
}

func (s *stubDrafts) DeleteDraft(ctx context.Context, userID int64) error {
	delete(s.drafts, userID)
	return nil
}

// recordingNotifier records every attempt; fail makes delivery error out.
type recordingNotifier struct {
	mu       sync.Mutex
	fail     bool
	messages []struct {
		RecipientID int64
		Text        string
	}
}

func (n *recordingNotifier) Notify(ctx context.Context, recipientID int64, text string) error {
	n.mu.Lock()
	n.messages = append(n.messages, struct {
		RecipientID int64
		Text        string
	}{recipientID, text})
	n.mu.Unlock()
	if n.fail {
		return errors.New("gateway unreachable")
	}
	return nil
}

func (n *recordingNotifier) sentTo(recipientID int64) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, m := range n.messages {
		if m.RecipientID == recipientID {
			count++
		}
	}
	return count
}
