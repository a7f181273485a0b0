package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"grocery-service/internal/models"
)

// CreateOrder creates the order, its line snapshots and clears the user's
// cart in one transaction. The order's ID and CreatedAt are filled in.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order, lines []models.OrderLine) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (user_id, user_name, delivery_slot, address, phone, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	if err := tx.GetContext(ctx, order, query,
		order.UserID, order.UserName, order.DeliverySlot, order.Address, order.Phone, order.Status); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for i := range lines {
		lines[i].OrderID = order.ID
		if err := tx.GetContext(ctx, &lines[i].ID, `
			INSERT INTO order_lines (order_id, product_id, product_name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			lines[i].OrderID, lines[i].ProductID, lines[i].ProductName,
			lines[i].Quantity, lines[i].UnitPrice); err != nil {
			return fmt.Errorf("failed to create order line: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM cart_lines WHERE user_id = $1", order.UserID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return tx.Commit()
}

// GetOrder retrieves an order by ID
func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderLines retrieves all line snapshots for an order
func (s *Store) GetOrderLines(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := s.db.SelectContext(ctx, &lines,
		"SELECT * FROM order_lines WHERE order_id = $1 ORDER BY id", orderID)
	return lines, err
}

// ListOrdersByUser retrieves a user's most recent orders
func (s *Store) ListOrdersByUser(ctx context.Context, userID int64, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2",
		userID, limit)
	return orders, err
}

// ListOrdersByStatus retrieves orders in a given status, oldest first
func (s *Store) ListOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE status = $1 ORDER BY created_at", status)
	return orders, err
}

// MarkActive moves a pending order to active
func (s *Store) MarkActive(ctx context.Context, orderID int64) error {
	return s.updateStatus(ctx, orderID, models.StatusPending, models.StatusActive, "")
}

// MarkOnTheWay moves an active order to on_the_way and stamps the dispatch time
func (s *Store) MarkOnTheWay(ctx context.Context, orderID int64, at time.Time) error {
	return s.updateStatus(ctx, orderID, models.StatusActive, models.StatusOnTheWay,
		", on_the_way_at = $4", at)
}

// MarkDelivered moves an on_the_way order to delivered and stamps the
// delivery time. When deductStock is set, each line's quantity is removed
// from product stock in the same transaction.
func (s *Store) MarkDelivered(ctx context.Context, orderID int64, at time.Time, deductStock bool) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, delivered_at = $2
		WHERE id = $3 AND status = $4`,
		models.StatusDelivered, at, orderID, models.StatusOnTheWay)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("order %d not in status %s: %w", orderID, models.StatusOnTheWay, ErrNotFound)
	}

	if deductStock {
		if _, err := tx.ExecContext(ctx, `
			UPDATE products p
			SET stock = GREATEST(p.stock - ol.quantity, 0)
			FROM order_lines ol
			WHERE ol.order_id = $1 AND ol.product_id = p.id`, orderID); err != nil {
			return fmt.Errorf("failed to deduct stock: %w", err)
		}
	}

	return tx.Commit()
}

// CancelOrder moves an order to cancelled with a reason and cancellation
// time. When restoreStock is set, each line's quantity is added back onto
// product stock in the same transaction.
func (s *Store) CancelOrder(ctx context.Context, orderID int64, reason string, at time.Time, restoreStock bool) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, cancel_reason = $2, cancelled_at = $3
		WHERE id = $4 AND status IN ($5, $6, $7)`,
		models.StatusCancelled, reason, at, orderID,
		models.StatusPending, models.StatusActive, models.StatusOnTheWay)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("order %d not cancellable: %w", orderID, ErrNotFound)
	}

	if restoreStock {
		if _, err := tx.ExecContext(ctx, `
			UPDATE products p
			SET stock = p.stock + ol.quantity
			FROM order_lines ol
			WHERE ol.order_id = $1 AND ol.product_id = p.id`, orderID); err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) updateStatus(ctx context.Context, orderID int64, from, to models.OrderStatus, extra string, args ...interface{}) error {
	query := "UPDATE orders SET status = $1" + extra + " WHERE id = $2 AND status = $3"
	all := append([]interface{}{to, orderID, from}, args...)

	res, err := s.db.ExecContext(ctx, query, all...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order %d not in status %s: %w", orderID, from, ErrNotFound)
	}
	return nil
}
