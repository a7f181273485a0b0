package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// TTLStatusCache bounds staleness of the order-status fast path.
const TTLStatusCache = 5 * time.Minute

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// SetOrderStatus caches an order's current status
func (c *Client) SetOrderStatus(ctx context.Context, orderID int64, status string) error {
	return c.rdb.Set(ctx, statusKey(orderID), status, TTLStatusCache).Err()
}

// GetOrderStatus retrieves a cached order status. Returns ok=false on a
// cache miss.
func (c *Client) GetOrderStatus(ctx context.Context, orderID int64) (string, bool, error) {
	status, err := c.rdb.Get(ctx, statusKey(orderID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return status, true, nil
}

func statusKey(orderID int64) string {
	return fmt.Sprintf("order_status:%d", orderID)
}
