package models

import "time"

// Product represents a sellable item in the catalog. Stock is the total
// quantity on hand; holds in the reservation ledger shadow it but never
// mutate it.
type Product struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Category    string    `db:"category" json:"category"`
	Price       int64     `db:"price" json:"price"`
	Stock       int       `db:"stock" json:"stock"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
	PhotoID     string    `db:"photo_id" json:"photo_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Product categories offered in the draft flow
const (
	CategoryVegetables = "vegetables"
	CategoryFruits     = "fruits"
	CategoryBerries    = "berries"
)

// ValidCategory reports whether c is one of the offered categories.
func ValidCategory(c string) bool {
	return c == CategoryVegetables || c == CategoryFruits || c == CategoryBerries
}

// CartLine is a confirmed intent to buy. Name and price are snapshots taken
// when the line was added; they do not track later product edits.
type CartLine struct {
	ID          int64  `db:"id" json:"id"`
	UserID      int64  `db:"user_id" json:"user_id"`
	ProductID   int64  `db:"product_id" json:"product_id"`
	ProductName string `db:"product_name" json:"product_name"`
	Quantity    int    `db:"quantity" json:"quantity"`
	UnitPrice   int64  `db:"unit_price" json:"unit_price"`
}

// DeliverySlot is a bookable delivery time window.
type DeliverySlot struct {
	ID        int64 `db:"id" json:"id"`
	StartHour int   `db:"start_hour" json:"start_hour"`
	EndHour   int   `db:"end_hour" json:"end_hour"`
	IsActive  bool  `db:"is_active" json:"is_active"`
}

// Order represents a placed purchase with a lifecycle. Transition timestamps
// are set exactly once, on the matching transition.
type Order struct {
	ID           int64       `db:"id" json:"id"`
	UserID       int64       `db:"user_id" json:"user_id"`
	UserName     string      `db:"user_name" json:"user_name"`
	DeliverySlot string      `db:"delivery_slot" json:"delivery_slot"`
	Address      string      `db:"address" json:"address"`
	Phone        string      `db:"phone" json:"phone"`
	Status       OrderStatus `db:"status" json:"status"`
	CancelReason string      `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	OnTheWayAt   *time.Time  `db:"on_the_way_at" json:"on_the_way_at,omitempty"`
	DeliveredAt  *time.Time  `db:"delivered_at" json:"delivered_at,omitempty"`
	CancelledAt  *time.Time  `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

// OrderLine is an immutable snapshot of one purchased product within an
// order, created at order-creation time.
type OrderLine struct {
	ID          int64  `db:"id" json:"id"`
	OrderID     int64  `db:"order_id" json:"order_id"`
	ProductID   int64  `db:"product_id" json:"product_id"`
	ProductName string `db:"product_name" json:"product_name"`
	Quantity    int    `db:"quantity" json:"quantity"`
	UnitPrice   int64  `db:"unit_price" json:"unit_price"`
}

// ProductDraft is a persisted per-user product creation conversation,
// advanced one validated field at a time.
type ProductDraft struct {
	UserID   int64     `db:"user_id" json:"user_id"`
	Step     DraftStep `db:"step" json:"step"`
	Name     string    `db:"name" json:"name"`
	Category string    `db:"category" json:"category"`
	Quantity int       `db:"quantity" json:"quantity"`
	Price    int64     `db:"price" json:"price"`
	PhotoID  string    `db:"photo_id" json:"photo_id,omitempty"`
}

// DraftStep is the next field the draft flow expects.
type DraftStep string

const (
	DraftStepName     DraftStep = "name"
	DraftStepCategory DraftStep = "category"
	DraftStepQuantity DraftStep = "quantity"
	DraftStepPrice    DraftStep = "price"
	DraftStepPhoto    DraftStep = "photo"
)
