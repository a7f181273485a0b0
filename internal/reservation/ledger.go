// Package reservation implements soft, TTL-bounded holds on product
// quantity. A hold prevents two shoppers from both claiming the last unit
// of a product while either is still deciding; it self-heals via expiry if
// a shopper abandons the flow without releasing.
package reservation

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrHoldConflict means another holder currently has a live hold on the product.
	ErrHoldConflict = errors.New("product is held by another customer")

	// ErrInsufficientStock means the requested quantity exceeds current stock.
	ErrInsufficientStock = errors.New("insufficient stock for hold")
)

// DefaultTTL matches the 300-second hold window of the shop flow.
const DefaultTTL = 300 * time.Second

// Clock supplies the current time; injectable for tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

type key struct {
	productID int64
	holderID  int64
}

type entry struct {
	quantity  int
	lockedAt  time.Time
	expiresAt time.Time
}

// Ledger is a mutex-guarded table of holds keyed by (product, holder).
// It only shadows stock, never mutates it. Expired entries are purged
// lazily at the start of every operation; there is no background sweeper.
// The lock is held only around the in-memory table, never across store I/O.
type Ledger struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   Clock
	entries map[key]entry
}

// NewLedger creates a ledger with the given hold TTL. A nil clock defaults
// to the system clock.
func NewLedger(ttl time.Duration, clock Clock) *Ledger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &Ledger{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[key]entry),
	}
}

// Acquire creates or replaces the holder's hold on the product. It fails
// with ErrHoldConflict if any other holder has a live hold, and with
// ErrInsufficientStock if quantity exceeds stock. Both checks and the entry
// write happen inside one critical section, so a caller does not need a
// separate availability read before acquiring. Re-acquiring overwrites the
// holder's own prior hold; quantities do not accumulate.
func (l *Ledger) Acquire(productID, holderID int64, quantity, stock int) error {
	if quantity <= 0 {
		return ErrInsufficientStock
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	purgeExpired(l.entries, now)

	for k := range l.entries {
		if k.productID == productID && k.holderID != holderID {
			return ErrHoldConflict
		}
	}

	// Only this holder can hold the product past the conflict check, and its
	// own prior hold is about to be replaced, so the whole requested quantity
	// is compared against stock.
	if quantity > stock {
		return ErrInsufficientStock
	}

	l.entries[key{productID, holderID}] = entry{
		quantity:  quantity,
		lockedAt:  now,
		expiresAt: now.Add(l.ttl),
	}
	return nil
}

// Release removes the holder's hold on the product if present. Releasing
// an absent hold is a no-op.
func (l *Ledger) Release(productID, holderID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	purgeExpired(l.entries, l.clock.Now())
	delete(l.entries, key{productID, holderID})
}

// LockedQuantity sums the quantities of all live holds on the product.
func (l *Ledger) LockedQuantity(productID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	purgeExpired(l.entries, l.clock.Now())

	total := 0
	for k, e := range l.entries {
		if k.productID == productID {
			total += e.quantity
		}
	}
	return total
}

// LockedQuantityExcluding sums live holds on the product from every holder
// except the given one. Checkout re-validation uses this so a shopper's own
// hold does not count against their own cart line.
func (l *Ledger) LockedQuantityExcluding(productID, holderID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	purgeExpired(l.entries, l.clock.Now())

	total := 0
	for k, e := range l.entries {
		if k.productID == productID && k.holderID != holderID {
			total += e.quantity
		}
	}
	return total
}

// Len returns the number of live holds across all products.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	purgeExpired(l.entries, l.clock.Now())
	return len(l.entries)
}

// expiredKeys returns the keys of entries whose expiry has passed. Pure with
// respect to the map; callers decide whether to delete.
func expiredKeys(entries map[key]entry, now time.Time) []key {
	var expired []key
	for k, e := range entries {
		if e.expiresAt.Before(now) {
			expired = append(expired, k)
		}
	}
	return expired
}

func purgeExpired(entries map[key]entry, now time.Time) {
	for _, k := range expiredKeys(entries, now) {
		delete(entries, k)
	}
}
