package reservation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestAcquireConflictBetweenHolders(t *testing.T) {
	l := NewLedger(DefaultTTL, newFakeClock())

	require.NoError(t, l.Acquire(1, 100, 2, 10))

	err := l.Acquire(1, 200, 1, 10)
	assert.ErrorIs(t, err, ErrHoldConflict)

	// A's hold untouched by the failed attempt
	assert.Equal(t, 2, l.LockedQuantity(1))
}

func TestAcquireReplacesOwnHold(t *testing.T) {
	l := NewLedger(DefaultTTL, newFakeClock())

	require.NoError(t, l.Acquire(1, 100, 2, 10))
	require.NoError(t, l.Acquire(1, 100, 5, 10))

	// overwrite, not additive
	assert.Equal(t, 5, l.LockedQuantity(1))
}

func TestAcquireRejectsOverStock(t *testing.T) {
	l := NewLedger(DefaultTTL, newFakeClock())

	err := l.Acquire(1, 100, 11, 10)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 0, l.LockedQuantity(1))

	err = l.Acquire(1, 100, 0, 10)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestReleaseIdempotent(t *testing.T) {
	l := NewLedger(DefaultTTL, newFakeClock())

	require.NoError(t, l.Acquire(1, 100, 3, 10))

	l.Release(1, 100)
	assert.Equal(t, 0, l.LockedQuantity(1))

	// second release is a no-op
	l.Release(1, 100)
	assert.Equal(t, 0, l.LockedQuantity(1))
}

func TestExpiryWithoutRelease(t *testing.T) {
	clock := newFakeClock()
	l := NewLedger(DefaultTTL, clock)

	require.NoError(t, l.Acquire(1, 100, 4, 10))
	assert.Equal(t, 4, l.LockedQuantity(1))

	clock.Advance(DefaultTTL + time.Second)

	// expired entry is invisible even though Release was never called
	assert.Equal(t, 0, l.LockedQuantity(1))
	assert.Equal(t, 0, l.Len())

	// and another holder can now acquire
	require.NoError(t, l.Acquire(1, 200, 4, 10))
}

func TestLockedQuantitySumsAcrossHolders(t *testing.T) {
	l := NewLedger(DefaultTTL, newFakeClock())

	require.NoError(t, l.Acquire(1, 100, 2, 10))
	require.NoError(t, l.Acquire(2, 100, 3, 10))
	require.NoError(t, l.Acquire(2, 200, 4, 10))

	assert.Equal(t, 2, l.LockedQuantity(1))
	assert.Equal(t, 7, l.LockedQuantity(2))
	assert.Equal(t, 4, l.LockedQuantityExcluding(2, 100))
	assert.Equal(t, 3, l.LockedQuantityExcluding(2, 200))
}

func TestLastUnitHandoff(t *testing.T) {
	// stock(P)=1: A acquires, B fails, A releases, B acquires
	l := NewLedger(DefaultTTL, newFakeClock())

	require.NoError(t, l.Acquire(1, 100, 1, 1))
	assert.ErrorIs(t, l.Acquire(1, 200, 1, 1), ErrHoldConflict)

	l.Release(1, 100)
	require.NoError(t, l.Acquire(1, 200, 1, 1))

	// available = max(0, stock - locked) is 0 throughout B's hold
	assert.Equal(t, 1, l.LockedQuantity(1))
}

func TestExpiredKeysPure(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	entries := map[key]entry{
		{1, 100}: {quantity: 1, expiresAt: now.Add(-time.Second)},
		{1, 200}: {quantity: 2, expiresAt: now.Add(time.Minute)},
		{2, 100}: {quantity: 3, expiresAt: now.Add(-time.Minute)},
	}

	expired := expiredKeys(entries, now)
	assert.ElementsMatch(t, []key{{1, 100}, {2, 100}}, expired)

	// snapshot untouched by the pure pass
	assert.Len(t, entries, 3)
}

func TestConcurrentAcquireSingleWinner(t *testing.T) {
	// Known boundary condition: with the stock comparison inside the
	// critical section, concurrent acquires for the last unit must produce
	// exactly one winner.
	l := NewLedger(DefaultTTL, SystemClock())

	const holders = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < holders; i++ {
		wg.Add(1)
		go func(holder int64) {
			defer wg.Done()
			if err := l.Acquire(7, holder, 1, 1); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, l.LockedQuantity(7))
}
