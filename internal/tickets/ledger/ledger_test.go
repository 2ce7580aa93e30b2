package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ms-concerts/internal/models"
	"ms-concerts/internal/tickets/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore mirrors the conditional updates of the SQL store.
type memoryStore struct {
	mu        sync.Mutex
	total     map[string]int
	available map[string]int
	err       error
}

func newMemoryStore(concertID string, total int) *memoryStore {
	return &memoryStore{
		total:     map[string]int{concertID: total},
		available: map[string]int{concertID: total},
	}
}

func (m *memoryStore) DecrementAvailable(_ context.Context, concertID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.available[concertID] <= 0 {
		return false, nil
	}
	m.available[concertID]--
	return true, nil
}

func (m *memoryStore) IncrementAvailable(_ context.Context, concertID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.available[concertID] >= m.total[concertID] {
		return false, nil
	}
	m.available[concertID]++
	return true, nil
}

func TestDecrementUntilExhausted(t *testing.T) {
	store := newMemoryStore("c1", 2)
	l := ledger.New(store)
	ctx := context.Background()

	require.NoError(t, l.Decrement(ctx, "c1"))
	require.NoError(t, l.Decrement(ctx, "c1"))
	assert.ErrorIs(t, l.Decrement(ctx, "c1"), models.ErrNoTicketsAvailable)
	assert.Equal(t, 0, store.available["c1"])
}

func TestIncrementIsCappedAtCapacity(t *testing.T) {
	store := newMemoryStore("c1", 1)
	l := ledger.New(store)
	ctx := context.Background()

	assert.ErrorIs(t, l.Increment(ctx, "c1"), models.ErrLedgerOverflow)

	require.NoError(t, l.Decrement(ctx, "c1"))
	require.NoError(t, l.Increment(ctx, "c1"))
	assert.Equal(t, 1, store.available["c1"])
}

func TestStoreErrorsAreWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	store := newMemoryStore("c1", 1)
	store.err = boom
	l := ledger.New(store)

	err := l.Decrement(context.Background(), "c1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, models.ErrNoTicketsAvailable)

	err = l.Increment(context.Background(), "c1")
	assert.ErrorIs(t, err, boom)
}

func TestConcurrentDecrementsNeverOversell(t *testing.T) {
	store := newMemoryStore("c1", 5)
	l := ledger.New(store)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Decrement(context.Background(), "c1"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, store.available["c1"])
}
