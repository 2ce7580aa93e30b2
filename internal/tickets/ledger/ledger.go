// Package ledger keeps a concert's available_tickets in lock-step with ticket
// transitions. The counter lives in storage and is only ever changed through
// the atomic conditional updates of a Store, inside the caller's transaction.
package ledger

import (
	"context"
	"fmt"

	"ms-concerts/internal/models"
)

// Store applies single-statement conditional updates to a concert row.
// Each method reports whether the row was changed.
type Store interface {
	// DecrementAvailable takes one unit only while available_tickets > 0.
	DecrementAvailable(ctx context.Context, concertID string) (bool, error)
	// IncrementAvailable returns one unit only while available_tickets < total_tickets.
	IncrementAvailable(ctx context.Context, concertID string) (bool, error)
}

type Ledger struct {
	store Store
}

func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Decrement takes one unit of inventory for a new reservation.
func (l *Ledger) Decrement(ctx context.Context, concertID string) error {
	ok, err := l.store.DecrementAvailable(ctx, concertID)
	if err != nil {
		return fmt.Errorf("decrement available tickets for concert %s: %w", concertID, err)
	}
	if !ok {
		return models.ErrNoTicketsAvailable
	}
	return nil
}

// Increment returns one unit of inventory. It must be paired with an earlier
// Decrement for the same ticket.
func (l *Ledger) Increment(ctx context.Context, concertID string) error {
	ok, err := l.store.IncrementAvailable(ctx, concertID)
	if err != nil {
		return fmt.Errorf("increment available tickets for concert %s: %w", concertID, err)
	}
	if !ok {
		return fmt.Errorf("concert %s: %w", concertID, models.ErrLedgerOverflow)
	}
	return nil
}
