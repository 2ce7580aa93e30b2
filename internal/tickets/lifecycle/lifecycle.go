// Package lifecycle holds the ticket state machine. It is pure: callers load
// and persist tickets, and apply ledger side effects for transitions that
// return a unit of inventory.
//
//	(new)     --reserve-->  reserved
//	reserved  --purchase--> purchased
//	purchased --use-->      used
//	reserved  --cancel-->   available
//	purchased --cancel-->   available
//
// used is terminal. A ticket never enters available except by cancellation.
package lifecycle

import (
	"fmt"
	"time"

	"ms-concerts/internal/models"

	"github.com/google/uuid"
)

type Operation string

const (
	OpPurchase Operation = "purchase"
	OpUse      Operation = "use"
	OpCancel   Operation = "cancel"
)

// Next computes the status a ticket moves to when op is applied in status from.
func Next(from models.TicketStatus, op Operation) (models.TicketStatus, error) {
	if !from.Valid() {
		return "", fmt.Errorf("%w: unknown ticket status %q", models.ErrInvalidTransition, from)
	}

	switch op {
	case OpPurchase:
		switch from {
		case models.TicketStatusReserved:
			return models.TicketStatusPurchased, nil
		case models.TicketStatusPurchased, models.TicketStatusUsed:
			return "", models.ErrAlreadyPurchased
		default:
			return "", models.ErrTicketNotReserved
		}
	case OpUse:
		if from == models.TicketStatusPurchased {
			return models.TicketStatusUsed, nil
		}
		return "", models.ErrNotPurchased
	case OpCancel:
		switch from {
		case models.TicketStatusReserved, models.TicketStatusPurchased:
			return models.TicketStatusAvailable, nil
		case models.TicketStatusAvailable:
			return "", models.ErrAlreadyAvailable
		default:
			return "", models.ErrUsedNotCancellable
		}
	}
	return "", fmt.Errorf("%w: unknown operation %q", models.ErrInvalidTransition, op)
}

// CanTransition reports whether op is allowed from status from.
func CanTransition(from models.TicketStatus, op Operation) bool {
	_, err := Next(from, op)
	return err == nil
}

// Releases reports whether a successful op returns the ticket's unit of
// inventory to its concert.
func Releases(op Operation) bool {
	return op == OpCancel
}

// Event maps an operation to the lifecycle event emitted after it commits.
func Event(op Operation) models.TicketEventType {
	switch op {
	case OpPurchase:
		return models.TicketPurchased
	case OpUse:
		return models.TicketUsed
	case OpCancel:
		return models.TicketCancelled
	}
	return ""
}

// Reserve creates a new ticket bound to userID. Callers must have taken one
// unit from the concert's ledger first.
func Reserve(concertID, userID string, now time.Time) models.Ticket {
	holder := userID
	return models.Ticket{
		ID:         uuid.New().String(),
		ConcertID:  concertID,
		UserID:     &holder,
		Status:     models.TicketStatusReserved,
		ReservedAt: now.UTC(),
	}
}

// Apply runs op against t, mutating it only when the transition is allowed.
func Apply(t *models.Ticket, op Operation, now time.Time) error {
	next, err := Next(t.Status, op)
	if err != nil {
		return err
	}

	at := now.UTC()
	switch op {
	case OpPurchase:
		t.PurchaseDate = &at
	case OpUse:
		t.UsedAt = &at
	case OpCancel:
		t.UserID = nil
		t.PurchaseDate = nil
		t.CancelledAt = &at
	}
	t.Status = next
	return nil
}

func Purchase(t *models.Ticket, now time.Time) error { return Apply(t, OpPurchase, now) }

func Use(t *models.Ticket, now time.Time) error { return Apply(t, OpUse, now) }

func Cancel(t *models.Ticket, now time.Time) error { return Apply(t, OpCancel, now) }
