package models

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// TicketStatus is the lifecycle state of a ticket. A persisted ticket is
// never in a state outside this set.
type TicketStatus string

const (
	TicketStatusAvailable TicketStatus = "available"
	TicketStatusReserved  TicketStatus = "reserved"
	TicketStatusPurchased TicketStatus = "purchased"
	TicketStatusUsed      TicketStatus = "used"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusAvailable, TicketStatusReserved, TicketStatusPurchased, TicketStatusUsed:
		return true
	}
	return false
}

func ParseTicketStatus(v string) (TicketStatus, error) {
	s := TicketStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown ticket status %q", ErrInvalidTransition, v)
	}
	return s, nil
}

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID        string `bun:"id,pk" json:"id"`
	ConcertID string `bun:"concert_id,notnull" json:"concert_id"`
	// UserID is nil exactly when the ticket has been returned to the pool.
	UserID       *string      `bun:"user_id" json:"user_id"`
	Status       TicketStatus `bun:"status,notnull" json:"status"`
	ReservedAt   time.Time    `bun:"reserved_at,notnull" json:"reserved_at"`
	PurchaseDate *time.Time   `bun:"purchase_date" json:"purchase_date,omitempty"`
	UsedAt       *time.Time   `bun:"used_at" json:"used_at,omitempty"`
	CancelledAt  *time.Time   `bun:"cancelled_at" json:"cancelled_at,omitempty"`
}

// Holder returns the bound user id, if any.
func (t Ticket) Holder() (string, bool) {
	if t.UserID == nil {
		return "", false
	}
	return *t.UserID, true
}
