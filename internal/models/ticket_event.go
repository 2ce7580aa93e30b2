package models

import "time"

type TicketEventType string

const (
	TicketReserved  TicketEventType = "reserved"
	TicketPurchased TicketEventType = "purchased"
	TicketCancelled TicketEventType = "cancelled"
	TicketUsed      TicketEventType = "used"
)

// TicketEvents lists every lifecycle event type, in lifecycle order.
var TicketEvents = []TicketEventType{TicketReserved, TicketPurchased, TicketCancelled, TicketUsed}

// TicketEvent is published after a ticket transition has been committed.
type TicketEvent struct {
	Type       TicketEventType `json:"type"`
	TicketID   string          `json:"ticket_id"`
	ConcertID  string          `json:"concert_id"`
	UserID     string          `json:"user_id,omitempty"`
	Status     TicketStatus    `json:"status"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewTicketEvent(eventType TicketEventType, ticket Ticket, at time.Time) TicketEvent {
	userID, _ := ticket.Holder()
	return TicketEvent{
		Type:       eventType,
		TicketID:   ticket.ID,
		ConcertID:  ticket.ConcertID,
		UserID:     userID,
		Status:     ticket.Status,
		OccurredAt: at.UTC(),
	}
}
