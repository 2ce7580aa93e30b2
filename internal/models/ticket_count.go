package models

import (
	"github.com/uptrace/bun"
)

// TicketCount represents a daily count of tickets reserved for a concert
type TicketCount struct {
	bun.BaseModel `bun:"table:ticket_counts"`

	ID            int64  `bun:"id,pk,autoincrement" json:"-"`
	ConcertID     string `bun:"concert_id,notnull,unique:concert_day" json:"concert_id"`
	Day           string `bun:"day,notnull,unique:concert_day" json:"day"`
	ReservedCount int    `bun:"reserved_count,notnull" json:"reserved_count"`
}
