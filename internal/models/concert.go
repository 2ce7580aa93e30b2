package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Concert struct {
	bun.BaseModel `bun:"table:concerts"`

	ID               string    `bun:"id,pk" json:"id"`
	Name             string    `bun:"name,notnull" json:"name"`
	Date             time.Time `bun:"date,notnull" json:"date"`
	Venue            string    `bun:"venue,notnull" json:"venue"`
	TotalTickets     int       `bun:"total_tickets,notnull" json:"total_tickets"`
	AvailableTickets int       `bun:"available_tickets,notnull" json:"available_tickets"`
	Price            float64   `bun:"price,notnull" json:"price"`
	CreatedAt        time.Time `bun:"created_at,notnull" json:"created_at"`
}

// ConcertSummary is the public listing projection of a concert.
type ConcertSummary struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Date             time.Time `json:"date"`
	Venue            string    `json:"venue"`
	AvailableTickets int       `json:"available_tickets"`
	Price            float64   `json:"price"`
}

func (c Concert) Summary() ConcertSummary {
	return ConcertSummary{
		ID:               c.ID,
		Name:             c.Name,
		Date:             c.Date,
		Venue:            c.Venue,
		AvailableTickets: c.AvailableTickets,
		Price:            c.Price,
	}
}
