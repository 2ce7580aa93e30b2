package tickets

import (
	"context"
	"time"

	"ms-concerts/internal/models"
)

// TicketCountDBLayer represents the interface for ticket count database operations
type TicketCountDBLayer interface {
	IncrementTicketCount(ctx context.Context, concertID string, timestamp time.Time) error
	GetTicketCountsForConcert(ctx context.Context, concertID string) ([]models.TicketCount, error)
}

// GetTotalTicketsCount returns the total count of tickets ever issued
func (s *TicketService) GetTotalTicketsCount(ctx context.Context) (int, error) {
	return s.DB.GetTotalTicketsCount(ctx)
}

// GetTicketCountsForConcert returns the daily reservation counts of a concert
func (s *TicketService) GetTicketCountsForConcert(ctx context.Context, concertID string) ([]models.TicketCount, error) {
	if _, err := s.DB.GetConcertByID(ctx, concertID); err != nil {
		return nil, err
	}
	return s.DB.GetTicketCountsForConcert(ctx, concertID)
}
